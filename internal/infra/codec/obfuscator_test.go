package codec

import (
	"encoding/base64"
	"testing"
	"time"

	"authlinker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthLinkConfig() *config.AuthLinkConfig {
	shift := 3

	return &config.AuthLinkConfig{
		Base64Shift:            &shift,
		Base64ObfuscationTable: "jQNHxo9a1zVG8dFcyb27XmiwOl0WULnkPsBKqEAZYfer3t5RMDSCJhgvu4pT-.*~",
		RotationTimestamp:      86400,
	}
}

func TestObfuscator_RoundTrip(t *testing.T) {
	codec := NewObfuscator(testAuthLinkConfig())

	payloads := []string{
		`{"recordUUID":"r1","action":"login","player_uuid":"s1","expires_time":1700000000000}`,
		"",
		"short",
		"a longer payload that spans multiple base64 blocks and has = padding behavior",
	}

	now := time.Now()
	for _, p := range payloads {
		encoded, err := codec.Encode([]byte(p), now)
		require.NoError(t, err)

		decoded, err := codec.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, p, string(decoded))
	}
}

func TestObfuscator_RoundTripAcrossRotationBuckets(t *testing.T) {
	codec := NewObfuscator(testAuthLinkConfig())

	// Encoding in one bucket must decode in any later bucket because the
	// envelope pins the timestamp that chose the table.
	past := time.Now().Add(-72 * time.Hour)
	encoded, err := codec.Encode([]byte("issued three days ago"), past)
	require.NoError(t, err)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "issued three days ago", string(decoded))
}

func TestObfuscator_TableStableWithinBucket(t *testing.T) {
	o := NewObfuscator(testAuthLinkConfig()).(*obfuscator)

	period := int64(86400 * 1000)
	base := int64(1700000000000)
	bucketStart := base - base%period

	assert.Equal(t, o.tableAt(bucketStart), o.tableAt(bucketStart+period-1))
	assert.NotEqual(t, o.tableAt(bucketStart), o.tableAt(bucketStart+period))
}

func TestObfuscator_TableIsPermutationOfConfigured(t *testing.T) {
	cfg := testAuthLinkConfig()
	o := NewObfuscator(cfg).(*obfuscator)

	table := o.tableAt(1700000000000)
	assert.Len(t, table, 64)
	assert.ElementsMatch(t, []byte(cfg.Base64ObfuscationTable), []byte(table))
}

func TestObfuscator_LegacyFormatStillDecodes(t *testing.T) {
	cfg := testAuthLinkConfig()
	codec := NewObfuscator(cfg).(*obfuscator)

	// A pre-rotation payload: shifted then mapped through the configured
	// table directly, no envelope.
	plain := `{"recordUUID":"old","action":"login"}`
	encoded := base64.StdEncoding.EncodeToString([]byte(plain))
	legacy := mapChars(applyShift(encoded, *cfg.Base64Shift), forwardMap(cfg.Base64ObfuscationTable))

	decoded, err := codec.Decode(legacy)
	require.NoError(t, err)
	assert.Equal(t, plain, string(decoded))
}

func TestObfuscator_PaddingMapsToSentinel(t *testing.T) {
	codec := NewObfuscator(testAuthLinkConfig())

	// One-byte payload base64-encodes with two '=' characters.
	encoded, err := codec.Encode([]byte("x"), time.Now())
	require.NoError(t, err)

	outer, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Contains(t, string(outer), "__")
	assert.NotContains(t, string(outer), "=")
}

func TestApplyShift_WrapsBothDirections(t *testing.T) {
	// '/' is the last alphabet symbol; shifting by 3 wraps to 'C'.
	assert.Equal(t, "C", applyShift("/", 3))
	assert.Equal(t, "/", applyShift("C", -3))

	// 'A' shifted back by 3 wraps to '9'.
	assert.Equal(t, "9", applyShift("A", -3))

	// Shift amounts beyond 64 reduce modulo the alphabet size.
	assert.Equal(t, applyShift("AbC9", 3), applyShift("AbC9", 67))

	// Non-alphabet characters pass through unmodified.
	assert.Equal(t, "=_ !", applyShift("=_ !", 5))
}

func TestObfuscator_ShortTableFallsBackToStandardChars(t *testing.T) {
	// Deployed 62-character tables leave '+' and '/' mapping to themselves.
	cfg := testAuthLinkConfig()
	cfg.Base64ObfuscationTable = cfg.Base64ObfuscationTable[:62]
	codec := NewObfuscator(cfg)

	encoded, err := codec.Encode([]byte("fallback"), time.Now())
	require.NoError(t, err)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "fallback", string(decoded))
}

func TestObfuscator_Flags(t *testing.T) {
	codec := NewObfuscator(testAuthLinkConfig())
	assert.True(t, codec.Ready())
	assert.True(t, codec.Legacy())
}
