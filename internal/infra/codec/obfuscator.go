package codec

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"authlinker/config"
	"authlinker/internal/domain/service"
	"authlinker/internal/errors"
)

// standardBase64Chars is the fixed-order base64 alphabet the shift and the
// substitution mapping operate over.
const standardBase64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// paddingSentinel replaces '=' in obfuscated output so the result never
// looks like ordinary base64.
const (
	paddingChar     = '='
	paddingSentinel = '_'
)

// envelope wraps the obfuscated data together with the timestamp that chose
// the rotation bucket, so decoding can rebuild the exact same table. The
// timestamp is in clear, but the whole envelope is base64-wrapped.
type envelope struct {
	Data string `json:"data"`
	Time int64  `json:"time"`
}

// obfuscator is the reversible, time-rotating substitution codec. It hides
// payload fields from casual inspection of a link; it is obfuscation, not
// encryption.
type obfuscator struct {
	shift          int
	table          string
	rotationPeriod time.Duration
}

// NewObfuscator builds the substitution codec from configuration.
func NewObfuscator(cfg *config.AuthLinkConfig) service.PayloadCodec {
	// Config loading defaults a nil shift; a directly built config without
	// one means no shift.
	var shift int
	if cfg.Base64Shift != nil {
		shift = *cfg.Base64Shift
	}

	return &obfuscator{
		shift:          shift,
		table:          cfg.Base64ObfuscationTable,
		rotationPeriod: time.Duration(cfg.RotationTimestamp) * time.Second,
	}
}

// Encode base64-encodes the payload, shifts it over the base64 alphabet,
// maps it through the rotation table for the given instant and wraps the
// result in a base64-encoded envelope carrying the timestamp.
func (o *obfuscator) Encode(payload []byte, now time.Time) (string, error) {
	millis := now.UnixMilli()

	encoded := base64.StdEncoding.EncodeToString(payload)
	shifted := applyShift(encoded, o.shift)
	mapped := mapChars(shifted, forwardMap(o.tableAt(millis)))

	wrapped, err := json.Marshal(envelope{Data: mapped, Time: millis})
	if err != nil {
		return "", errors.Wrap(err, "failed to wrap obfuscated payload")
	}

	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// Decode reverses Encode. Inputs that do not carry the envelope are treated
// as pre-rotation payloads and decoded with the currently configured table,
// keeping links issued before rotation existed verifiable.
func (o *obfuscator) Decode(data string) ([]byte, error) {
	if outer, err := base64.StdEncoding.DecodeString(data); err == nil {
		var env envelope
		if jsonErr := json.Unmarshal(outer, &env); jsonErr == nil && env.Data != "" {
			return o.decodeWithTable(env.Data, o.tableAt(env.Time))
		}
	}

	// Legacy format: no envelope, non-rotated table applied directly.
	return o.decodeWithTable(data, o.table)
}

func (o *obfuscator) decodeWithTable(data, table string) ([]byte, error) {
	unmapped := mapChars(data, reverseMap(table))
	unshifted := applyShift(unmapped, -o.shift)

	payload, err := base64.StdEncoding.DecodeString(unshifted)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode obfuscated payload")
	}

	return payload, nil
}

// Ready is always true; the codec needs no key material.
func (o *obfuscator) Ready() bool {
	return true
}

// Legacy reports true: links carry the raw token as a separate parameter.
func (o *obfuscator) Legacy() bool {
	return true
}

// tableAt returns the substitution table active for the rotation bucket the
// timestamp falls into. Same bucket, same table: the shuffle is driven by
// the deterministic generator seeded with the bucket number.
func (o *obfuscator) tableAt(millis int64) string {
	seed := millis / o.rotationPeriod.Milliseconds()

	chars := []byte(o.table)
	random := newSeededRandom(seed)
	// Fisher-Yates, last index down to 1.
	for i := len(chars) - 1; i > 0; i-- {
		j := random.nextInt(i + 1)
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars)
}

// forwardMap maps each standard base64 character to its disguised
// counterpart. Positions past the end of a short table fall back to the
// standard character. The padding character always maps to the sentinel.
func forwardMap(table string) map[byte]byte {
	m := make(map[byte]byte, len(standardBase64Chars)+1)
	for i := range len(standardBase64Chars) {
		std := standardBase64Chars[i]
		if i < len(table) {
			m[std] = table[i]
		} else {
			m[std] = std
		}
	}
	m[paddingChar] = paddingSentinel

	return m
}

// reverseMap is the inverse of forwardMap.
func reverseMap(table string) map[byte]byte {
	m := make(map[byte]byte, len(standardBase64Chars)+1)
	for i := range len(standardBase64Chars) {
		std := standardBase64Chars[i]
		if i < len(table) {
			m[table[i]] = std
		} else {
			m[std] = std
		}
	}
	m[paddingSentinel] = paddingChar

	return m
}

// mapChars substitutes every character through the mapping; characters
// without an entry pass through unchanged.
func mapChars(input string, mapping map[byte]byte) string {
	var sb strings.Builder
	sb.Grow(len(input))
	for i := range len(input) {
		c := input[i]
		if mapped, ok := mapping[c]; ok {
			sb.WriteByte(mapped)
		} else {
			sb.WriteByte(c)
		}
	}

	return sb.String()
}

// applyShift cyclically shifts base64-alphabet characters by the given
// amount, wrapping modulo 64 in both directions. Padding, the sentinel and
// anything outside the alphabet pass through unshifted.
func applyShift(input string, amount int) string {
	var sb strings.Builder
	sb.Grow(len(input))

	for i := range len(input) {
		c := input[i]
		if c == paddingChar || c == paddingSentinel {
			sb.WriteByte(c)

			continue
		}

		idx := strings.IndexByte(standardBase64Chars, c)
		if idx == -1 {
			sb.WriteByte(c)

			continue
		}

		shifted := (idx + amount) % len(standardBase64Chars)
		if shifted < 0 {
			shifted += len(standardBase64Chars)
		}
		sb.WriteByte(standardBase64Chars[shifted])
	}

	return sb.String()
}
