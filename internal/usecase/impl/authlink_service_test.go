package impl

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"authlinker/config"
	"authlinker/internal/domain/entity"
	domainerrors "authlinker/internal/domain/errors"
	"authlinker/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthLinkConfig() *config.AuthLinkConfig {
	shift := 3

	return &config.AuthLinkConfig{
		Salt:              "abc123",
		TokenLength:       12,
		Endpoint:          "https://example.com/verify?data={data}&hash={hash}&token={token}",
		Cooldown:          120,
		ExpiredTime:       300,
		Actions:           []string{"login", "suffix"},
		Codec:             "obfuscate",
		Base64Shift:       &shift,
		RotationTimestamp: 86400,
	}
}

type issuerFixture struct {
	repo   *fakeRecordRepo
	codec  *passthroughCodec
	guard  *stubGuard
	qr     *stubQRCode
	issuer usecase.AuthLinkUsecase
}

func newIssuerFixture(cfg *config.AuthLinkConfig) *issuerFixture {
	repo := &fakeRecordRepo{}
	codec := &passthroughCodec{ready: true, legacy: true}
	guard := &stubGuard{}
	qr := &stubQRCode{png: []byte("png-bytes")}

	return &issuerFixture{
		repo:  repo,
		codec: codec,
		guard: guard,
		qr:    qr,
		issuer: NewAuthLinkService(
			cfg,
			&fakeTxManager{repo: repo},
			codec,
			stubBinder{},
			&stubTokenGenerator{token: "AbCdEf123456"},
			guard,
			qr,
			testLogger(),
		),
	}
}

func TestAuthLinkService_IssueLink_Success(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	subject := uuid.New()

	out, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: subject,
		Action:      "login",
	})
	require.NoError(t, err)
	result := out.Result

	// One record, pending, carrying the generated token.
	require.Len(t, fix.repo.created, 1)
	record := fix.repo.created[0]
	assert.Equal(t, result.RecordID, record.ID)
	assert.Equal(t, subject, record.SubjectUUID)
	assert.Equal(t, "login", record.Action)
	assert.Equal(t, "AbCdEf123456", record.Token)
	assert.Equal(t, entity.StatusUnused, record.Status)
	assert.WithinDuration(t, time.Now().Add(300*time.Second), record.ExpiresAt, 2*time.Second)

	// The passthrough codec makes the transmitted data equal the canonical
	// base64, so the digest input is directly checkable.
	assert.Equal(t, "digest:"+result.Data+":AbCdEf123456", result.Hash)

	canonical, err := base64.StdEncoding.DecodeString(result.Data)
	require.NoError(t, err)
	payload, err := entity.ParseLinkPayload(canonical)
	require.NoError(t, err)
	assert.Equal(t, record.ID.String(), payload.RecordUUID)
	assert.Equal(t, "login", payload.Action)
	assert.Equal(t, subject.String(), payload.PlayerUUID)
	assert.Equal(t, record.ExpiresAt.UnixMilli(), payload.ExpiresTime)

	// Template substitution, token included for the legacy codec family.
	assert.Contains(t, result.Link, "data="+result.Data)
	assert.Contains(t, result.Link, "hash="+result.Hash)
	assert.Contains(t, result.Link, "token=AbCdEf123456")

	// Only a committed issuance stamps the cooldown.
	assert.Equal(t, 1, fix.guard.recorded)
	assert.Equal(t, 1, fix.repo.supersedeRuns)
	assert.Nil(t, result.QRCode)
}

func TestAuthLinkService_IssueLink_NonLegacyOmitsToken(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	fix.codec.legacy = false

	out, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
	})
	require.NoError(t, err)

	assert.NotContains(t, out.Result.Link, "AbCdEf123456")
	assert.Contains(t, out.Result.Link, "token=")
}

func TestAuthLinkService_IssueLink_InvalidAction(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())

	_, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "teleport",
	})

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_ACTION", appErr.ErrorCode())
	assert.Empty(t, fix.repo.created)
}

func TestAuthLinkService_IssueLink_CodecNotReady(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	fix.codec.ready = false

	_, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
	})

	assert.ErrorIs(t, err, domainerrors.ErrKeysNotLoaded)
	assert.Empty(t, fix.repo.created)
}

func TestAuthLinkService_IssueLink_CooldownFastPath(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	fix.guard.remaining = 90 * time.Second

	_, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
	})

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "COOLDOWN_ACTIVE", appErr.ErrorCode())
	assert.Contains(t, appErr.Details(), "1m30s")

	// The store must not be touched on the fast path.
	assert.Equal(t, 0, fix.repo.supersedeRuns)
	assert.Empty(t, fix.repo.created)
}

func TestAuthLinkService_IssueLink_CooldownColdFallback(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	// Guard is cold but the store remembers a recent issuance.
	issuedAt := time.Now().Add(-10 * time.Second)
	fix.repo.lastIssued = &issuedAt
	fix.guard.afterHydrate = 110 * time.Second

	_, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
	})

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "COOLDOWN_ACTIVE", appErr.ErrorCode())
	assert.True(t, fix.guard.hydrated)
	assert.Empty(t, fix.repo.created)
	assert.Equal(t, 0, fix.guard.recorded)
}

func TestAuthLinkService_IssueLink_StorageFailure(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	fix.repo.createErr = assert.AnError

	_, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
	})

	assert.ErrorIs(t, err, domainerrors.ErrStorageFailure)
	// Failed attempts must not consume the subject's window.
	assert.Equal(t, 0, fix.guard.recorded)
}

func TestAuthLinkService_IssueLink_TokenGenerationFailure(t *testing.T) {
	cfg := testAuthLinkConfig()
	repo := &fakeRecordRepo{}
	issuer := NewAuthLinkService(
		cfg,
		&fakeTxManager{repo: repo},
		&passthroughCodec{ready: true, legacy: true},
		stubBinder{},
		&stubTokenGenerator{err: assert.AnError},
		&stubGuard{},
		&stubQRCode{},
		testLogger(),
	)

	_, err := issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
	})

	assert.ErrorIs(t, err, domainerrors.ErrCryptoFailure)
	assert.Empty(t, repo.created)
}

func TestAuthLinkService_IssueLink_WithQRCode(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())

	out, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
		WithQRCode:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), out.Result.QRCode)
}

func TestAuthLinkService_IssueLink_QRCodeFailureDegrades(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	fix.qr.png = nil
	fix.qr.err = assert.AnError

	out, err := fix.issuer.IssueLink(context.Background(), usecase.IssueLinkInput{
		SubjectUUID: uuid.New(),
		Action:      "login",
		WithQRCode:  true,
	})
	require.NoError(t, err, "a broken QR renderer must not void the issued link")
	assert.Nil(t, out.Result.QRCode)
	assert.True(t, strings.HasPrefix(out.Result.Link, "https://example.com/verify"))
}

func TestAuthLinkService_CooldownRemaining(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	fix.guard.remaining = 45 * time.Second

	remaining, err := fix.issuer.CooldownRemaining(context.Background(), uuid.New(), "login")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, remaining)

	_, err = fix.issuer.CooldownRemaining(context.Background(), uuid.New(), "teleport")
	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_ACTION", appErr.ErrorCode())
}

func TestAuthLinkService_CooldownRemaining_ColdFallback(t *testing.T) {
	fix := newIssuerFixture(testAuthLinkConfig())
	issuedAt := time.Now().Add(-30 * time.Second)
	fix.repo.lastIssued = &issuedAt
	fix.guard.afterHydrate = 90 * time.Second

	remaining, err := fix.issuer.CooldownRemaining(context.Background(), uuid.New(), "login")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, remaining)
	assert.True(t, fix.guard.hydrated)
}
