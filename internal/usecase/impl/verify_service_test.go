package impl

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"authlinker/internal/domain/entity"
	domainerrors "authlinker/internal/domain/errors"
	"authlinker/internal/domain/repository"
	"authlinker/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyFixture struct {
	repo     *fakeRecordRepo
	verifier usecase.VerifyUsecase
}

func newVerifyFixture() *verifyFixture {
	repo := &fakeRecordRepo{}

	return &verifyFixture{
		repo: repo,
		verifier: NewVerifyService(
			&fakeTxManager{repo: repo},
			&passthroughCodec{ready: true, legacy: true},
			stubBinder{},
			testLogger(),
		),
	}
}

// issueTestLink seeds the fake store with a pending record and returns the
// matching wire input a legitimate caller would present.
func (fix *verifyFixture) issueTestLink(t *testing.T, subject uuid.UUID, action string) usecase.VerifyLinkInput {
	t.Helper()

	record := &entity.AuthRecord{
		ID:          uuid.New(),
		SubjectUUID: subject,
		Action:      action,
		Token:       "AbCdEf123456",
		Status:      entity.StatusUnused,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
	}
	fix.repo.record = record

	payload := entity.NewLinkPayload(record.ID, subject, action, record.ExpiresAt)
	canonical, err := payload.CanonicalJSON()
	require.NoError(t, err)

	data := base64.StdEncoding.EncodeToString(canonical)

	return usecase.VerifyLinkInput{
		Data: data,
		Hash: stubBinder{}.Bind(data, record.Token),
	}
}

func assertInvalidLink(t *testing.T, err error) {
	t.Helper()

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_LINK", appErr.ErrorCode())
}

func TestVerifyService_VerifyLink_Success(t *testing.T) {
	fix := newVerifyFixture()
	subject := uuid.New()
	input := fix.issueTestLink(t, subject, "login")

	out, err := fix.verifier.VerifyLink(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, fix.repo.record.ID, out.RecordID)
	assert.Equal(t, subject, out.SubjectUUID)
	assert.Equal(t, "login", out.Action)
	assert.Equal(t, 1, fix.repo.markUsedRuns)
	assert.Equal(t, entity.StatusUsed, fix.repo.record.Status)
}

func TestVerifyService_VerifyLink_SuppliedTokenMatch(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")

	input.Token = "AbCdEf123456"
	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assert.NoError(t, err)
}

func TestVerifyService_VerifyLink_SuppliedTokenMismatch(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")

	input.Token = "wrong-token-0"
	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assertInvalidLink(t, err)
	assert.Equal(t, 0, fix.repo.markUsedRuns)
}

func TestVerifyService_VerifyLink_MalformedData(t *testing.T) {
	fix := newVerifyFixture()

	_, err := fix.verifier.VerifyLink(context.Background(), usecase.VerifyLinkInput{
		Data: "%%% not base64 %%%",
		Hash: "anything",
	})
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_GarbagePayload(t *testing.T) {
	fix := newVerifyFixture()

	_, err := fix.verifier.VerifyLink(context.Background(), usecase.VerifyLinkInput{
		Data: base64.StdEncoding.EncodeToString([]byte("not json at all")),
		Hash: "anything",
	})
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_ExpiredPayload(t *testing.T) {
	fix := newVerifyFixture()
	subject := uuid.New()

	payload := entity.NewLinkPayload(uuid.New(), subject, "login", time.Now().Add(-time.Minute))
	canonical, err := payload.CanonicalJSON()
	require.NoError(t, err)
	data := base64.StdEncoding.EncodeToString(canonical)

	_, err = fix.verifier.VerifyLink(context.Background(), usecase.VerifyLinkInput{
		Data: data,
		Hash: stubBinder{}.Bind(data, "AbCdEf123456"),
	})
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_RecordNotFound(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")
	fix.repo.record = nil
	fix.repo.findErr = repository.ErrRecordNotFound

	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_RecordAlreadyUsed(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")
	fix.repo.record.Status = entity.StatusUsed
	fix.repo.record.IsUsed = true

	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_RecordCovered(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")
	fix.repo.record.Status = entity.StatusCovered
	fix.repo.record.IsUsed = true

	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_HashMismatch(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")
	input.Hash = input.Hash + "0"

	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assertInvalidLink(t, err)
	assert.Equal(t, 0, fix.repo.markUsedRuns)
}

func TestVerifyService_VerifyLink_SplicedPayload(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")
	// The stored record belongs to a different subject.
	fix.repo.record.SubjectUUID = uuid.New()

	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_ConcurrentConsumption(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")
	// Another verification claimed the record between FindByID and MarkUsed.
	fix.repo.markUsedErr = repository.ErrRecordNotPending

	_, err := fix.verifier.VerifyLink(context.Background(), input)
	assertInvalidLink(t, err)
}

func TestVerifyService_VerifyLink_StorageFailureIsNotInvalidLink(t *testing.T) {
	fix := newVerifyFixture()
	input := fix.issueTestLink(t, uuid.New(), "login")
	fix.repo.findErr = assert.AnError

	_, err := fix.verifier.VerifyLink(context.Background(), input)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "STORAGE_FAILURE", appErr.ErrorCode())
}
