package impl

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"time"

	"authlinker/internal/domain/entity"
	"authlinker/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- transaction fakes ---

// fakeTxManager runs the callback against a single fake repository, so a
// business error returned by the callback propagates exactly as the real
// transaction manager would surface it.
type fakeTxManager struct {
	repo     repository.AuthRecordRepository
	beginErr error
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}

	return fn(&fakeRepoFactory{repo: m.repo})
}

type fakeRepoFactory struct {
	repo repository.AuthRecordRepository
}

func (f *fakeRepoFactory) AuthRecordRepo() repository.AuthRecordRepository {
	return f.repo
}

// fakeRecordRepo is a scriptable in-place stand-in for the record store.
type fakeRecordRepo struct {
	lastIssued    *time.Time
	lastIssuedErr error

	supersededID  uuid.UUID
	supersedeErr  error
	supersedeRuns int

	created   []*entity.AuthRecord
	createErr error

	record  *entity.AuthRecord
	findErr error

	markUsedErr  error
	markUsedRuns int

	deleteCount int64
	deleteErr   error
}

func (r *fakeRecordRepo) Create(_ context.Context, record *entity.AuthRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, record)

	return nil
}

func (r *fakeRecordRepo) SupersedeActive(_ context.Context, _ uuid.UUID, _ string) (uuid.UUID, error) {
	r.supersedeRuns++

	return r.supersededID, r.supersedeErr
}

func (r *fakeRecordRepo) MarkUsed(_ context.Context, _ uuid.UUID) error {
	if r.markUsedErr != nil {
		return r.markUsedErr
	}
	r.markUsedRuns++
	if r.record != nil {
		r.record.Status = entity.StatusUsed
		r.record.IsUsed = true
	}

	return nil
}

func (r *fakeRecordRepo) FindByID(_ context.Context, _ uuid.UUID) (*entity.AuthRecord, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	return r.record, nil
}

func (r *fakeRecordRepo) IsValid(_ context.Context, id uuid.UUID, token string) (bool, error) {
	if r.record == nil {
		return false, nil
	}

	return r.record.ID == id && r.record.Token == token && r.record.IsActive(time.Now()), nil
}

func (r *fakeRecordRepo) LastIssuedAt(_ context.Context, _ uuid.UUID, _ string) (*time.Time, error) {
	return r.lastIssued, r.lastIssuedErr
}

func (r *fakeRecordRepo) DeleteExpired(_ context.Context) (int64, error) {
	return r.deleteCount, r.deleteErr
}

// --- domain service fakes ---

// passthroughCodec encodes payloads as plain base64, which keeps the
// transmitted form equal to the canonical base64 the hash binds.
type passthroughCodec struct {
	ready     bool
	legacy    bool
	encodeErr error
}

func (c *passthroughCodec) Encode(payload []byte, _ time.Time) (string, error) {
	if c.encodeErr != nil {
		return "", c.encodeErr
	}

	return base64.StdEncoding.EncodeToString(payload), nil
}

func (c *passthroughCodec) Decode(data string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode failed")
	}

	return decoded, nil
}

func (c *passthroughCodec) Ready() bool  { return c.ready }
func (c *passthroughCodec) Legacy() bool { return c.legacy }

// stubBinder produces a deterministic digest so tests can predict the hash.
type stubBinder struct{}

func (stubBinder) Bind(payloadBase64, token string) string {
	return "digest:" + payloadBase64 + ":" + token
}

type stubTokenGenerator struct {
	token string
	err   error
}

func (g *stubTokenGenerator) Generate(_ int) (string, error) {
	return g.token, g.err
}

// stubGuard scripts the cooldown guard. remaining is returned until Hydrate
// runs, afterHydrate afterwards.
type stubGuard struct {
	remaining    time.Duration
	afterHydrate time.Duration
	hydrated     bool
	recorded     int
	cleaned      int
}

func (g *stubGuard) InCooldown(subjectID uuid.UUID, action string) bool {
	return g.Remaining(subjectID, action) > 0
}

func (g *stubGuard) Remaining(_ uuid.UUID, _ string) time.Duration {
	if g.hydrated {
		return g.afterHydrate
	}

	return g.remaining
}

func (g *stubGuard) Record(_ uuid.UUID, _ string) { g.recorded++ }

func (g *stubGuard) Hydrate(_ uuid.UUID, _ string, _ time.Time) { g.hydrated = true }

func (g *stubGuard) Cleanup() int { return g.cleaned }

type stubQRCode struct {
	png []byte
	err error
}

func (q *stubQRCode) GenerateLinkQR(_ string) ([]byte, error) {
	return q.png, q.err
}

type stubKeyManager struct {
	generateErr error
	loaded      bool
	publicKey   string
}

func (k *stubKeyManager) GenerateKeyPair() error {
	if k.generateErr != nil {
		return k.generateErr
	}
	k.loaded = true

	return nil
}

func (k *stubKeyManager) Loaded() bool { return k.loaded }

func (k *stubKeyManager) PublicKeyBase64() string { return k.publicKey }
