// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"authlinker/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for auth record persistence.
var (
	// ErrRecordNotFound is returned when an auth record does not exist.
	ErrRecordNotFound = errors.New("auth record not found")
	// ErrRecordNotPending is returned when a state transition expects an unused
	// record but the record has already been used, covered or expired.
	ErrRecordNotPending = errors.New("auth record is no longer pending")
)

// AuthRecordRepository defines the persistence operations for issued link
// records. All operations must be safe under concurrent callers for the same
// or different subjects.
type AuthRecordRepository interface {
	// Create inserts a new record in the unused status.
	Create(ctx context.Context, record *entity.AuthRecord) error

	// SupersedeActive marks the current unused, unexpired record for the
	// subject/action pair as covered and returns its ID, or uuid.Nil when no
	// such record exists. To uphold the single-active-record invariant it must
	// run in the same transaction as the Create that replaces it; the
	// TransactionManager provides that scope.
	SupersedeActive(ctx context.Context, subjectID uuid.UUID, action string) (uuid.UUID, error)

	// MarkUsed transitions a record from unused to used. Returns
	// ErrRecordNotPending when the record exists but is not currently unused,
	// so a retried verification cannot succeed twice.
	MarkUsed(ctx context.Context, id uuid.UUID) error

	// FindByID retrieves a record regardless of its status. The verifier needs
	// the stored token to recompute the payload hash.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AuthRecord, error)

	// IsValid reports whether a record with the given id and token exists,
	// has not been used or covered, and has not expired.
	IsValid(ctx context.Context, id uuid.UUID, token string) (bool, error)

	// LastIssuedAt returns the most recent creation time for the pair,
	// regardless of the record's current status. Used as the cooldown cache's
	// cold-start fallback; nil when the pair has no history.
	LastIssuedAt(ctx context.Context, subjectID uuid.UUID, action string) (*time.Time, error)

	// DeleteExpired removes records whose deadline has passed and returns the
	// number of rows reclaimed. Pure storage cleanup; it never removes a record
	// that would still verify.
	DeleteExpired(ctx context.Context) (int64, error)
}
