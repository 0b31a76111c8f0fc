// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"authlinker/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// IssueLinkInput defines the data required to issue a new auth link.
type IssueLinkInput struct {
	SubjectUUID uuid.UUID
	Action      string
	WithQRCode  bool
}

// --- Output DTOs ---

// IssueLinkOutput returns the issued link details.
type IssueLinkOutput struct {
	Result *entity.LinkResult
}

// AuthLinkUsecase defines the interface for link issuance operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthLinkUsecase interface {
	// IssueLink mints a single-use link for the subject/action pair. Any
	// previously active link for the same pair is superseded atomically with
	// the new record's insert.
	IssueLink(ctx context.Context, input IssueLinkInput) (*IssueLinkOutput, error)

	// CooldownRemaining reports how long the pair must wait before the next
	// issuance, zero when issuance is allowed right now.
	CooldownRemaining(ctx context.Context, subjectUUID uuid.UUID, action string) (time.Duration, error)
}
