package usecase

import (
	"context"

	"github.com/google/uuid"
)

// VerifyLinkInput defines the data carried by an inbound link.
type VerifyLinkInput struct {
	// Data is the encoded payload exactly as transmitted in the link.
	Data string
	// Hash is the SHA-256 binding computed by the issuer.
	Hash string
	// Token is the raw record token. Optional; when present it must match the
	// stored token in addition to the hash check.
	Token string
}

// VerifyLinkOutput identifies the record that was consumed.
type VerifyLinkOutput struct {
	RecordID    uuid.UUID
	SubjectUUID uuid.UUID
	Action      string
}

// VerifyUsecase defines the interface for link verification operations.
type VerifyUsecase interface {
	// VerifyLink validates an inbound link and consumes its record. Every
	// failure mode surfaces as the same invalid-link error so a caller cannot
	// probe which check rejected it.
	VerifyLink(ctx context.Context, input VerifyLinkInput) (*VerifyLinkOutput, error)
}
