package usecase

import "context"

// KeyAdminUsecase defines administrative operations on the asymmetric keypair.
// Only meaningful when the rsa codec is configured.
type KeyAdminUsecase interface {
	// GenerateKeys creates and persists a fresh keypair, replacing any
	// existing one. Links issued under the old keypair stop verifying.
	GenerateKeys(ctx context.Context) error

	// PublicKey returns the base64-encoded public key for distribution to
	// verifiers.
	PublicKey(ctx context.Context) (string, error)
}
