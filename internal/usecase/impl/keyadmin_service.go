package impl

import (
	"context"
	"log/slog"

	domainerrors "authlinker/internal/domain/errors"
	"authlinker/internal/domain/service"
	"authlinker/internal/usecase"

	"github.com/pkg/errors"
)

// keyAdminService implements the KeyAdminUsecase interface.
type keyAdminService struct {
	keys   service.KeyManager
	logger *slog.Logger
}

// NewKeyAdminService is the constructor for keyAdminService.
func NewKeyAdminService(keys service.KeyManager, logger *slog.Logger) usecase.KeyAdminUsecase {
	return &keyAdminService{
		keys:   keys,
		logger: logger,
	}
}

// GenerateKeys creates and persists a fresh keypair.
func (srv *keyAdminService) GenerateKeys(_ context.Context) error {
	if err := srv.keys.GenerateKeyPair(); err != nil {
		srv.logger.Error("Failed to generate keypair", slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrKeyGenerationFailed, err.Error())
	}
	srv.logger.Info("Generated new keypair; previously issued encrypted links are void")

	return nil
}

// PublicKey returns the base64-encoded public key for verifiers.
func (srv *keyAdminService) PublicKey(_ context.Context) (string, error) {
	if !srv.keys.Loaded() {
		return "", errors.Wrap(domainerrors.ErrKeysNotLoaded, "no keypair on disk")
	}

	return srv.keys.PublicKeyBase64(), nil
}
