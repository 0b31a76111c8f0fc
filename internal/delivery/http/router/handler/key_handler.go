package handler

import (
	"log/slog"
	"net/http"

	"authlinker/internal/delivery/http/response"
	"authlinker/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// KeyHandler holds dependencies for keypair administration handlers.
type KeyHandler struct {
	keyAdmin usecase.KeyAdminUsecase
	logger   *slog.Logger
}

// NewKeyHandler is the constructor for KeyHandler, injected by Fx.
func NewKeyHandler(keyAdmin usecase.KeyAdminUsecase, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{
		keyAdmin: keyAdmin,
		logger:   logger,
	}
}

// GenerateKeys creates a fresh keypair. Links issued under the previous
// keypair stop verifying, so this is an explicit administrative action.
func (h *KeyHandler) GenerateKeys(c echo.Context) error {
	if err := h.keyAdmin.GenerateKeys(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]string{"status": "generated"})
}

// PublicKey returns the base64-encoded public key for external verifiers.
func (h *KeyHandler) PublicKey(c echo.Context) error {
	publicKey, err := h.keyAdmin.PublicKey(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"public_key": publicKey})
}
