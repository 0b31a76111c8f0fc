// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"authlinker/internal/delivery/http/response"
	"authlinker/internal/domain/entity"
	"authlinker/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// LinkHandler holds dependencies for link issuance and verification handlers.
type LinkHandler struct {
	issuer   usecase.AuthLinkUsecase
	verifier usecase.VerifyUsecase
	logger   *slog.Logger
}

// NewLinkHandler is the constructor for LinkHandler, injected by Fx.
func NewLinkHandler(issuer usecase.AuthLinkUsecase, verifier usecase.VerifyUsecase, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		issuer:   issuer,
		verifier: verifier,
		logger:   logger,
	}
}

type issueLinkRequest struct {
	SubjectUUID string `json:"subject_uuid" validate:"required,uuid"`
	Action      string `json:"action" validate:"required"`
	WithQRCode  bool   `json:"with_qrcode"`
}

type linkResponse struct {
	RecordUUID string `json:"record_uuid"`
	Data       string `json:"data"`
	Hash       string `json:"hash"`
	Token      string `json:"token"`
	Link       string `json:"link"`
	QRCode     []byte `json:"qrcode,omitempty"`
}

func toLinkResponse(result *entity.LinkResult) *linkResponse {
	return &linkResponse{
		RecordUUID: result.RecordID.String(),
		Data:       result.Data,
		Hash:       result.Hash,
		Token:      result.Token,
		Link:       result.Link,
		QRCode:     result.QRCode,
	}
}

// IssueLink handles the link issuance request.
func (h *LinkHandler) IssueLink(c echo.Context) error {
	var req issueLinkRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid issuance input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid issuance input")
	}

	subjectUUID, err := uuid.Parse(req.SubjectUUID)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "subject_uuid is not a valid UUID")
	}

	output, err := h.issuer.IssueLink(c.Request().Context(), usecase.IssueLinkInput{
		SubjectUUID: subjectUUID,
		Action:      req.Action,
		WithQRCode:  req.WithQRCode,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toLinkResponse(output.Result))
}

type cooldownRequest struct {
	SubjectUUID string `query:"subject_uuid" validate:"required,uuid"`
	Action      string `query:"action" validate:"required"`
}

// Cooldown reports the remaining wait before the pair may issue again.
func (h *LinkHandler) Cooldown(c echo.Context) error {
	var req cooldownRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid cooldown query")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid cooldown query")
	}

	subjectUUID, err := uuid.Parse(req.SubjectUUID)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "subject_uuid is not a valid UUID")
	}

	remaining, err := h.issuer.CooldownRemaining(c.Request().Context(), subjectUUID, req.Action)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"in_cooldown":       remaining > 0,
		"remaining_seconds": int(remaining.Seconds()),
	})
}

type verifyLinkRequest struct {
	Data  string `json:"data" query:"data" validate:"required"`
	Hash  string `json:"hash" query:"hash" validate:"required"`
	Token string `json:"token" query:"token"`
}

// VerifyLink handles the link verification request. It accepts both a JSON
// body (POST) and query parameters (GET), matching the format links carry.
func (h *LinkHandler) VerifyLink(c echo.Context) error {
	var req verifyLinkRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verification input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid verification input")
	}

	output, err := h.verifier.VerifyLink(c.Request().Context(), usecase.VerifyLinkInput{
		Data:  req.Data,
		Hash:  req.Hash,
		Token: req.Token,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"record_uuid":  output.RecordID.String(),
		"subject_uuid": output.SubjectUUID.String(),
		"action":       output.Action,
	})
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
