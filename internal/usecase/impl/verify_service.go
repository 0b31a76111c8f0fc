package impl

import (
	"context"
	"crypto/hmac"
	"encoding/base64"
	"log/slog"
	"time"

	deliverycontext "authlinker/internal/delivery/context"
	"authlinker/internal/domain/entity"
	domainerrors "authlinker/internal/domain/errors"
	"authlinker/internal/domain/repository"
	"authlinker/internal/domain/service"
	"authlinker/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// verifyService implements the VerifyUsecase interface.
type verifyService struct {
	txManager repository.TransactionManager
	codec     service.PayloadCodec
	binder    service.HashBinder
	logger    *slog.Logger
}

// NewVerifyService is the constructor for verifyService.
func NewVerifyService(
	txManager repository.TransactionManager,
	codec service.PayloadCodec,
	binder service.HashBinder,
	logger *slog.Logger,
) usecase.VerifyUsecase {
	return &verifyService{
		txManager: txManager,
		codec:     codec,
		binder:    binder,
		logger:    logger,
	}
}

func (srv *verifyService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// VerifyLink validates an inbound link and consumes its record. The real
// rejection reason is logged server-side only; callers always see the same
// invalid-link error.
func (srv *verifyService) VerifyLink(ctx context.Context, input usecase.VerifyLinkInput) (*usecase.VerifyLinkOutput, error) {
	canonical, err := srv.codec.Decode(input.Data)
	if err != nil {
		return nil, srv.reject(ctx, "payload decode failed", err)
	}

	payload, err := entity.ParseLinkPayload(canonical)
	if err != nil {
		return nil, srv.reject(ctx, "payload parse failed", err)
	}

	now := time.Now()
	if payload.Expired(now) {
		return nil, srv.reject(ctx, "payload deadline passed", nil)
	}

	recordID, err := payload.RecordID()
	if err != nil {
		return nil, srv.reject(ctx, "payload record id malformed", err)
	}

	subjectUUID, err := uuid.Parse(payload.PlayerUUID)
	if err != nil {
		return nil, srv.reject(ctx, "payload subject id malformed", err)
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		recordRepo := repoFactory.AuthRecordRepo()

		record, err := recordRepo.FindByID(ctx, recordID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return srv.reject(ctx, "record not found", nil)
			}

			return errors.Wrap(domainerrors.ErrStorageFailure, err.Error())
		}

		if !record.IsActive(now) {
			return srv.reject(ctx, "record not pending", nil)
		}

		// The payload must describe the record it points at; a mismatch means
		// a payload was spliced onto another record's ID.
		if record.SubjectUUID != subjectUUID || record.Action != payload.Action {
			return srv.reject(ctx, "payload does not match record", nil)
		}

		// Recompute the binding from the stored token. The digest covers the
		// plain canonical base64, never the transmitted form.
		plainBase64 := base64.StdEncoding.EncodeToString(canonical)
		expected := srv.binder.Bind(plainBase64, record.Token)
		if !hmac.Equal([]byte(expected), []byte(input.Hash)) {
			return srv.reject(ctx, "hash mismatch", nil)
		}

		if input.Token != "" && input.Token != record.Token {
			return srv.reject(ctx, "token mismatch", nil)
		}

		// Consume the record. The status guard in MarkUsed makes a concurrent
		// duplicate verification lose here.
		if err := recordRepo.MarkUsed(ctx, recordID); err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) || errors.Is(err, repository.ErrRecordNotPending) {
				return srv.reject(ctx, "record already consumed", err)
			}

			return errors.Wrap(domainerrors.ErrStorageFailure, err.Error())
		}

		return nil
	})
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}

		return nil, errors.Wrap(domainerrors.ErrStorageFailure, err.Error())
	}

	srv.log(ctx).Info("Verified auth link",
		slog.Any("record_id", recordID),
		slog.Any("subject_uuid", subjectUUID),
		slog.String("action", payload.Action))

	return &usecase.VerifyLinkOutput{
		RecordID:    recordID,
		SubjectUUID: subjectUUID,
		Action:      payload.Action,
	}, nil
}

// reject logs the true failure reason and returns the uniform external error.
func (srv *verifyService) reject(ctx context.Context, reason string, err error) error {
	attrs := []any{slog.String("reason", reason)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	srv.log(ctx).Warn("Rejected auth link", attrs...)

	return domainerrors.ErrInvalidLink
}
