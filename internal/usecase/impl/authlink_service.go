// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"encoding/base64"
	"log/slog"
	"slices"
	"strings"
	"time"

	"authlinker/config"
	deliverycontext "authlinker/internal/delivery/context"
	"authlinker/internal/domain/entity"
	domainerrors "authlinker/internal/domain/errors"
	"authlinker/internal/domain/repository"
	"authlinker/internal/domain/service"
	"authlinker/internal/usecase"
	"authlinker/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// authLinkService implements the AuthLinkUsecase interface.
type authLinkService struct {
	cfg       *config.AuthLinkConfig
	txManager repository.TransactionManager
	codec     service.PayloadCodec
	binder    service.HashBinder
	tokens    service.TokenGenerator
	guard     service.CooldownGuard
	qrcodes   service.QRCodeService
	logger    *slog.Logger
}

// NewAuthLinkService is the constructor for authLinkService.
func NewAuthLinkService(
	cfg *config.AuthLinkConfig,
	txManager repository.TransactionManager,
	codec service.PayloadCodec,
	binder service.HashBinder,
	tokens service.TokenGenerator,
	guard service.CooldownGuard,
	qrcodes service.QRCodeService,
	logger *slog.Logger,
) usecase.AuthLinkUsecase {
	return &authLinkService{
		cfg:       cfg,
		txManager: txManager,
		codec:     codec,
		binder:    binder,
		tokens:    tokens,
		guard:     guard,
		qrcodes:   qrcodes,
		logger:    logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authLinkService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// IssueLink mints a single-use link for the subject/action pair.
func (srv *authLinkService) IssueLink(ctx context.Context, input usecase.IssueLinkInput) (*usecase.IssueLinkOutput, error) {
	srv.log(ctx).Debug("Issuing auth link",
		slog.Any("subject_uuid", input.SubjectUUID), slog.String("action", input.Action))

	if !slices.Contains(srv.cfg.Actions, input.Action) {
		return nil, domainerrors.ErrInvalidAction.WithDetails(input.Action)
	}

	if !srv.codec.Ready() {
		return nil, errors.Wrap(domainerrors.ErrKeysNotLoaded, "codec cannot encode")
	}

	// Fast path: the in-memory guard already knows the pair is rate-limited.
	if remaining := srv.guard.Remaining(input.SubjectUUID, input.Action); remaining > 0 {
		return nil, srv.cooldownError(remaining)
	}

	record, result, err := srv.prepareLink(input)
	if err != nil {
		return nil, err
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		recordRepo := repoFactory.AuthRecordRepo()

		// The guard may be cold after a restart; the store's issuance history
		// is authoritative for the cooldown, regardless of record status.
		lastIssued, err := recordRepo.LastIssuedAt(ctx, input.SubjectUUID, input.Action)
		if err != nil {
			return errors.Wrap(err, "failed to load issuance history")
		}
		if lastIssued != nil {
			srv.guard.Hydrate(input.SubjectUUID, input.Action, *lastIssued)
			if remaining := srv.guard.Remaining(input.SubjectUUID, input.Action); remaining > 0 {
				return srv.cooldownError(remaining)
			}
		}

		// Cover the previous link and insert its replacement in one commit so
		// at most one record per pair can ever verify.
		covered, err := recordRepo.SupersedeActive(ctx, input.SubjectUUID, input.Action)
		if err != nil {
			return errors.Wrap(err, "failed to supersede active record")
		}
		if covered != uuid.Nil {
			srv.log(ctx).Debug("Superseded previous link",
				slog.Any("covered_record_id", covered), slog.String("action", input.Action))
		}

		return recordRepo.Create(ctx, record)
	})
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		srv.log(ctx).Error("Failed to store auth link",
			slog.Any("error", err), slog.Any("subject_uuid", input.SubjectUUID))

		return nil, errors.Wrap(domainerrors.ErrStorageFailure, err.Error())
	}

	// Only a committed issuance consumes the subject's window.
	srv.guard.Record(input.SubjectUUID, input.Action)

	if input.WithQRCode {
		png, err := srv.qrcodes.GenerateLinkQR(result.Link)
		if err != nil {
			// The link itself is already valid; degrade instead of failing.
			srv.log(ctx).Warn("Failed to render link QR code", slog.Any("error", err))
		} else {
			result.QRCode = png
		}
	}

	srv.log(ctx).Info("Issued auth link",
		slog.Any("record_id", record.ID),
		slog.Any("subject_uuid", input.SubjectUUID),
		slog.String("action", input.Action),
		slog.Time("expires_at", record.ExpiresAt))

	return &usecase.IssueLinkOutput{Result: result}, nil
}

// prepareLink builds the record and all derived link material before any
// database work, so an encoding failure never touches the store.
func (srv *authLinkService) prepareLink(input usecase.IssueLinkInput) (*entity.AuthRecord, *entity.LinkResult, error) {
	now := time.Now()
	recordID := uuid.New()
	expiresAt := now.Add(time.Duration(srv.cfg.ExpiredTime) * time.Second)

	token, err := srv.tokens.Generate(srv.cfg.TokenLength)
	if err != nil {
		return nil, nil, errors.Wrap(domainerrors.ErrCryptoFailure, err.Error())
	}

	payload := entity.NewLinkPayload(recordID, input.SubjectUUID, input.Action, expiresAt)
	canonical, err := payload.CanonicalJSON()
	if err != nil {
		return nil, nil, errors.Wrap(domainerrors.ErrCryptoFailure, err.Error())
	}

	encoded, err := srv.codec.Encode(canonical, now)
	if err != nil {
		return nil, nil, errors.Wrap(domainerrors.ErrCryptoFailure, err.Error())
	}

	// The hash always binds the plain canonical base64, not the transmitted
	// form, so verifiers check it without knowing which codec carried the data.
	plainBase64 := base64.StdEncoding.EncodeToString(canonical)
	hash := srv.binder.Bind(plainBase64, token)

	record := &entity.AuthRecord{
		ID:          recordID,
		SubjectUUID: input.SubjectUUID,
		Action:      input.Action,
		Token:       token,
		Status:      entity.StatusUnused,
		ExpiresAt:   expiresAt,
	}

	result := &entity.LinkResult{
		RecordID: recordID,
		Token:    token,
		Data:     encoded,
		Hash:     hash,
		Link:     srv.assembleLink(encoded, hash, token),
	}

	return record, result, nil
}

// assembleLink substitutes the link material into the endpoint template. The
// raw token travels in the URL only for the substitution codec; under the
// asymmetric codec it stays server-side and verifiers recover it by record ID.
func (srv *authLinkService) assembleLink(encoded, hash, token string) string {
	link := strings.ReplaceAll(srv.cfg.Endpoint, "{data}", encoded)
	link = strings.ReplaceAll(link, "{hash}", hash)
	if srv.codec.Legacy() {
		link = strings.ReplaceAll(link, "{token}", token)
	} else {
		link = strings.ReplaceAll(link, "{token}", "")
	}

	return link
}

func (srv *authLinkService) cooldownError(remaining time.Duration) error {
	return domainerrors.ErrCooldownActive.WithDetails(
		"retry after " + util.FormatDuration(remaining))
}

// CooldownRemaining reports the wait before the pair may issue again.
func (srv *authLinkService) CooldownRemaining(ctx context.Context, subjectUUID uuid.UUID, action string) (time.Duration, error) {
	if !slices.Contains(srv.cfg.Actions, action) {
		return 0, domainerrors.ErrInvalidAction.WithDetails(action)
	}

	if remaining := srv.guard.Remaining(subjectUUID, action); remaining > 0 {
		return remaining, nil
	}

	var remaining time.Duration
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		lastIssued, err := repoFactory.AuthRecordRepo().LastIssuedAt(ctx, subjectUUID, action)
		if err != nil {
			return errors.Wrap(err, "failed to load issuance history")
		}
		if lastIssued != nil {
			srv.guard.Hydrate(subjectUUID, action, *lastIssued)
			remaining = srv.guard.Remaining(subjectUUID, action)
		}

		return nil
	})
	if err != nil {
		return 0, errors.Wrap(domainerrors.ErrStorageFailure, err.Error())
	}

	return remaining, nil
}
