package impl

import (
	"context"
	"log/slog"

	domainerrors "authlinker/internal/domain/errors"
	"authlinker/internal/domain/repository"
	"authlinker/internal/domain/service"
	"authlinker/internal/usecase"

	"github.com/pkg/errors"
)

// maintenanceService implements the MaintenanceUsecase interface.
type maintenanceService struct {
	txManager repository.TransactionManager
	guard     service.CooldownGuard
	logger    *slog.Logger
}

// NewMaintenanceService is the constructor for maintenanceService.
func NewMaintenanceService(
	txManager repository.TransactionManager,
	guard service.CooldownGuard,
	logger *slog.Logger,
) usecase.MaintenanceUsecase {
	return &maintenanceService{
		txManager: txManager,
		guard:     guard,
		logger:    logger,
	}
}

// SweepExpired reclaims expired records and elapsed cooldown entries. Expiry
// is enforced at verification time, so the sweep is pure housekeeping and can
// run at any cadence.
func (srv *maintenanceService) SweepExpired(ctx context.Context) (*usecase.SweepOutput, error) {
	var removed int64
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		removed, err = repoFactory.AuthRecordRepo().DeleteExpired(ctx)

		return err
	})
	if err != nil {
		srv.logger.Error("Failed to sweep expired records", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrStorageFailure, err.Error())
	}

	evicted := srv.guard.Cleanup()

	if removed > 0 || evicted > 0 {
		srv.logger.Debug("Swept expired state",
			slog.Int64("records_removed", removed), slog.Int("cooldowns_evicted", evicted))
	}

	return &usecase.SweepOutput{
		RecordsRemoved:   removed,
		CooldownsEvicted: evicted,
	}, nil
}
