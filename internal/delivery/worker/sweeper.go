// Package worker contains the background maintenance delivery.
package worker

import (
	"context"
	"log/slog"
	"time"

	"authlinker/config"
	"authlinker/internal/delivery"
	"authlinker/internal/domain/lifecycle"
	"authlinker/internal/usecase"

	"go.uber.org/fx"
)

// sweeper periodically reclaims expired records and elapsed cooldown entries.
// Expiry is enforced at verification time, so the cadence only affects how
// long dead rows linger.
type sweeper struct {
	cfg         *config.Config
	logger      *slog.Logger
	maintenance usecase.MaintenanceUsecase
	stopped     chan struct{}
}

// SweeperParams holds dependencies for the maintenance sweeper, injected by Fx.
type SweeperParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	Maintenance usecase.MaintenanceUsecase
}

// NewSweeper creates the background maintenance worker.
func NewSweeper(params SweeperParams) (delivery.Delivery, error) {
	srv := &sweeper{
		cfg:         params.Cfg,
		logger:      params.Logger,
		maintenance: params.Maintenance,
		stopped:     make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// Serve runs the sweep loop until the context is cancelled or the server stops.
func (s *sweeper) Serve(ctx context.Context) error {
	interval := time.Duration(s.cfg.AuthLink.SweepInterval) * time.Second
	s.logger.Info("Starting maintenance sweeper", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopped:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	// Failures are logged inside the usecase; the next tick retries.
	_, _ = s.maintenance.SweepExpired(sweepCtx)
}

func (s *sweeper) stop(_ context.Context) error {
	s.logger.Info("Shutting down maintenance sweeper")
	close(s.stopped)

	return nil
}
