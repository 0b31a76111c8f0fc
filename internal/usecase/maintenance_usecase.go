package usecase

import "context"

// SweepOutput reports what a maintenance sweep reclaimed.
type SweepOutput struct {
	// RecordsRemoved is the number of expired rows deleted from the store.
	RecordsRemoved int64
	// CooldownsEvicted is the number of elapsed cooldown entries dropped.
	CooldownsEvicted int
}

// MaintenanceUsecase defines the periodic cleanup operations run by the
// background worker.
type MaintenanceUsecase interface {
	SweepExpired(ctx context.Context) (*SweepOutput, error)
}
