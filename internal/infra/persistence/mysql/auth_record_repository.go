// Package mysql contains the concrete implementation of the persistence layer using GORM and MySQL.
package mysql

import (
	"context"
	"time"

	"authlinker/internal/domain/entity"
	domainerrors "authlinker/internal/domain/errors"
	"authlinker/internal/domain/repository"
	"authlinker/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// authRecordRepository implements the domain.AuthRecordRepository interface.
type authRecordRepository struct {
	db    *gorm.DB
	table string
}

// NewAuthRecordRepository is the constructor for authRecordRepository.
// tableName overrides the default table; pass "" to keep it.
func NewAuthRecordRepository(db *gorm.DB, tableName string) repository.AuthRecordRepository {
	if tableName == "" {
		tableName = model.AuthRecordModel{}.TableName()
	}

	return &authRecordRepository{
		db:    db,
		table: tableName,
	}
}

// records starts a query against the configured records table.
func (repo *authRecordRepository) records(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).Table(repo.table)
}

// Create persists a new record in the unused status.
func (repo *authRecordRepository) Create(ctx context.Context, record *entity.AuthRecord) error {
	recordM := fromAuthRecordDomain(record)
	if recordM.Status == "" {
		recordM.Status = entity.StatusUnused
	}

	if err := repo.records(ctx).Create(recordM).Error; err != nil {
		// Convert MySQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrStorageFailure.WrapMessage("record id already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrStorageFailure.WrapMessage("missing required record fields")
		}

		return errors.WithStack(err)
	}

	// Update the entity with generated values
	record.Status = recordM.Status
	record.CreatedAt = recordM.CreatedAt
	record.UpdatedAt = recordM.UpdatedAt

	return nil
}

// SupersedeActive covers the currently active record for the subject/action
// pair so at most one link per pair can verify. Returns the covered record's
// ID, or uuid.Nil when the pair had no active record. Callers run this inside
// txManager.Execute together with the Create that replaces it.
func (repo *authRecordRepository) SupersedeActive(ctx context.Context, subjectID uuid.UUID, action string) (uuid.UUID, error) {
	now := time.Now()

	var recordM model.AuthRecordModel
	err := repo.records(ctx).
		Where("subject_uuid = ? AND action = ? AND status = ? AND expires_at > ?",
			subjectID, action, entity.StatusUnused, now).
		Order("created_at DESC").
		First(&recordM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil
		}

		return uuid.Nil, errors.WithStack(err)
	}

	// Claim by pair rather than by ID so a stray second active record cannot
	// survive the supersession.
	result := repo.records(ctx).
		Where("subject_uuid = ? AND action = ? AND status = ?",
			subjectID, action, entity.StatusUnused).
		Updates(map[string]any{
			"status":     entity.StatusCovered,
			"is_used":    true,
			"updated_at": now,
		})
	if result.Error != nil {
		return uuid.Nil, errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		// A concurrent verification or issuance claimed the record first.
		return uuid.Nil, nil
	}

	return recordM.ID, nil
}

// MarkUsed transitions a record from unused to used, exactly once. The status
// guard in the WHERE clause makes a retried verification fail instead of
// succeeding twice.
func (repo *authRecordRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	now := time.Now()

	result := repo.records(ctx).
		Where("id = ? AND status = ? AND is_used = ? AND expires_at > ?",
			id, entity.StatusUnused, false, now).
		Updates(map[string]any{
			"status":     entity.StatusUsed,
			"is_used":    true,
			"updated_at": now,
		})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		// Distinguish an absent record from one that is no longer pending.
		var count int64
		if err := repo.records(ctx).Where("id = ?", id).Count(&count).Error; err != nil {
			return errors.WithStack(err)
		}
		if count == 0 {
			return repository.ErrRecordNotFound
		}

		return repository.ErrRecordNotPending
	}

	return nil
}

// FindByID retrieves a record by its unique ID regardless of status.
func (repo *authRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AuthRecord, error) {
	var recordM model.AuthRecordModel
	err := repo.records(ctx).
		Where("id = ?", id).
		First(&recordM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRecordNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAuthRecordDomain(&recordM), nil
}

// IsValid reports whether a record with the given id and token is still
// pending and unexpired.
func (repo *authRecordRepository) IsValid(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	var count int64
	err := repo.records(ctx).
		Where("id = ? AND token = ? AND status = ? AND is_used = ? AND expires_at > ?",
			id, token, entity.StatusUnused, false, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, errors.WithStack(err)
	}

	return count > 0, nil
}

// LastIssuedAt returns the most recent creation time for the pair, or nil
// when the pair has no issuance history.
func (repo *authRecordRepository) LastIssuedAt(ctx context.Context, subjectID uuid.UUID, action string) (*time.Time, error) {
	var recordM model.AuthRecordModel
	err := repo.records(ctx).
		Where("subject_uuid = ? AND action = ?", subjectID, action).
		Order("created_at DESC").
		First(&recordM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.WithStack(err)
	}

	issuedAt := recordM.CreatedAt

	return &issuedAt, nil
}

// DeleteExpired removes all records whose deadline has passed.
func (repo *authRecordRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := repo.records(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.AuthRecordModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toAuthRecordDomain converts a GORM AuthRecordModel to a domain AuthRecord entity.
func toAuthRecordDomain(data *model.AuthRecordModel) *entity.AuthRecord {
	if data == nil {
		return nil
	}

	return &entity.AuthRecord{
		ID:          data.ID,
		SubjectUUID: data.SubjectUUID,
		Action:      data.Action,
		Token:       data.Token,
		Status:      data.Status,
		IsUsed:      data.IsUsed,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
		ExpiresAt:   data.ExpiresAt,
	}
}

// fromAuthRecordDomain converts a domain AuthRecord entity to a GORM AuthRecordModel.
func fromAuthRecordDomain(data *entity.AuthRecord) *model.AuthRecordModel {
	if data == nil {
		return nil
	}

	return &model.AuthRecordModel{
		ID:          data.ID,
		SubjectUUID: data.SubjectUUID,
		Action:      data.Action,
		Token:       data.Token,
		Status:      data.Status,
		IsUsed:      data.IsUsed,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
		ExpiresAt:   data.ExpiresAt,
	}
}
