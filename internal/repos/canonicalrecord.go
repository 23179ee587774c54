package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

type CanonicalRecordRepo interface {
	GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.CanonicalRecord, error)
	// GetByEntityIDForUpdate takes the per-entity merge lock: a SELECT ...
	// FOR UPDATE on the record row. Callers must hold an open transaction.
	GetByEntityIDForUpdate(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.CanonicalRecord, error)
	// EnsureExists inserts an empty record row for the entity if none exists
	// yet. The unique constraint on entity_id makes concurrent first merges
	// converge on a single row.
	EnsureExists(ctx context.Context, tx *gorm.DB, record *types.CanonicalRecord) error
	Save(ctx context.Context, tx *gorm.DB, record *types.CanonicalRecord) error
	DeleteByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error
}

type canonicalRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanonicalRecordRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalRecordRepo {
	repoLog := baseLog.With("repo", "CanonicalRecordRepo")
	return &canonicalRecordRepo{db: db, log: repoLog}
}

func (cr *canonicalRecordRepo) GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.CanonicalRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.CanonicalRecord
	err := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *canonicalRecordRepo) GetByEntityIDForUpdate(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.CanonicalRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.CanonicalRecord
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("entity_id = ?", entityID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *canonicalRecordRepo) EnsureExists(ctx context.Context, tx *gorm.DB, record *types.CanonicalRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}},
			DoNothing: true,
		}).
		Create(record).Error
}

func (cr *canonicalRecordRepo) Save(ctx context.Context, tx *gorm.DB, record *types.CanonicalRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Save(record).Error
}

func (cr *canonicalRecordRepo) DeleteByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Delete(&types.CanonicalRecord{}).Error
}
