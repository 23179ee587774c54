package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

type EntityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entities []*types.Entity) ([]*types.Entity, error)
	GetByID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.Entity, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Entity, error)
	Update(ctx context.Context, tx *gorm.DB, entity *types.Entity) (*types.Entity, error)
	Delete(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	repoLog := baseLog.With("repo", "EntityRepo")
	return &entityRepo{db: db, log: repoLog}
}

func (er *entityRepo) Create(ctx context.Context, tx *gorm.DB, entities []*types.Entity) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(entities) == 0 {
		return []*types.Entity{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (er *entityRepo) GetByID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var result types.Entity
	err := transaction.WithContext(ctx).
		Where("id = ?", entityID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (er *entityRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.Entity
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *entityRepo) Update(ctx context.Context, tx *gorm.DB, entity *types.Entity) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if err := transaction.WithContext(ctx).Save(entity).Error; err != nil {
		return nil, err
	}
	return entity, nil
}

func (er *entityRepo) Delete(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", entityID).
		Delete(&types.Entity{}).Error
}
