package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, templates []*types.Template) ([]*types.Template, error)
	GetByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.Template, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Template, error)
	GetByOwnerAndHash(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, contentHash string) (*types.Template, error)
	Save(ctx context.Context, tx *gorm.DB, template *types.Template) error
	Delete(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (tr *templateRepo) Create(ctx context.Context, tx *gorm.DB, templates []*types.Template) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(templates) == 0 {
		return []*types.Template{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (tr *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var result types.Template
	err := transaction.WithContext(ctx).
		Where("id = ?", templateID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *templateRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Template
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *templateRepo) GetByOwnerAndHash(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, contentHash string) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var result types.Template
	err := transaction.WithContext(ctx).
		Where("owner_id = ? AND content_hash = ?", ownerID, contentHash).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *templateRepo) Save(ctx context.Context, tx *gorm.DB, template *types.Template) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).Save(template).Error
}

func (tr *templateRepo) Delete(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", templateID).
		Delete(&types.Template{}).Error
}
