package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/repos"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// EntityService manages the people/subjects whose documents are processed.
type EntityService interface {
	CreateEntity(ctx context.Context, ownerID uuid.UUID, displayName string, metadata []byte) (*types.Entity, error)
	GetEntity(ctx context.Context, ownerID, entityID uuid.UUID) (*types.Entity, error)
	ListEntities(ctx context.Context, ownerID uuid.UUID) ([]*types.Entity, error)
	UpdateEntity(ctx context.Context, ownerID, entityID uuid.UUID, displayName string, metadata []byte) (*types.Entity, error)
	DeleteEntity(ctx context.Context, ownerID, entityID uuid.UUID) error
}

type entityService struct {
	db         *gorm.DB
	log        *logger.Logger
	entityRepo repos.EntityRepo
	recordRepo repos.CanonicalRecordRepo
}

func NewEntityService(db *gorm.DB, log *logger.Logger, entityRepo repos.EntityRepo, recordRepo repos.CanonicalRecordRepo) EntityService {
	serviceLog := log.With("service", "EntityService")
	return &entityService{db: db, log: serviceLog, entityRepo: entityRepo, recordRepo: recordRepo}
}

func (es *entityService) CreateEntity(ctx context.Context, ownerID uuid.UUID, displayName string, metadata []byte) (*types.Entity, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display_name is required", apperrors.ErrInvalidArgument)
	}
	entity := &types.Entity{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		DisplayName: displayName,
	}
	if len(metadata) > 0 {
		entity.Metadata = metadata
	}
	created, err := es.entityRepo.Create(ctx, nil, []*types.Entity{entity})
	if err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}
	return created[0], nil
}

// GetEntity loads an entity and enforces ownership: callers only ever see
// their own entities, a missing and a foreign entity are indistinguishable.
func (es *entityService) GetEntity(ctx context.Context, ownerID, entityID uuid.UUID) (*types.Entity, error) {
	entity, err := es.entityRepo.GetByID(ctx, nil, entityID)
	if err != nil {
		return nil, err
	}
	if entity.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	return entity, nil
}

func (es *entityService) ListEntities(ctx context.Context, ownerID uuid.UUID) ([]*types.Entity, error) {
	return es.entityRepo.GetByOwner(ctx, nil, ownerID)
}

func (es *entityService) UpdateEntity(ctx context.Context, ownerID, entityID uuid.UUID, displayName string, metadata []byte) (*types.Entity, error) {
	entity, err := es.GetEntity(ctx, ownerID, entityID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(displayName); name != "" {
		entity.DisplayName = name
	}
	if len(metadata) > 0 {
		entity.Metadata = metadata
	}
	return es.entityRepo.Update(ctx, nil, entity)
}

func (es *entityService) DeleteEntity(ctx context.Context, ownerID, entityID uuid.UUID) error {
	if _, err := es.GetEntity(ctx, ownerID, entityID); err != nil {
		return err
	}
	return es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := es.recordRepo.DeleteByEntityID(ctx, tx, entityID); err != nil {
			return fmt.Errorf("failed to delete canonical record: %w", err)
		}
		if err := es.entityRepo.Delete(ctx, tx, entityID); err != nil {
			return fmt.Errorf("failed to delete entity: %w", err)
		}
		return nil
	})
}
