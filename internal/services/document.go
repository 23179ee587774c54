package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// DocumentService runs the full ingest path for one uploaded document:
// ownership check, content hashing, raw file storage, extraction and merge
// into the entity's canonical record.
type DocumentService struct {
	log        *logger.Logger
	entities   EntityService
	extraction *ExtractionService
	records    *RecordService
	storage    StorageService
}

func NewDocumentService(log *logger.Logger, entities EntityService, extraction *ExtractionService, records *RecordService, storage StorageService) *DocumentService {
	return &DocumentService{
		log:        log.With("service", "DocumentService"),
		entities:   entities,
		extraction: extraction,
		records:    records,
		storage:    storage,
	}
}

// ContentHash is the merge idempotence key for an uploaded document.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IngestDocument processes one upload for an entity. Resubmitting identical
// content returns a duplicate outcome without touching the record. Failed
// extractions mark the record failed and surface the error; the record's
// fields stay unchanged.
func (ds *DocumentService) IngestDocument(ctx context.Context, ownerID, entityID uuid.UUID, fileName, mimeType, language string, data []byte) (*MergeOutcome, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", apperrors.ErrInvalidArgument)
	}
	if language == "" {
		language = "en"
	}

	if _, err := ds.entities.GetEntity(ctx, ownerID, entityID); err != nil {
		return nil, err
	}

	hash := ContentHash(data)

	// short-circuit before paying for OCR/LLM on a resubmit
	if record, err := ds.records.GetRecord(ctx, entityID); err == nil && record.HasSourceHash(hash) {
		ds.log.Info("duplicate document upload", "entity_id", entityID.String(), "content_hash", hash)
		fields, ferr := record.FieldMap()
		if ferr != nil {
			return nil, ferr
		}
		return &MergeOutcome{Status: types.MergeStatusDuplicate, UpdatedFields: []string{}, FieldCount: len(fields), Record: record}, nil
	}

	key := documentStorageKey(ownerID, entityID, hash, fileName)
	if err := ds.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: store document: %v", apperrors.ErrPersistence, err)
	}

	extracted, err := ds.extraction.Extract(ctx, fileName, mimeType, language, data)
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmptyDocument) {
			err = fmt.Errorf("%w: %v", apperrors.ErrExtraction, err)
		}
		if rfErr := ds.records.RecordFailure(ctx, entityID, language); rfErr != nil {
			ds.log.Error("failed to record extraction failure", "entity_id", entityID.String(), "error", rfErr)
		}
		return nil, err
	}

	return ds.records.Merge(ctx, entityID, hash, extracted.Fields, language)
}

func documentStorageKey(ownerID, entityID uuid.UUID, hash, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("documents/%s/%s/%s%s", ownerID, entityID, hash, ext)
}
