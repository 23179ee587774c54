package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/repos"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// TemplateService manages uploaded form templates. Templates are parsed
// into their field schema at upload time; uploads are deduplicated per
// owner by content hash.
type TemplateService interface {
	UploadTemplate(ctx context.Context, ownerID uuid.UUID, name, fileName, language string, data []byte) (*types.Template, error)
	GetTemplate(ctx context.Context, ownerID, templateID uuid.UUID) (*types.Template, error)
	ListTemplates(ctx context.Context, ownerID uuid.UUID) ([]*types.Template, error)
	DeleteTemplate(ctx context.Context, ownerID, templateID uuid.UUID) error
	TemplateContent(ctx context.Context, template *types.Template) ([]byte, error)
}

type templateService struct {
	log          *logger.Logger
	templateRepo repos.TemplateRepo
	storage      StorageService
}

func NewTemplateService(log *logger.Logger, templateRepo repos.TemplateRepo, storage StorageService) TemplateService {
	return &templateService{
		log:          log.With("service", "TemplateService"),
		templateRepo: templateRepo,
		storage:      storage,
	}
}

func (ts *templateService) UploadTemplate(ctx context.Context, ownerID uuid.UUID, name, fileName, language string, data []byte) (*types.Template, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty template upload", apperrors.ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fileName
	}
	if language == "" {
		language = "en"
	}

	hash := ContentHash(data)
	if existing, err := ts.templateRepo.GetByOwnerAndHash(ctx, nil, ownerID, hash); err == nil {
		ts.log.Info("template re-upload", "template_id", existing.ID.String(), "content_hash", hash)
		return ts.reparseTemplate(ctx, existing, name, language, data)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	kind, err := DetectTemplateKind(fileName, data)
	if err != nil {
		return nil, err
	}
	schema, err := ParseFieldSchema(kind, data)
	if err != nil {
		return nil, err
	}

	template := &types.Template{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Kind:        kind,
		ContentHash: hash,
		Language:    language,
	}
	template.StorageKey = templateStorageKey(ownerID, template.ID, kind)
	if err := template.SetSchema(schema); err != nil {
		return nil, err
	}

	if err := ts.storage.Upload(ctx, template.StorageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: store template: %v", apperrors.ErrPersistence, err)
	}
	created, err := ts.templateRepo.Create(ctx, nil, []*types.Template{template})
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	ts.log.Info("template uploaded", "template_id", template.ID.String(), "kind", kind, "field_count", len(schema))
	return created[0], nil
}

// reparseTemplate refreshes a re-uploaded template in place: the field
// schema is parsed again from the upload and the caller's name and language
// replace the stored ones. The row and storage key are kept.
func (ts *templateService) reparseTemplate(ctx context.Context, template *types.Template, name, language string, data []byte) (*types.Template, error) {
	schema, err := ParseFieldSchema(template.Kind, data)
	if err != nil {
		return nil, err
	}
	if err := template.SetSchema(schema); err != nil {
		return nil, err
	}
	template.Name = name
	template.Language = language
	if err := ts.templateRepo.Save(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	ts.log.Info("template schema re-parsed", "template_id", template.ID.String(), "field_count", len(schema))
	return template, nil
}

func (ts *templateService) GetTemplate(ctx context.Context, ownerID, templateID uuid.UUID) (*types.Template, error) {
	template, err := ts.templateRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		return nil, err
	}
	if template.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	return template, nil
}

func (ts *templateService) ListTemplates(ctx context.Context, ownerID uuid.UUID) ([]*types.Template, error) {
	return ts.templateRepo.GetByOwner(ctx, nil, ownerID)
}

func (ts *templateService) DeleteTemplate(ctx context.Context, ownerID, templateID uuid.UUID) error {
	template, err := ts.GetTemplate(ctx, ownerID, templateID)
	if err != nil {
		return err
	}
	if err := ts.storage.Delete(ctx, template.StorageKey); err != nil {
		ts.log.Warn("failed to delete stored template content", "template_id", templateID.String(), "error", err)
	}
	return ts.templateRepo.Delete(ctx, nil, templateID)
}

func (ts *templateService) TemplateContent(ctx context.Context, template *types.Template) ([]byte, error) {
	r, err := ts.storage.Download(ctx, template.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: load template content: %v", apperrors.ErrPersistence, err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: read template content: %v", apperrors.ErrPersistence, err)
	}
	return buf.Bytes(), nil
}

func templateStorageKey(ownerID, templateID uuid.UUID, kind string) string {
	ext := ".html"
	if kind == types.TemplateKindPDF {
		ext = ".pdf"
	}
	return fmt.Sprintf("templates/%s/%s%s", ownerID, templateID, ext)
}
