package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// FillService orchestrates a form fill: template schema + entity canonical
// record -> resolved values -> rendered output artifact. Fills are
// idempotent; the output key is derived from (template, entity) and a
// repeat fill overwrites the previous artifact.
type FillService struct {
	log       *logger.Logger
	templates TemplateService
	entities  EntityService
	records   *RecordService
	mapper    *MapperService
	storage   StorageService
}

func NewFillService(log *logger.Logger, templates TemplateService, entities EntityService, records *RecordService, mapper *MapperService, storage StorageService) *FillService {
	return &FillService{
		log:       log.With("service", "FillService"),
		templates: templates,
		entities:  entities,
		records:   records,
		mapper:    mapper,
		storage:   storage,
	}
}

// FillResult is returned to the caller alongside the stored output.
type FillResult struct {
	OutputKey      string            `json:"output_key"`
	Kind           string            `json:"kind"`
	ResolvedValues map[string]string `json:"resolved_values"`
	Warnings       []string          `json:"warnings"`
	Report         *ValidationReport `json:"validation_report"`
	Content        []byte            `json:"-"`
}

func (fs *FillService) FillTemplate(ctx context.Context, ownerID, templateID, entityID uuid.UUID, targetLanguage string) (*FillResult, error) {
	template, err := fs.templates.GetTemplate(ctx, ownerID, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := fs.entities.GetEntity(ctx, ownerID, entityID); err != nil {
		return nil, err
	}

	record, err := fs.records.GetRecord(ctx, entityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no document data merged for entity yet", apperrors.ErrNotFound)
		}
		return nil, err
	}
	canonical, err := record.FieldMap()
	if err != nil {
		return nil, err
	}

	schema, err := template.Schema()
	if err != nil {
		return nil, err
	}
	if targetLanguage == "" {
		targetLanguage = template.Language
	}

	resolved, warnings, err := fs.mapper.Resolve(ctx, schema, canonical, record.Language, targetLanguage)
	if err != nil {
		return nil, err
	}

	cleaned, report := CleanResolvedValues(resolved)

	content, err := fs.templates.TemplateContent(ctx, template)
	if err != nil {
		return nil, err
	}
	output, err := RenderTemplate(template.Kind, content, cleaned)
	if err != nil {
		return nil, err
	}

	outputKey := outputStorageKey(ownerID, templateID, entityID, template.Kind)
	if err := fs.storage.Upload(ctx, outputKey, bytes.NewReader(output)); err != nil {
		return nil, fmt.Errorf("%w: store filled output: %v", apperrors.ErrPersistence, err)
	}

	resolvedCount := 0
	for _, v := range cleaned {
		if v != "" {
			resolvedCount++
		}
	}
	fs.log.Info("template filled",
		"template_id", templateID.String(),
		"entity_id", entityID.String(),
		"field_count", len(schema),
		"resolved_count", resolvedCount,
		"warning_count", len(warnings),
	)

	return &FillResult{
		OutputKey:      outputKey,
		Kind:           template.Kind,
		ResolvedValues: cleaned,
		Warnings:       warnings,
		Report:         report,
		Content:        output,
	}, nil
}

func outputStorageKey(ownerID, templateID, entityID uuid.UUID, kind string) string {
	ext := ".html"
	if kind == types.TemplateKindPDF {
		ext = ".pdf"
	}
	return fmt.Sprintf("outputs/%s/%s_%s%s", ownerID, templateID, entityID, ext)
}
