package services

import (
	"context"
	"sort"
	"strings"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/normalization"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
)

// ExtractionService runs the OCR + LLM pipeline for a single uploaded
// document and hands back canonical-keyed fields for merging.
type ExtractionService struct {
	log *logger.Logger
	ocr *OCRService
	llm LLMClient
}

func NewExtractionService(log *logger.Logger, ocr *OCRService, llm LLMClient) *ExtractionService {
	return &ExtractionService{log: log, ocr: ocr, llm: llm}
}

// ExtractedDocument is the output of a successful extraction pass.
type ExtractedDocument struct {
	Fields   map[string]string
	RawText  string
	Language string
}

func (s *ExtractionService) Extract(ctx context.Context, originalName, mimeType, languageHint string, data []byte) (*ExtractedDocument, error) {
	text, err := s.ocr.ExtractText(ctx, originalName, mimeType, languageHint, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrEmptyDocument
	}

	raw, err := s.llm.ExtractFields(ctx, text, languageHint)
	if err != nil {
		return nil, err
	}

	fields := NormalizeExtractedFields(raw)
	s.log.Info("document extracted",
		"file_name", originalName,
		"text_len", len(text),
		"raw_field_count", len(raw),
		"field_count", len(fields),
	)
	return &ExtractedDocument{Fields: fields, RawText: text, Language: languageHint}, nil
}

// NormalizeExtractedFields maps raw LLM keys onto canonical field keys and
// drops absent values. Raw keys are visited in sorted order so that key
// collisions resolve the same way on every run; when two raw keys collapse
// to one canonical key, a non-absent value wins over an absent one and the
// first non-absent value seen (in sorted raw-key order) is kept.
func NormalizeExtractedFields(raw map[string]string) map[string]string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(raw))
	for _, k := range keys {
		v := strings.TrimSpace(raw[k])
		if normalization.IsAbsent(v) {
			continue
		}
		canon := normalization.SemanticKey(k, "")
		if canon == "" {
			continue
		}
		if _, exists := out[canon]; exists {
			continue
		}
		out[canon] = v
	}
	return out
}
