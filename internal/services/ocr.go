package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/clients/gcp"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
)

// OCRService turns an uploaded document into plain text. Strategy, in order:
//  1. embedded text (PDF text layer, HTML, plaintext) when present,
//  2. Document AI for scanned PDFs,
//  3. Vision document text detection for images.
type OCRService struct {
	log      *logger.Logger
	vision   gcp.Vision
	document gcp.Document
}

func NewOCRService(log *logger.Logger, vision gcp.Vision, document gcp.Document) *OCRService {
	return &OCRService{log: log, vision: vision, document: document}
}

// minEmbeddedTextLen is the threshold below which an extracted PDF text layer
// is treated as junk (scanned PDFs often carry a few stray glyphs).
const minEmbeddedTextLen = 32

func (s *OCRService) ExtractText(ctx context.Context, originalName, mimeType, languageHint string, data []byte) (string, error) {
	embedded, err := EmbeddedText(originalName, mimeType, data)
	if err == nil && len(strings.TrimSpace(embedded)) >= minEmbeddedTextLen {
		s.log.Debug("using embedded document text", "file_name", originalName, "text_len", len(embedded))
		return embedded, nil
	}
	if err != nil && !isPDF(data) && !isImage(data) {
		return "", err
	}

	if isPDF(data) {
		if s.document == nil {
			// fall back to whatever text layer we got
			return embedded, nil
		}
		text, derr := s.document.ProcessBytes(ctx, data, "application/pdf")
		if derr != nil {
			s.log.Warn("document ai failed, falling back to embedded text", "file_name", originalName, "error", derr)
			if embedded != "" {
				return embedded, nil
			}
			return "", fmt.Errorf("document ai: %w", derr)
		}
		return text, nil
	}

	if isImage(data) {
		if s.vision == nil {
			return "", fmt.Errorf("no ocr backend configured for image: name=%s", originalName)
		}
		text, verr := s.vision.OCRImageBytes(ctx, data, languageHint)
		if verr != nil {
			return "", fmt.Errorf("vision ocr: %w", verr)
		}
		return text, nil
	}

	return embedded, nil
}
