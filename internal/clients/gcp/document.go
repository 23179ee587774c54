package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
)

// Document OCRs scanned PDFs through a Document AI OCR processor. The
// synchronous ProcessDocument path covers the small single-subject documents
// this system ingests (ID cards, certificates).
type Document interface {
	ProcessBytes(ctx context.Context, data []byte, mimeType string) (string, error)
	Close() error
}

type documentService struct {
	log       *logger.Logger
	docClient *documentai.DocumentProcessorClient

	projectID    string
	location     string
	processorID  string
	processorVer string
	timeout      time.Duration
}

func NewDocument(log *logger.Logger) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("client", "gcp.Document")

	projectID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID"))
	processorID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if projectID == "" || processorID == "" {
		return nil, fmt.Errorf("missing DOCUMENTAI_PROJECT_ID or DOCUMENTAI_PROCESSOR_ID")
	}
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	ctx := context.Background()
	docOpts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(ctx, docOpts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog.Info("Document AI initialized", "endpoint", endpoint)

	return &documentService{
		log:          slog,
		docClient:    c,
		projectID:    projectID,
		location:     location,
		processorID:  processorID,
		processorVer: strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_VERSION")),
		timeout:      120 * time.Second,
	}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

func (s *documentService) processorName() string {
	if s.processorVer != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			s.projectID, s.location, s.processorID, s.processorVer)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		s.projectID, s.location, s.processorID)
}

func (s *documentService) ProcessBytes(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	req := &documentaipb.ProcessRequest{
		Name: s.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := s.docClient.ProcessDocument(ctx, req)
	if err != nil {
		return "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	doc := resp.GetDocument()
	if doc == nil {
		return "", nil
	}
	return collapseWhitespace(doc.GetText()), nil
}
