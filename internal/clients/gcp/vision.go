package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
)

// Vision performs OCR on scanned document images. Document-grade text
// detection handles the dense, small print on ID cards better than plain
// text detection.
type Vision interface {
	OCRImageBytes(ctx context.Context, img []byte, languageHint string) (string, error)
	Close() error
}

type visionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
	timeout      time.Duration
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("client", "gcp.Vision")

	ctx := context.Background()
	vClient, err := vision.NewImageAnnotatorClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{
		log:          slog,
		visionClient: vClient,
		timeout:      90 * time.Second,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

func (s *visionService) OCRImageBytes(ctx context.Context, img []byte, languageHint string) (string, error) {
	if len(img) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	if hint := strings.TrimSpace(languageHint); hint != "" {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: []string{hint}}
	}

	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := s.visionClient.BatchAnnotateImages(ctx, br)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		return "", nil
	}
	return collapseWhitespace(fta.Text), nil
}
