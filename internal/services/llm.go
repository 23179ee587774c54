package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
)

// LLMClient is the field-extraction/mapping collaborator. Both operations
// demand strictly flat string->string JSON; anything else the model returns
// is dropped at this boundary, never propagated into canonical data.
type LLMClient interface {
	// ExtractFields pulls labeled field data out of raw document text.
	ExtractFields(ctx context.Context, documentText, languageCode string) (map[string]string, error)
	// MapFields asks the model to resolve template fields against canonical
	// entity data, translating values into the target language when needed.
	MapFields(ctx context.Context, fieldSchemaJSON, canonicalFieldsJSON, targetLanguage string) (map[string]string, error)
}

type llmClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewLLMClient(log *logger.Logger) (LLMClient, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing LLM_API_KEY")
	}

	baseURL := os.Getenv("LLM_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeoutSec := 120
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &llmClient{
		log:        log.With("service", "LLMClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type llmHTTPError struct {
	StatusCode int
	Body       string
}

func (e *llmHTTPError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *llmHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*(2*delta)
	return time.Duration(v * float64(time.Second))
}

func (c *llmClient) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &llmHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *llmClient) do(ctx context.Context, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("llm decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}
		if !isRetryableErr(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("LLM request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *llmClient) generateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
		Temperature:    0.2,
	}

	var resp chatResponse
	if err := c.do(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in llm response", apperrors.ErrExtraction)
	}
	if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", apperrors.ErrExtraction, refusal)
	}

	jsonText := strings.TrimSpace(resp.Choices[0].Message.Content)
	if jsonText == "" {
		return nil, fmt.Errorf("%w: empty llm response", apperrors.ErrExtraction)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("%w: failed to parse model JSON: %v", apperrors.ErrExtraction, err)
	}
	return obj, nil
}

// flattenStringMap projects only (string, string) entries out of an untyped
// model response. Nested objects, arrays and non-string scalars violate the
// flatness contract and are dropped with a warning.
func (c *llmClient) flattenStringMap(obj map[string]any, op string) map[string]string {
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			c.log.Warn("Dropping non-flat entry from LLM response", "op", op, "key", k)
			continue
		}
		out[k] = s
	}
	return out
}

const extractSystemPrompt = `You extract structured data from scanned government and identity documents.
Return a single flat JSON object mapping descriptive snake_case field names to string values found in the text.
Use the document's own field labels where present. Do not invent values; omit fields that are not in the text.
No nested objects, no arrays, no nulls.`

func (c *llmClient) ExtractFields(ctx context.Context, documentText, languageCode string) (map[string]string, error) {
	user := fmt.Sprintf("Document language: %s\n\nDocument text:\n%s", languageCode, documentText)
	obj, err := c.generateJSON(ctx, extractSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	return c.flattenStringMap(obj, "extract_fields"), nil
}

const mapSystemPrompt = `You fill form templates from a person's canonical data.
Given form field definitions and the person's known data, return a flat JSON object mapping form field names to string values.
Translate values into the target language when it differs from the data language.
Only use values present in the canonical data; leave out any field you cannot fill from it. Never guess.
No nested objects, no arrays, no nulls.`

func (c *llmClient) MapFields(ctx context.Context, fieldSchemaJSON, canonicalFieldsJSON, targetLanguage string) (map[string]string, error) {
	user := fmt.Sprintf("Target language: %s\n\nForm fields:\n%s\n\nCanonical data:\n%s",
		targetLanguage, fieldSchemaJSON, canonicalFieldsJSON)
	obj, err := c.generateJSON(ctx, mapSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	return c.flattenStringMap(obj, "map_fields"), nil
}
