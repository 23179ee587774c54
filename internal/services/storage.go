package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/clients/gcp"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/utils"
)

// StorageService persists uploaded documents, templates and filled outputs.
// Backed by a GCS bucket when DOCUMENT_GCS_BUCKET_NAME is set, otherwise by
// a local directory so the service runs without cloud credentials.
type StorageService interface {
	Upload(ctx context.Context, key string, content io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageService picks the backend from the environment.
func NewStorageService(log *logger.Logger) (StorageService, error) {
	serviceLog := log.With("service", "StorageService")

	bucketName := os.Getenv("DOCUMENT_GCS_BUCKET_NAME")
	if bucketName == "" {
		dir := utils.GetEnv("DOCUMENT_STORAGE_DIR", "./data/storage", serviceLog)
		serviceLog.Info("no gcs bucket configured, using local storage", "dir", dir)
		return newLocalStorage(serviceLog, dir)
	}

	opts := gcp.ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &bucketStorage{log: serviceLog, client: client, bucket: bucketName}, nil
}

type bucketStorage struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func (bs *bucketStorage) Upload(ctx context.Context, key string, content io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := bs.client.Bucket(bs.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %s: %w", key, err)
	}
	return r, nil
}

func (bs *bucketStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := bs.client.Bucket(bs.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %s: %w", key, err)
	}
	return nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(key))) {
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}

type localStorage struct {
	log *logger.Logger
	dir string
}

func newLocalStorage(log *logger.Logger, dir string) (StorageService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &localStorage{log: log, dir: dir}, nil
}

// resolvePath keeps keys inside the storage root.
func (ls *localStorage) resolvePath(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("empty storage key")
	}
	return filepath.Join(ls.dir, clean), nil
}

func (ls *localStorage) Upload(ctx context.Context, key string, content io.Reader) error {
	path, err := ls.resolvePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (ls *localStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := ls.resolvePath(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (ls *localStorage) Delete(ctx context.Context, key string) error {
	path, err := ls.resolvePath(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
