package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

type memoryTemplateRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*types.Template
	saveCalls int
}

func newMemoryTemplateRepo() *memoryTemplateRepo {
	return &memoryTemplateRepo{rows: map[uuid.UUID]*types.Template{}}
}

func (m *memoryTemplateRepo) Create(ctx context.Context, tx *gorm.DB, templates []*types.Template) ([]*types.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range templates {
		m.rows[t.ID] = t
	}
	return templates, nil
}

func (m *memoryTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[templateID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (m *memoryTemplateRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.Template{}
	for _, t := range m.rows {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryTemplateRepo) GetByOwnerAndHash(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, contentHash string) (*types.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.OwnerID == ownerID && t.ContentHash == contentHash {
			return t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memoryTemplateRepo) Save(ctx context.Context, tx *gorm.DB, template *types.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.rows[template.ID] = template
	return nil
}

func (m *memoryTemplateRepo) Delete(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, templateID)
	return nil
}

type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) Upload(ctx context.Context, key string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func testTemplateService(t *testing.T, repo *memoryTemplateRepo, storage *memoryStorage) TemplateService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewTemplateService(log, repo, storage)
}

func TestUploadTemplateParsesAndStores(t *testing.T) {
	repo := newMemoryTemplateRepo()
	storage := newMemoryStorage()
	svc := testTemplateService(t, repo, storage)
	ownerID := uuid.New()

	template, err := svc.UploadTemplate(context.Background(), ownerID, "enrollment", "form.html", "en", []byte(sampleFormHTML))
	if err != nil {
		t.Fatal(err)
	}
	if template.Kind != types.TemplateKindHTML {
		t.Errorf("kind = %q", template.Kind)
	}
	schema, err := template.Schema()
	if err != nil {
		t.Fatal(err)
	}
	if len(schema) == 0 {
		t.Fatal("schema not parsed at upload")
	}
	if _, ok := storage.objects[template.StorageKey]; !ok {
		t.Error("template content not stored")
	}
}

func TestUploadTemplateReuploadReparses(t *testing.T) {
	repo := newMemoryTemplateRepo()
	storage := newMemoryStorage()
	svc := testTemplateService(t, repo, storage)
	ownerID := uuid.New()

	first, err := svc.UploadTemplate(context.Background(), ownerID, "enrollment", "form.html", "en", []byte(sampleFormHTML))
	if err != nil {
		t.Fatal(err)
	}

	second, err := svc.UploadTemplate(context.Background(), ownerID, "enrollment v2", "form.html", "hi", []byte(sampleFormHTML))
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-upload created a new row: %s vs %s", second.ID, first.ID)
	}
	if second.Name != "enrollment v2" || second.Language != "hi" {
		t.Errorf("name/language not refreshed: %q %q", second.Name, second.Language)
	}
	schema, err := second.Schema()
	if err != nil {
		t.Fatal(err)
	}
	if len(schema) == 0 {
		t.Error("schema lost on re-upload")
	}
	if repo.saveCalls != 1 {
		t.Errorf("saveCalls = %d, want the refreshed template saved once", repo.saveCalls)
	}

	all, err := svc.ListTemplates(context.Background(), ownerID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("templates = %d, want 1", len(all))
	}
}
