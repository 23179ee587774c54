package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/repos"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// memoryRecordRepo is an in-memory CanonicalRecordRepo. Reads hand out
// copies so callers cannot mutate the store outside Save, mirroring how
// rows behave.
type memoryRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*types.CanonicalRecord
}

func newMemoryRecordRepo() *memoryRecordRepo {
	return &memoryRecordRepo{records: map[uuid.UUID]*types.CanonicalRecord{}}
}

func cloneRecord(r *types.CanonicalRecord) *types.CanonicalRecord {
	c := *r
	c.Fields = append(datatypes.JSON(nil), r.Fields...)
	c.ProcessedSourceHashes = append(datatypes.JSON(nil), r.ProcessedSourceHashes...)
	return &c
}

func (m *memoryRecordRepo) GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.CanonicalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[entityID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *memoryRecordRepo) GetByEntityIDForUpdate(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.CanonicalRecord, error) {
	return m.GetByEntityID(ctx, tx, entityID)
}

func (m *memoryRecordRepo) EnsureExists(ctx context.Context, tx *gorm.DB, record *types.CanonicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.EntityID]; ok {
		return nil
	}
	seed := cloneRecord(record)
	seed.ID = uuid.New()
	m.records[record.EntityID] = seed
	return nil
}

func (m *memoryRecordRepo) Save(ctx context.Context, tx *gorm.DB, record *types.CanonicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.EntityID] = cloneRecord(record)
	return nil
}

func (m *memoryRecordRepo) DeleteByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, entityID)
	return nil
}

// testRecordService builds a RecordService over repo with a pinned clock.
// A single mutex stands in for the per-entity row lock: transactions run
// one at a time, which is the serialization the lock guarantees.
func testRecordService(t *testing.T, repo repos.CanonicalRecordRepo) *RecordService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc := &RecordService{
		log:        log,
		recordRepo: repo,
		now: func() time.Time {
			return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		},
	}
	var txMu sync.Mutex
	svc.runInTx = func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		txMu.Lock()
		defer txMu.Unlock()
		return fn(nil)
	}
	return svc
}

func TestMergePersistsRecord(t *testing.T) {
	repo := newMemoryRecordRepo()
	svc := testRecordService(t, repo)
	entityID := uuid.New()

	outcome, err := svc.Merge(context.Background(), entityID, "hash-1", map[string]string{
		"full_name":     "Jane Doe",
		"date_of_birth": "1990-06-15",
	}, "en")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != types.RecordStatusMerged {
		t.Errorf("status = %q, want merged", outcome.Status)
	}
	if outcome.FieldCount != 3 {
		t.Errorf("field_count = %d, want 3 (two extracted plus derived age)", outcome.FieldCount)
	}

	record, err := svc.GetRecord(context.Background(), entityID)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := record.FieldMap()
	if err != nil {
		t.Fatal(err)
	}
	if fields["full_name"] != "Jane Doe" || fields["age"] != "34" {
		t.Errorf("fields = %v", fields)
	}
	if !record.HasSourceHash("hash-1") {
		t.Error("source hash not recorded")
	}
	if record.Status != types.RecordStatusMerged {
		t.Errorf("persisted status = %q", record.Status)
	}
	if record.Language != "en" {
		t.Errorf("language = %q", record.Language)
	}
}

func TestMergeDuplicateLeavesRecordUntouched(t *testing.T) {
	repo := newMemoryRecordRepo()
	svc := testRecordService(t, repo)
	entityID := uuid.New()

	if _, err := svc.Merge(context.Background(), entityID, "hash-1", map[string]string{"full_name": "Jane Doe"}, "en"); err != nil {
		t.Fatal(err)
	}

	// Same content hash, conflicting payload: the resubmission must not
	// change anything.
	outcome, err := svc.Merge(context.Background(), entityID, "hash-1", map[string]string{
		"full_name": "Somebody Else",
		"district":  "Mysuru",
	}, "en")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != types.MergeStatusDuplicate {
		t.Errorf("status = %q, want duplicate", outcome.Status)
	}
	if len(outcome.UpdatedFields) != 0 {
		t.Errorf("updated_fields = %v, want none", outcome.UpdatedFields)
	}

	record, err := svc.GetRecord(context.Background(), entityID)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := record.FieldMap()
	if err != nil {
		t.Fatal(err)
	}
	if fields["full_name"] != "Jane Doe" {
		t.Errorf("full_name = %q, duplicate merge mutated the record", fields["full_name"])
	}
	if _, ok := fields["district"]; ok {
		t.Error("district written by a duplicate merge")
	}
	hashes, err := record.SourceHashes()
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 1 {
		t.Errorf("source hashes = %v, want exactly one", hashes)
	}
}

func TestMergeSecondDocumentGapFills(t *testing.T) {
	repo := newMemoryRecordRepo()
	svc := testRecordService(t, repo)
	entityID := uuid.New()

	if _, err := svc.Merge(context.Background(), entityID, "hash-1", map[string]string{"full_name": "Jane Doe"}, "en"); err != nil {
		t.Fatal(err)
	}
	outcome, err := svc.Merge(context.Background(), entityID, "hash-2", map[string]string{
		"full_name": "J. Doe",
		"district":  "Mysuru",
	}, "en")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != types.RecordStatusMerged {
		t.Errorf("status = %q", outcome.Status)
	}

	record, err := svc.GetRecord(context.Background(), entityID)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := record.FieldMap()
	if err != nil {
		t.Fatal(err)
	}
	if fields["full_name"] != "Jane Doe" {
		t.Errorf("full_name = %q, want first write kept", fields["full_name"])
	}
	if fields["district"] != "Mysuru" {
		t.Errorf("district = %q, want gap filled", fields["district"])
	}
	if !record.HasSourceHash("hash-1") || !record.HasSourceHash("hash-2") {
		t.Error("both source hashes should be recorded")
	}
}

func TestMergeConcurrentDisjointDocuments(t *testing.T) {
	repo := newMemoryRecordRepo()
	svc := testRecordService(t, repo)
	entityID := uuid.New()

	const docs = 8
	var wg sync.WaitGroup
	errs := make([]error, docs)
	for i := 0; i < docs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Merge(context.Background(), entityID,
				fmt.Sprintf("hash-%d", i),
				map[string]string{fmt.Sprintf("field_%d", i): fmt.Sprintf("value_%d", i)},
				"en")
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("merge %d: %v", i, err)
		}
	}

	record, err := svc.GetRecord(context.Background(), entityID)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := record.FieldMap()
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != docs {
		t.Errorf("field count = %d, want %d (no lost updates)", len(fields), docs)
	}
	for i := 0; i < docs; i++ {
		if fields[fmt.Sprintf("field_%d", i)] != fmt.Sprintf("value_%d", i) {
			t.Errorf("field_%d = %q", i, fields[fmt.Sprintf("field_%d", i)])
		}
		if !record.HasSourceHash(fmt.Sprintf("hash-%d", i)) {
			t.Errorf("hash-%d missing", i)
		}
	}
}

func TestRecordFailureKeepsFields(t *testing.T) {
	repo := newMemoryRecordRepo()
	svc := testRecordService(t, repo)
	entityID := uuid.New()

	if _, err := svc.Merge(context.Background(), entityID, "hash-1", map[string]string{"full_name": "Jane Doe"}, "en"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordFailure(context.Background(), entityID, "en"); err != nil {
		t.Fatal(err)
	}

	record, err := svc.GetRecord(context.Background(), entityID)
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != types.RecordStatusFailed {
		t.Errorf("status = %q, want failed", record.Status)
	}
	fields, err := record.FieldMap()
	if err != nil {
		t.Fatal(err)
	}
	if fields["full_name"] != "Jane Doe" {
		t.Errorf("full_name = %q, failure must not touch fields", fields["full_name"])
	}
}

func TestRecordFailureCreatesRow(t *testing.T) {
	repo := newMemoryRecordRepo()
	svc := testRecordService(t, repo)
	entityID := uuid.New()

	if err := svc.RecordFailure(context.Background(), entityID, "en"); err != nil {
		t.Fatal(err)
	}
	record, err := svc.GetRecord(context.Background(), entityID)
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != types.RecordStatusFailed {
		t.Errorf("status = %q, want failed", record.Status)
	}
}
