package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/normalization"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/repos"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// RecordService owns the canonical per-entity record and every mutation of
// it. All merges for one entity serialize on a row lock taken inside a
// transaction; merges for different entities proceed independently.
type RecordService struct {
	log        *logger.Logger
	recordRepo repos.CanonicalRecordRepo

	// now is swappable so tests can pin the clock for age derivation.
	now func() time.Time
	// runInTx wraps a mutation in a database transaction; tests swap it to
	// run against an in-memory repo.
	runInTx func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewRecordService(log *logger.Logger, db *gorm.DB, recordRepo repos.CanonicalRecordRepo) *RecordService {
	return &RecordService{
		log:        log,
		recordRepo: recordRepo,
		now:        time.Now,
		runInTx: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
	}
}

// MergeOutcome reports what a merge call did. Status is one of the record
// statuses, or "duplicate" when the source document had already been merged.
type MergeOutcome struct {
	Status        string                 `json:"status"`
	UpdatedFields []string               `json:"updated_fields"`
	FieldCount    int                    `json:"field_count"`
	Record        *types.CanonicalRecord `json:"-"`
}

// Merge folds one document's extracted fields into the entity's canonical
// record. Idempotent per sourceHash: resubmitting an already-merged document
// returns a duplicate outcome and leaves the record untouched.
func (s *RecordService) Merge(ctx context.Context, entityID uuid.UUID, sourceHash string, extracted map[string]string, language string) (*MergeOutcome, error) {
	// Cheap pre-check outside the lock. The authoritative check repeats
	// under the lock below; this one just skips the transaction for the
	// common resubmit case.
	if existing, err := s.recordRepo.GetByEntityID(ctx, nil, entityID); err == nil && existing.HasSourceHash(sourceHash) {
		return s.duplicateOutcome(existing)
	}

	var outcome *MergeOutcome
	err := s.runInTx(ctx, func(tx *gorm.DB) error {
		seed := &types.CanonicalRecord{EntityID: entityID, Language: language, Status: types.RecordStatusPending}
		if err := seed.SetFieldMap(map[string]string{}); err != nil {
			return err
		}
		if err := seed.SetSourceHashes([]string{}); err != nil {
			return err
		}
		if err := s.recordRepo.EnsureExists(ctx, tx, seed); err != nil {
			return fmt.Errorf("ensure record: %w", err)
		}

		record, err := s.recordRepo.GetByEntityIDForUpdate(ctx, tx, entityID)
		if err != nil {
			return fmt.Errorf("lock record: %w", err)
		}

		if record.HasSourceHash(sourceHash) {
			dup, derr := s.duplicateOutcome(record)
			if derr != nil {
				return derr
			}
			outcome = dup
			return nil
		}

		fields, err := record.FieldMap()
		if err != nil {
			return fmt.Errorf("decode fields: %w", err)
		}

		merged, updated := MergeFields(fields, extracted)
		if key, ok := DeriveAge(merged, s.now()); ok {
			updated = append(updated, key)
		}

		hashes, err := record.SourceHashes()
		if err != nil {
			return fmt.Errorf("decode source hashes: %w", err)
		}
		hashes = append(hashes, sourceHash)

		if err := record.SetFieldMap(merged); err != nil {
			return err
		}
		if err := record.SetSourceHashes(hashes); err != nil {
			return err
		}
		record.Status = types.RecordStatusMerged
		if record.Language == "" {
			record.Language = language
		}
		if err := s.recordRepo.Save(ctx, tx, record); err != nil {
			return fmt.Errorf("save record: %w", err)
		}

		outcome = &MergeOutcome{
			Status:        types.RecordStatusMerged,
			UpdatedFields: updated,
			FieldCount:    len(merged),
			Record:        record,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	s.log.Info("document merged into canonical record",
		"entity_id", entityID.String(),
		"status", outcome.Status,
		"updated_field_count", len(outcome.UpdatedFields),
		"field_count", outcome.FieldCount,
	)
	return outcome, nil
}

// RecordFailure marks the entity's record as failed after an extraction
// error. Fields and source hashes are left untouched; a record row is
// created if none exists yet so the failure is visible.
func (s *RecordService) RecordFailure(ctx context.Context, entityID uuid.UUID, language string) error {
	err := s.runInTx(ctx, func(tx *gorm.DB) error {
		seed := &types.CanonicalRecord{EntityID: entityID, Language: language, Status: types.RecordStatusPending}
		if err := seed.SetFieldMap(map[string]string{}); err != nil {
			return err
		}
		if err := seed.SetSourceHashes([]string{}); err != nil {
			return err
		}
		if err := s.recordRepo.EnsureExists(ctx, tx, seed); err != nil {
			return err
		}
		record, err := s.recordRepo.GetByEntityIDForUpdate(ctx, tx, entityID)
		if err != nil {
			return err
		}
		record.Status = types.RecordStatusFailed
		return s.recordRepo.Save(ctx, tx, record)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// GetRecord returns the entity's canonical record, or ErrNotFound when no
// document has been processed for it yet.
func (s *RecordService) GetRecord(ctx context.Context, entityID uuid.UUID) (*types.CanonicalRecord, error) {
	return s.recordRepo.GetByEntityID(ctx, nil, entityID)
}

// DeleteRecord removes the entity's canonical record (entity deletion path).
func (s *RecordService) DeleteRecord(ctx context.Context, entityID uuid.UUID) error {
	return s.recordRepo.DeleteByEntityID(ctx, nil, entityID)
}

func (s *RecordService) duplicateOutcome(record *types.CanonicalRecord) (*MergeOutcome, error) {
	fields, err := record.FieldMap()
	if err != nil {
		return nil, err
	}
	return &MergeOutcome{
		Status:        types.MergeStatusDuplicate,
		UpdatedFields: []string{},
		FieldCount:    len(fields),
		Record:        record,
	}, nil
}

// MergeFields folds extracted into existing under first-write-wins per
// field: a key already present with a non-absent value is never
// overwritten; absent sentinel values never enter the record. Returns the
// merged map and the keys that were written, in sorted order.
func MergeFields(existing map[string]string, extracted map[string]string) (map[string]string, []string) {
	merged := make(map[string]string, len(existing)+len(extracted))
	for k, v := range existing {
		merged[k] = v
	}

	keys := make([]string, 0, len(extracted))
	for k := range extracted {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updated := []string{}
	for _, k := range keys {
		v := strings.TrimSpace(extracted[k])
		if normalization.IsAbsent(v) {
			continue
		}
		if cur, ok := merged[k]; ok && !normalization.IsAbsent(cur) {
			continue
		}
		merged[k] = v
		updated = append(updated, k)
	}
	return merged, updated
}

// dobLayouts are tried in order when parsing a date of birth. Day-first
// layouts come before month-first since that is the dominant convention in
// the source documents.
var dobLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2 January 2006",
	"02 Jan 2006",
	"January 2, 2006",
}

// DeriveAge fills an "age" field from "date_of_birth" relative to now. It
// only writes when date_of_birth is present and parseable and no non-absent
// age exists yet. Returns the written key and whether a write happened.
func DeriveAge(fields map[string]string, now time.Time) (string, bool) {
	if cur, ok := fields["age"]; ok && !normalization.IsAbsent(cur) {
		return "", false
	}
	dob, ok := fields["date_of_birth"]
	if !ok || normalization.IsAbsent(dob) {
		return "", false
	}

	var born time.Time
	parsed := false
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(dob)); err == nil {
			born = t
			parsed = true
			break
		}
	}
	if !parsed {
		return "", false
	}

	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	if years < 0 || years > 150 {
		return "", false
	}
	fields["age"] = strconv.Itoa(years)
	return "age", true
}
