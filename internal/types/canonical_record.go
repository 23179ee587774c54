package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Record statuses persisted on the canonical record. A fourth outcome,
// "duplicate", is returned to merge callers but never stored.
const (
	RecordStatusPending = "pending"
	RecordStatusMerged  = "merged"
	RecordStatusFailed  = "failed"

	MergeStatusDuplicate = "duplicate"
)

// CanonicalRecord is the single merged source-of-truth field set for an
// entity. Fields maps canonical field names to values; absence of data is a
// missing key, never a placeholder string. ProcessedSourceHashes lists the
// content hashes of every document already merged in, which makes merges
// idempotent per source document.
type CanonicalRecord struct {
	ID                    uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntityID              uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex;column:entity_id" json:"entity_id"`
	Entity                *Entity        `gorm:"constraint:OnDelete:CASCADE;foreignKey:EntityID;references:ID" json:"-"`
	Fields                datatypes.JSON `gorm:"column:fields;type:jsonb" json:"fields"`
	ProcessedSourceHashes datatypes.JSON `gorm:"column:processed_source_hashes;type:jsonb" json:"processed_source_hashes"`
	Language              string         `gorm:"column:language;not null;default:'en'" json:"language"`
	Status                string         `gorm:"column:status;not null;default:'pending'" json:"status"`
	CreatedAt             time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (CanonicalRecord) TableName() string {
	return "canonical_record"
}

func (r *CanonicalRecord) FieldMap() (map[string]string, error) {
	fields := map[string]string{}
	if len(r.Fields) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(r.Fields, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *CanonicalRecord) SetFieldMap(fields map[string]string) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	r.Fields = datatypes.JSON(raw)
	return nil
}

func (r *CanonicalRecord) SourceHashes() ([]string, error) {
	hashes := []string{}
	if len(r.ProcessedSourceHashes) == 0 {
		return hashes, nil
	}
	if err := json.Unmarshal(r.ProcessedSourceHashes, &hashes); err != nil {
		return nil, err
	}
	return hashes, nil
}

func (r *CanonicalRecord) SetSourceHashes(hashes []string) error {
	raw, err := json.Marshal(hashes)
	if err != nil {
		return err
	}
	r.ProcessedSourceHashes = datatypes.JSON(raw)
	return nil
}

func (r *CanonicalRecord) HasSourceHash(hash string) bool {
	hashes, err := r.SourceHashes()
	if err != nil {
		return false
	}
	for _, h := range hashes {
		if h == hash {
			return true
		}
	}
	return false
}
