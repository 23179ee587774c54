package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TemplateKindHTML = "html"
	TemplateKindPDF  = "pdf"
)

// FieldMeta describes one fillable field of a form template.
type FieldMeta struct {
	Type         string   `json:"type"`
	Label        string   `json:"label,omitempty"`
	Required     bool     `json:"required,omitempty"`
	Options      []string `json:"options,omitempty"`
	SemanticHint string   `json:"semantic_hint,omitempty"`
}

// FieldDef pairs a template field name with its metadata. Field schemas are
// ordered slices, not maps: fill resolution walks fields in template order.
type FieldDef struct {
	Name string    `json:"name"`
	Meta FieldMeta `json:"meta"`
}

type FieldSchema []FieldDef

// Template is an uploaded form definition (HTML or PDF AcroForm), parsed
// immediately on upload into its field schema.
type Template struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	Owner       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Kind        string         `gorm:"column:kind;not null" json:"kind"`
	StorageKey  string         `gorm:"column:storage_key;not null" json:"storage_key"`
	ContentHash string         `gorm:"column:content_hash;not null;index" json:"content_hash"`
	Language    string         `gorm:"column:language;not null;default:'en'" json:"language"`
	FieldSchema datatypes.JSON `gorm:"column:field_schema;type:jsonb" json:"field_schema"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Template) TableName() string {
	return "template"
}

func (t *Template) Schema() (FieldSchema, error) {
	schema := FieldSchema{}
	if len(t.FieldSchema) == 0 {
		return schema, nil
	}
	if err := json.Unmarshal(t.FieldSchema, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func (t *Template) SetSchema(schema FieldSchema) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	t.FieldSchema = datatypes.JSON(raw)
	return nil
}
