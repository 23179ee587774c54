package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entity is a logical document-bearer (a person) owned by exactly one user.
// Deleting an entity cascades to its canonical record.
type Entity struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	Owner       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	DisplayName string         `gorm:"column:display_name;not null" json:"display_name"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Entity) TableName() string {
	return "entity"
}
