package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SettingKeyFiler   = "f1098t.filer"
	SettingKeySummary = "f1098t.summary"
)

// Setting is the mutable institution-wide configuration store. Values are
// opaque JSON maps owned by whichever service registered the key.
type Setting struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string            `gorm:"uniqueIndex;not null;column:key" json:"key"`
	Value     datatypes.JSONMap `gorm:"column:value;type:jsonb" json:"value"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

func (Setting) TableName() string { return "setting" }
