package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when the caller did not
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Draft is a persisted dialog draft. Payload holds the draft record as JSON
// and Original the committed record it was opened from (edit mode only).
type Draft struct {
	BaseModel
	SessionID string     `gorm:"type:varchar(100);not null;index"`
	Entity    EntityType `gorm:"type:varchar(50);not null;index"`
	Mode      string     `gorm:"type:varchar(20);not null"`
	State     string     `gorm:"type:varchar(30);not null;index"`
	RecordID  string     `gorm:"type:varchar(100);column:record_id"`
	Payload   string     `gorm:"type:text;not null"`
	Original  string     `gorm:"type:text"`
}

// TableName pins the table used by the migrations
func (Draft) TableName() string {
	return "drafts"
}
