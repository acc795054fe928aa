package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign represents a named marketing campaign with tracking defaults
type Campaign struct {
	ID               string  `gorm:"primaryKey;size:36" json:"id"`
	Name             string  `gorm:"size:200;not null;uniqueIndex" json:"name"`
	PhoneNumber      string  `gorm:"size:20;not null" json:"phone_number"`
	Description      *string `gorm:"size:500" json:"description"`
	DefaultUTMSource *string `gorm:"size:200" json:"default_utm_source"`
	DefaultUTMMedium *string `gorm:"size:200" json:"default_utm_medium"`
	IsActive         bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
