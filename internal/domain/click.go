package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kommo correlation statuses for a click. Once a click reaches
// StatusSuccess it is terminal and must never be re-registered.
const (
	StatusPending   = "pending"
	StatusTracked   = "tracked" // legacy alias of pending, still accepted in queries
	StatusSkipped   = "skipped"
	StatusDuplicate = "duplicate"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
)

// LinkableStatuses are the states a click may be in while still waiting
// to be matched with a Kommo lead.
var LinkableStatuses = []string{StatusPending, StatusTracked}

// Click represents a tracked redirect request and its Kommo correlation state
type Click struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	PhoneNumber string  `gorm:"size:20;not null;index:idx_clicks_phone_created" json:"phone_number"`
	UTMSource   *string `gorm:"size:200" json:"utm_source"`
	UTMMedium   *string `gorm:"size:200" json:"utm_medium"`
	UTMCampaign *string `gorm:"size:200;index" json:"utm_campaign"`
	UTMContent  *string `gorm:"size:200" json:"utm_content"`
	UTMTerm     *string `gorm:"size:200" json:"utm_term"`
	FBClid      *string `gorm:"size:255;uniqueIndex" json:"fbclid"`
	GClid       *string `gorm:"size:255" json:"gclid"`
	IPAddress   string  `gorm:"size:45;index" json:"ip_address"`
	UserAgent   string  `gorm:"size:512" json:"user_agent"`
	Referer     *string `gorm:"size:512" json:"referer"`

	KommoStatus string  `gorm:"size:16;not null;index" json:"kommo_status"`
	KommoLeadID *string `gorm:"size:32" json:"kommo_lead_id"`
	KommoError  *string `gorm:"size:1024" json:"kommo_error"`

	CreatedAt time.Time `gorm:"index:idx_clicks_phone_created;index" json:"created_at"`
}

func (Click) TableName() string {
	return "clicks"
}

func (c *Click) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Linkable reports whether the click may still be linked to a Kommo lead.
func (c *Click) Linkable() bool {
	if c.KommoLeadID != nil {
		return false
	}
	return c.KommoStatus == StatusPending || c.KommoStatus == StatusTracked
}
