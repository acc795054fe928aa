package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("record already exists")

// ClickFilter narrows click queries. Zero values mean "no constraint".
type ClickFilter struct {
	PhoneNumber   string
	IPAddress     string
	UserAgent     string
	FBClid        string
	UTMCampaign   string
	UTMSource     string
	Statuses      []string
	CreatedAfter  time.Time
	CreatedBefore time.Time
	RequireNoLead bool
}

// CampaignCount is a per-campaign click count row
type CampaignCount struct {
	Campaign string
	Clicks   int64
}

// ClickRepository defines the interface for click storage operations.
// Time-ordered reads always return the newest record first.
type ClickRepository interface {
	// Create persists a new click
	Create(ctx context.Context, click *domain.Click) error

	// FindByID retrieves a click by its ID
	FindByID(ctx context.Context, id string) (*domain.Click, error)

	// FindFirst returns the most recent click matching the filter, or
	// ErrNotFound.
	FindFirst(ctx context.Context, filter ClickFilter) (*domain.Click, error)

	// List returns clicks matching the filter, newest first, with the
	// total count for pagination.
	List(ctx context.Context, filter ClickFilter, limit, offset int) ([]domain.Click, int64, error)

	// MarkRegistered records a successful Kommo registration. It is a
	// no-op when the click already reached success.
	MarkRegistered(ctx context.Context, id, leadID string) error

	// MarkFailed records a failed Kommo registration with the error
	// text. It is a no-op when the click already reached success.
	MarkFailed(ctx context.Context, id, errText string) error

	// LinkLead performs the one-time webhook linkage: it sets success
	// and the lead ID only if the click is still pending/tracked with no
	// lead attached, and reports whether the update applied.
	LinkLead(ctx context.Context, id, leadID string) (bool, error)

	// Count returns the number of clicks matching the filter
	Count(ctx context.Context, filter ClickFilter) (int64, error)

	// CountByCampaign groups matching clicks by UTM campaign, most
	// clicked first.
	CountByCampaign(ctx context.Context, filter ClickFilter, limit int) ([]CampaignCount, error)

	// CountDistinctPhones returns the number of distinct phone numbers
	// among matching clicks.
	CountDistinctPhones(ctx context.Context, filter ClickFilter) (int64, error)
}

// CampaignRepository defines the interface for campaign storage operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	FindByID(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Campaign, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*domain.Campaign, error)
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by repositories that can report store health
type Pinger interface {
	Ping(ctx context.Context) error
}
