// Package crm defines the interface consumed by the tracker and
// reconciler to talk to the external lead-management system.
package crm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the CRM client has no credentials
var ErrNotConfigured = errors.New("kommo client not configured")

// Contact is a remote CRM contact
type Contact struct {
	ID          int64
	Name        string
	PhoneNumber string
}

// Lead is a remote CRM lead
type Lead struct {
	ID        int64
	Name      string
	CreatedAt int64
}

// CustomField is a custom field value attached to a lead
type CustomField struct {
	FieldID int64
	Value   string
}

// Client defines the operations the tracker and reconciler need against
// the CRM. All calls carry bearer auth and a fixed timeout.
type Client interface {
	// FindContactByPhone searches contacts by phone number, returning
	// nil when no contact matches.
	FindContactByPhone(ctx context.Context, phone string) (*Contact, error)

	// GetContact fetches a contact by ID
	GetContact(ctx context.Context, id int64) (*Contact, error)

	// CreateContact creates a contact with the given phone number
	CreateContact(ctx context.Context, phone string) (int64, error)

	// CreateLead creates a lead named after the campaign, attached to
	// the contact, optionally tagged.
	CreateLead(ctx context.Context, name string, contactID int64, tag string) (int64, error)

	// GetLead fetches a lead by ID
	GetLead(ctx context.Context, id int64) (*Lead, error)

	// ListLeadsByContact returns the contact's leads, newest first
	ListLeadsByContact(ctx context.Context, contactID int64) ([]Lead, error)

	// PatchLeadFields updates custom field values on a lead
	PatchLeadFields(ctx context.Context, leadID int64, fields []CustomField) error

	// AttachLeadTag adds a tag to a lead
	AttachLeadTag(ctx context.Context, leadID int64, tag string) error
}

// APIError is a non-2xx response from the CRM
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("kommo api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("kommo api error %d", e.StatusCode)
}

// IsTransient reports whether an error is worth retrying: request
// timeouts, missing responses and 5xx/429 statuses. Other 4xx statuses
// are permanent.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	// Network-level failures (timeout, connection refused) arrive as
	// transport errors, not APIErrors.
	return !errors.Is(err, ErrNotConfigured)
}
