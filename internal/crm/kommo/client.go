// Package kommo implements the crm.Client interface against the Kommo
// (amoCRM) v4 REST API.
package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/config"
	"github.com/dart94/utm-whatsapp-tracker/internal/crm"
)

const phoneFieldCode = "PHONE"

// Client is an HTTP client for the Kommo v4 API with bounded retries
type Client struct {
	baseURL     string
	accessToken string
	maxRetries  int
	retryDelay  time.Duration
	httpClient  *http.Client
	log         *zap.Logger
}

// NewClient creates a new Kommo client. A client without domain or token
// is valid but rejects every call with crm.ErrNotConfigured, so the
// redirect flow keeps working in unconfigured environments.
func NewClient(cfg config.Kommo, log *zap.Logger) *Client {
	baseURL := ""
	if cfg.Domain != "" {
		baseURL = fmt.Sprintf("https://%s/api/v4", cfg.Domain)
	}

	if baseURL == "" || cfg.AccessToken == "" {
		log.Warn("Kommo not configured, lead registration will be skipped")
	}

	return &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		log: log,
	}
}

// Configured reports whether the client has credentials
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.accessToken != ""
}

type embeddedContacts struct {
	Embedded struct {
		Contacts []contactPayload `json:"contacts"`
	} `json:"_embedded"`
}

type embeddedLeads struct {
	Embedded struct {
		Leads []leadPayload `json:"leads"`
	} `json:"_embedded"`
}

type contactPayload struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	CustomFieldValues []customFieldValue `json:"custom_fields_values"`
}

type leadPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

type customFieldValue struct {
	FieldID   int64        `json:"field_id,omitempty"`
	FieldCode string       `json:"field_code,omitempty"`
	Values    []fieldValue `json:"values"`
}

type fieldValue struct {
	Value    string `json:"value"`
	EnumCode string `json:"enum_code,omitempty"`
}

func (p contactPayload) phoneNumber() string {
	for _, f := range p.CustomFieldValues {
		if f.FieldCode == phoneFieldCode && len(f.Values) > 0 {
			return f.Values[0].Value
		}
	}
	return ""
}

// FindContactByPhone searches contacts by phone number. The phone is
// query-escaped so its leading "+" survives server-side decoding.
func (c *Client) FindContactByPhone(ctx context.Context, phone string) (*crm.Contact, error) {
	var out embeddedContacts
	query := url.Values{"query": {phone}, "limit": {"1"}}
	path := "/contacts?" + query.Encode()
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	if len(out.Embedded.Contacts) == 0 {
		return nil, nil
	}

	found := out.Embedded.Contacts[0]
	return &crm.Contact{
		ID:          found.ID,
		Name:        found.Name,
		PhoneNumber: found.phoneNumber(),
	}, nil
}

// GetContact fetches a contact by ID
func (c *Client) GetContact(ctx context.Context, id int64) (*crm.Contact, error) {
	var out contactPayload
	path := fmt.Sprintf("/contacts/%d", id)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &crm.Contact{
		ID:          out.ID,
		Name:        out.Name,
		PhoneNumber: out.phoneNumber(),
	}, nil
}

// CreateContact creates a contact carrying the phone number as its work
// phone field.
func (c *Client) CreateContact(ctx context.Context, phone string) (int64, error) {
	payload := []map[string]interface{}{
		{
			"name": phone,
			"custom_fields_values": []customFieldValue{
				{
					FieldCode: phoneFieldCode,
					Values:    []fieldValue{{Value: phone, EnumCode: "WORK"}},
				},
			},
		},
	}

	var out embeddedContacts
	if err := c.doRequest(ctx, http.MethodPost, "/contacts", payload, &out); err != nil {
		return 0, err
	}

	if len(out.Embedded.Contacts) == 0 {
		return 0, fmt.Errorf("no contact ID returned from Kommo")
	}
	return out.Embedded.Contacts[0].ID, nil
}

// CreateLead creates a lead attached to the contact
func (c *Client) CreateLead(ctx context.Context, name string, contactID int64, tag string) (int64, error) {
	embedded := map[string]interface{}{
		"contacts": []map[string]interface{}{{"id": contactID}},
	}
	if tag != "" {
		embedded["tags"] = []map[string]interface{}{{"name": tag}}
	}

	payload := []map[string]interface{}{
		{
			"name":      name,
			"_embedded": embedded,
		},
	}

	var out embeddedLeads
	if err := c.doRequest(ctx, http.MethodPost, "/leads", payload, &out); err != nil {
		return 0, err
	}

	if len(out.Embedded.Leads) == 0 {
		return 0, fmt.Errorf("no lead ID returned from Kommo")
	}
	return out.Embedded.Leads[0].ID, nil
}

// GetLead fetches a lead by ID
func (c *Client) GetLead(ctx context.Context, id int64) (*crm.Lead, error) {
	var out leadPayload
	path := fmt.Sprintf("/leads/%d", id)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &crm.Lead{ID: out.ID, Name: out.Name, CreatedAt: out.CreatedAt}, nil
}

// ListLeadsByContact returns the contact's leads, newest first
func (c *Client) ListLeadsByContact(ctx context.Context, contactID int64) ([]crm.Lead, error) {
	var out embeddedLeads
	path := fmt.Sprintf("/leads?filter[contacts][0]=%d&order[created_at]=desc&limit=10", contactID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	leads := make([]crm.Lead, 0, len(out.Embedded.Leads))
	for _, l := range out.Embedded.Leads {
		leads = append(leads, crm.Lead{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt})
	}
	return leads, nil
}

// PatchLeadFields updates custom field values on a lead
func (c *Client) PatchLeadFields(ctx context.Context, leadID int64, fields []crm.CustomField) error {
	if len(fields) == 0 {
		return nil
	}

	values := make([]customFieldValue, 0, len(fields))
	for _, f := range fields {
		values = append(values, customFieldValue{
			FieldID: f.FieldID,
			Values:  []fieldValue{{Value: f.Value}},
		})
	}

	payload := map[string]interface{}{"custom_fields_values": values}
	path := fmt.Sprintf("/leads/%d", leadID)
	return c.doRequest(ctx, http.MethodPatch, path, payload, nil)
}

// AttachLeadTag adds a tag to a lead
func (c *Client) AttachLeadTag(ctx context.Context, leadID int64, tag string) error {
	if tag == "" {
		return nil
	}

	payload := map[string]interface{}{
		"_embedded": map[string]interface{}{
			"tags": []map[string]interface{}{{"name": tag}},
		},
	}
	path := fmt.Sprintf("/leads/%d", leadID)
	return c.doRequest(ctx, http.MethodPatch, path, payload, nil)
}

// doRequest performs one API call with bounded retries. Only transient
// failures (timeouts, no response, 5xx, 429) are retried; the backoff
// delay grows linearly with the attempt number.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	if !c.Configured() {
		return crm.ErrNotConfigured
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.attempt(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if !crm.IsTransient(lastErr) {
			return lastErr
		}

		if attempt < c.maxRetries {
			delay := c.retryDelay * time.Duration(attempt)
			c.log.Warn("Kommo request failed, retrying",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.maxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kommo request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("Failed to close Kommo response body", zap.Error(err))
		}
	}()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &crm.APIError{
			StatusCode: resp.StatusCode,
			Detail:     readErrorDetail(resp.Body),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode Kommo response: %w", err)
		}
	}
	return nil
}

// readErrorDetail pulls a human-readable detail from an error response
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 2048))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var parsed struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Title != "" {
			return parsed.Title
		}
	}

	detail := string(raw)
	if len(detail) > 512 {
		detail = detail[:512]
	}
	return detail
}

