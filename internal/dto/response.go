package dto

import "github.com/dart94/utm-whatsapp-tracker/internal/domain"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"invalid phone number"`
}

// WebhookAck is the acknowledgment envelope returned for every webhook
// delivery. Kommo redelivers on non-2xx responses, so the endpoint
// always acknowledges.
type WebhookAck struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"processed"`
}

// RetryResponse confirms a fire-and-forget retry request
type RetryResponse struct {
	ClickID string `json:"click_id" example:"0b879b7c-1f0a-4a6e-bd2b-3f9fd07a60b3"`
	Status  string `json:"status" example:"retry_started"`
}

// Pagination describes a paginated listing
type Pagination struct {
	Total      int64 `json:"total" example:"134"`
	Page       int   `json:"page" example:"1"`
	Limit      int   `json:"limit" example:"20"`
	TotalPages int   `json:"total_pages" example:"7"`
}

// ListClicksResponse is the paginated clicks listing
type ListClicksResponse struct {
	Clicks     []domain.Click `json:"clicks"`
	Pagination Pagination     `json:"pagination"`
}

// CampaignStats carries aggregate counts attached to a campaign record
type CampaignStats struct {
	TotalClicks int64 `json:"total_clicks" example:"134"`
}

// CampaignResponse is a campaign record with its click stats
type CampaignResponse struct {
	domain.Campaign
	Stats CampaignStats `json:"stats"`
}

// TrackingURLResponse carries a generated campaign tracking URL
type TrackingURLResponse struct {
	Campaign string `json:"campaign" example:"promo_enero"`
	URL      string `json:"url" example:"http://localhost:8080/wa/+5216621234567?utm_source=facebook"`
}
