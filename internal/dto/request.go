package dto

// RedirectParams captures the UTM and click-token query parameters on a
// tracked redirect.
type RedirectParams struct {
	UTMSource   string `form:"utm_source" example:"facebook"`
	UTMMedium   string `form:"utm_medium" example:"cpc"`
	UTMCampaign string `form:"utm_campaign" example:"promo_enero"`
	UTMContent  string `form:"utm_content" example:"carousel_1"`
	UTMTerm     string `form:"utm_term" example:"zapatos"`
	FBClid      string `form:"fbclid" example:"IwAR2xyz"`
	GClid       string `form:"gclid"`
}

// WebhookMessage is one incoming-message signal inside a Kommo webhook
type WebhookMessage struct {
	ContactID      int64  `json:"contact_id"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	CreatedAt      int64  `json:"created_at"`
}

// WebhookRequest is the Kommo webhook payload. Single deliveries carry
// one message object; batched deliveries use the messages array.
type WebhookRequest struct {
	Message  *WebhookMessage  `json:"message"`
	Messages []WebhookMessage `json:"messages"`
	Account  struct {
		ID        int64  `json:"id"`
		Subdomain string `json:"subdomain"`
	} `json:"account"`
}

// ListClicksRequest filters and paginates the clicks listing
type ListClicksRequest struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1" example:"1"`
	Limit    int    `form:"limit,default=20" binding:"omitempty,min=1,max=200" example:"20"`
	Campaign string `form:"campaign" example:"promo_enero"`
	Source   string `form:"source" example:"facebook"`
	Status   string `form:"status" binding:"omitempty,oneof=pending tracked skipped duplicate success failed" example:"success"`
}

// CreateCampaignRequest creates a campaign with tracking defaults
type CreateCampaignRequest struct {
	Name             string  `json:"name" binding:"required" example:"promo_enero"`
	PhoneNumber      string  `json:"phone_number" binding:"required" example:"+5216621234567"`
	Description      *string `json:"description"`
	DefaultUTMSource *string `json:"default_utm_source" example:"facebook"`
	DefaultUTMMedium *string `json:"default_utm_medium" example:"cpc"`
}

// UpdateCampaignRequest partially updates a campaign
type UpdateCampaignRequest struct {
	Name             *string `json:"name"`
	PhoneNumber      *string `json:"phone_number"`
	Description      *string `json:"description"`
	DefaultUTMSource *string `json:"default_utm_source"`
	DefaultUTMMedium *string `json:"default_utm_medium"`
	IsActive         *bool   `json:"is_active"`
}

// CampaignStatsRequest bounds a campaign stats query. Timestamps are
// Unix epoch seconds; zero means unbounded.
type CampaignStatsRequest struct {
	From int64 `form:"from" example:"1723475612"`
	To   int64 `form:"to" example:"1723562012"`
}

// TopCampaignsRequest limits the campaign ranking
type TopCampaignsRequest struct {
	Limit int `form:"limit,default=10" binding:"omitempty,min=1,max=100" example:"10"`
}

// RecentClicksRequest limits the recent clicks listing
type RecentClicksRequest struct {
	Limit int `form:"limit,default=20" binding:"omitempty,min=1,max=200" example:"20"`
}
