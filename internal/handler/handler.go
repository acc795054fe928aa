package handler

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/analytics"
	"github.com/dart94/utm-whatsapp-tracker/internal/dedup"
	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
	"github.com/dart94/utm-whatsapp-tracker/internal/dto"
	"github.com/dart94/utm-whatsapp-tracker/internal/landing"
	"github.com/dart94/utm-whatsapp-tracker/internal/probe"
	"github.com/dart94/utm-whatsapp-tracker/internal/reconciler"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository"
	"github.com/dart94/utm-whatsapp-tracker/internal/sanitize"
	"github.com/dart94/utm-whatsapp-tracker/internal/tracker"
)

// Handler wires all HTTP routes
type Handler struct {
	tracker    *tracker.Tracker
	classifier *probe.Classifier
	dedup      *dedup.Evaluator
	reconciler *reconciler.Reconciler
	landing    *landing.Renderer
	analytics  *analytics.Service
	clicks     repository.ClickRepository
	campaigns  repository.CampaignRepository
	health     repository.Pinger
	baseURL    string
	router     *gin.Engine
	log        *zap.Logger
}

// Deps carries the handler's collaborators
type Deps struct {
	Tracker    *tracker.Tracker
	Classifier *probe.Classifier
	Dedup      *dedup.Evaluator
	Reconciler *reconciler.Reconciler
	Landing    *landing.Renderer
	Analytics  *analytics.Service
	Clicks     repository.ClickRepository
	Campaigns  repository.CampaignRepository
	Health     repository.Pinger
	BaseURL    string
}

// NewHandler creates a new handler and registers all routes
func NewHandler(deps Deps, log *zap.Logger) *Handler {
	h := &Handler{
		tracker:    deps.Tracker,
		classifier: deps.Classifier,
		dedup:      deps.Dedup,
		reconciler: deps.Reconciler,
		landing:    deps.Landing,
		analytics:  deps.Analytics,
		clicks:     deps.Clicks,
		campaigns:  deps.Campaigns,
		health:     deps.Health,
		baseURL:    deps.BaseURL,
		router:     gin.Default(),
		log:        log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/wa/:phone", h.handleRedirect)
	h.router.POST("/webhooks/kommo", h.handleKommoWebhook)

	api := h.router.Group("/api")
	{
		api.GET("/clicks", h.listClicks)
		api.GET("/clicks/:id", h.getClick)
		api.POST("/clicks/:id/retry", h.retryClick)

		api.POST("/campaigns", h.createCampaign)
		api.GET("/campaigns", h.listCampaigns)
		api.GET("/campaigns/:id", h.getCampaign)
		api.PUT("/campaigns/:id", h.updateCampaign)
		api.DELETE("/campaigns/:id", h.deleteCampaign)
		api.GET("/campaigns/:id/tracking-url", h.trackingURL)

		api.GET("/analytics/summary", h.analyticsSummary)
		api.GET("/analytics/top-campaigns", h.topCampaigns)
		api.GET("/analytics/recent-clicks", h.recentClicks)
		api.GET("/analytics/campaigns/:name", h.campaignStats)
	}

	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service and its store are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleRedirect handles GET /wa/:phone
// @Summary WhatsApp redirect with UTM tracking
// @Description Records the click, classifies and deduplicates it, then renders the WhatsApp hand-off page. This endpoint receives real and automated (Meta verification) traffic.
// @Tags redirect
// @Produce html
// @Param phone path string true "Destination phone number" example:"5216621234567"
// @Param utm_source query string false "Traffic source" example:"facebook"
// @Param utm_campaign query string false "Campaign name" example:"promo_enero"
// @Param fbclid query string false "Meta click identifier"
// @Success 200 {string} string "Landing page"
// @Failure 400 {string} string "Fallback landing page"
// @Router /wa/{phone} [get]
func (h *Handler) handleRedirect(c *gin.Context) {
	rawPhone := c.Param("phone")

	phone, err := sanitize.Phone(rawPhone)
	if err != nil {
		h.log.Warn("Invalid phone in redirect", zap.String("phone", rawPhone), zap.Error(err))
		h.renderFallback(c, http.StatusBadRequest, sanitize.PhoneLenient(rawPhone))
		return
	}

	var params dto.RedirectParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.log.Warn("Invalid redirect query", zap.Error(err))
		h.renderFallback(c, http.StatusBadRequest, phone)
		return
	}

	input := tracker.RecordInput{
		PhoneNumber: phone,
		UTMSource:   sanitize.UTMParam(params.UTMSource),
		UTMMedium:   sanitize.UTMParam(params.UTMMedium),
		UTMCampaign: sanitize.UTMParam(params.UTMCampaign),
		UTMContent:  sanitize.UTMParam(params.UTMContent),
		UTMTerm:     sanitize.UTMParam(params.UTMTerm),
		FBClid:      sanitize.UTMParam(params.FBClid),
		GClid:       sanitize.UTMParam(params.GClid),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}
	if referer := c.Request.Referer(); referer != "" {
		input.Referer = &referer
	}

	input.IsVerification = h.classifier.IsVerificationIP(input.IPAddress)

	dedupResult, err := h.dedup.Evaluate(c.Request.Context(), dedup.Candidate{
		PhoneNumber: input.PhoneNumber,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		FBClid:      input.FBClid,
	})
	if err != nil {
		// The visitor still gets a working WhatsApp link when the store
		// is down; only attribution is lost.
		h.log.Error("Dedup evaluation failed", zap.Error(err))
		h.renderFallback(c, http.StatusInternalServerError, phone)
		return
	}
	input.Dedup = dedupResult

	click, created, err := h.tracker.Record(c.Request.Context(), input)
	if err != nil {
		h.log.Error("Failed to record click", zap.Error(err))
		h.renderFallback(c, http.StatusInternalServerError, phone)
		return
	}

	h.log.Info("Redirect served",
		zap.String("click_id", click.ID),
		zap.Bool("created", created),
		zap.String("kommo_status", click.KommoStatus))

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.landing.Render(c.Writer, phone, input.UTMCampaign); err != nil {
		h.log.Error("Failed to render landing page", zap.Error(err))
	}
}

func (h *Handler) renderFallback(c *gin.Context, status int, phone string) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.landing.RenderFallback(c.Writer, phone); err != nil {
		h.log.Error("Failed to render fallback page", zap.Error(err))
	}
}

// handleKommoWebhook handles POST /webhooks/kommo
// @Summary Kommo incoming-message webhook
// @Description Matches the notification with the most recent pending click and links it to the Kommo lead. Always acknowledges so Kommo does not redeliver.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param payload body dto.WebhookRequest true "Webhook payload"
// @Success 200 {object} dto.WebhookAck
// @Router /webhooks/kommo [post]
func (h *Handler) handleKommoWebhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Unparseable webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, dto.WebhookAck{Success: true, Message: "no message to process"})
		return
	}

	payload := reconciler.Payload{}
	if req.Message != nil {
		payload.Message = &reconciler.Signal{
			ContactID:      req.Message.ContactID,
			ConversationID: req.Message.ConversationID,
			CreatedAt:      req.Message.CreatedAt,
		}
	}
	for _, m := range req.Messages {
		payload.Messages = append(payload.Messages, reconciler.Signal{
			ContactID:      m.ContactID,
			ConversationID: m.ConversationID,
			CreatedAt:      m.CreatedAt,
		})
	}

	summary := h.reconciler.Process(c.Request.Context(), payload)

	h.log.Info("Webhook processed",
		zap.Int("signals", summary.Signals),
		zap.Int("linked", summary.Linked),
		zap.Int("organic", summary.Organic),
		zap.Int("failures", summary.Failures))

	c.JSON(http.StatusOK, dto.WebhookAck{Success: true})
}

// listClicks handles GET /api/clicks
// @Summary List clicks
// @Description List recorded clicks with filters and pagination, newest first
// @Tags clicks
// @Produce json
// @Param page query int false "Page number" example:"1"
// @Param limit query int false "Page size" example:"20"
// @Param campaign query string false "Filter by UTM campaign"
// @Param source query string false "Filter by UTM source"
// @Param status query string false "Filter by Kommo status"
// @Success 200 {object} dto.ListClicksResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/clicks [get]
func (h *Handler) listClicks(c *gin.Context) {
	var req dto.ListClicksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	filter := repository.ClickFilter{
		UTMCampaign: req.Campaign,
		UTMSource:   req.Source,
	}
	if req.Status != "" {
		filter.Statuses = []string{req.Status}
	}

	offset := (req.Page - 1) * req.Limit
	clicks, total, err := h.clicks.List(c.Request.Context(), filter, req.Limit, offset)
	if err != nil {
		h.log.Error("Failed to list clicks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ListClicksResponse{
		Clicks: clicks,
		Pagination: dto.Pagination{
			Total:      total,
			Page:       req.Page,
			Limit:      req.Limit,
			TotalPages: int(math.Ceil(float64(total) / float64(req.Limit))),
		},
	})
}

// getClick handles GET /api/clicks/:id
// @Summary Get a click
// @Tags clicks
// @Produce json
// @Param id path string true "Click ID"
// @Success 200 {object} domain.Click
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/clicks/{id} [get]
func (h *Handler) getClick(c *gin.Context) {
	click, err := h.clicks.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "click not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to get click", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, click)
}

// retryClick handles POST /api/clicks/:id/retry
// @Summary Retry Kommo lead registration
// @Description Re-runs lead registration for a failed click. Fire-and-forget: the call returns before the registration finishes.
// @Tags clicks
// @Produce json
// @Param id path string true "Click ID"
// @Success 202 {object} dto.RetryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/clicks/{id}/retry [post]
func (h *Handler) retryClick(c *gin.Context) {
	clickID := c.Param("id")

	err := h.tracker.Retry(c.Request.Context(), clickID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "click not found"})
		return
	case errors.Is(err, tracker.ErrAlreadyRegistered):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "already_registered", Message: err.Error()})
		return
	case err != nil:
		h.log.Error("Failed to start retry", zap.String("click_id", clickID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, dto.RetryResponse{ClickID: clickID, Status: "retry_started"})
}

// createCampaign handles POST /api/campaigns
// @Summary Create a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Param campaign body dto.CreateCampaignRequest true "Campaign data"
// @Success 201 {object} domain.Campaign
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/campaigns [post]
func (h *Handler) createCampaign(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	phone, err := sanitize.Phone(req.PhoneNumber)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: "invalid phone number"})
		return
	}

	campaign := &domain.Campaign{
		Name:             req.Name,
		PhoneNumber:      phone,
		Description:      req.Description,
		DefaultUTMSource: req.DefaultUTMSource,
		DefaultUTMMedium: req.DefaultUTMMedium,
		IsActive:         true,
	}

	err = h.campaigns.Create(c.Request.Context(), campaign)
	if errors.Is(err, repository.ErrDuplicate) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "duplicate_name", Message: "campaign with this name already exists"})
		return
	}
	if err != nil {
		h.log.Error("Failed to create campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	h.log.Info("Campaign created", zap.String("campaign_id", campaign.ID), zap.String("name", campaign.Name))
	c.JSON(http.StatusCreated, campaign)
}

// listCampaigns handles GET /api/campaigns
// @Summary List campaigns
// @Tags campaigns
// @Produce json
// @Param active query bool false "Only active campaigns"
// @Success 200 {array} domain.Campaign
// @Router /api/campaigns [get]
func (h *Handler) listCampaigns(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	campaigns, err := h.campaigns.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.log.Error("Failed to list campaigns", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// getCampaign handles GET /api/campaigns/:id
// @Summary Get a campaign
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} dto.CampaignResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/campaigns/{id} [get]
func (h *Handler) getCampaign(c *gin.Context) {
	campaign, err := h.campaigns.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "campaign not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to get campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	clicks, err := h.clicks.Count(c.Request.Context(), repository.ClickFilter{UTMCampaign: campaign.Name})
	if err != nil {
		h.log.Error("Failed to count campaign clicks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CampaignResponse{
		Campaign: *campaign,
		Stats:    dto.CampaignStats{TotalClicks: clicks},
	})
}

// updateCampaign handles PUT /api/campaigns/:id
// @Summary Update a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param updates body dto.UpdateCampaignRequest true "Fields to update"
// @Success 200 {object} domain.Campaign
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/campaigns/{id} [put]
func (h *Handler) updateCampaign(c *gin.Context) {
	var req dto.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.PhoneNumber != nil {
		phone, err := sanitize.Phone(*req.PhoneNumber)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: "invalid phone number"})
			return
		}
		updates["phone_number"] = phone
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DefaultUTMSource != nil {
		updates["default_utm_source"] = *req.DefaultUTMSource
	}
	if req.DefaultUTMMedium != nil {
		updates["default_utm_medium"] = *req.DefaultUTMMedium
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: "no fields to update"})
		return
	}

	campaign, err := h.campaigns.Update(c.Request.Context(), c.Param("id"), updates)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "campaign not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to update campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// deleteCampaign handles DELETE /api/campaigns/:id
// @Summary Delete a campaign
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/campaigns/{id} [delete]
func (h *Handler) deleteCampaign(c *gin.Context) {
	err := h.campaigns.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "campaign not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to delete campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// trackingURL handles GET /api/campaigns/:id/tracking-url
// @Summary Generate a tracking URL for a campaign
// @Description Builds the /wa redirect URL with the campaign's default UTM parameters, overridable by query parameters.
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Param utm_source query string false "Override UTM source"
// @Param utm_medium query string false "Override UTM medium"
// @Param utm_campaign query string false "UTM campaign"
// @Success 200 {object} dto.TrackingURLResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/campaigns/{id}/tracking-url [get]
func (h *Handler) trackingURL(c *gin.Context) {
	campaign, err := h.campaigns.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "campaign not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to get campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	params := url.Values{}
	setParam := func(key, override string, fallback *string) {
		switch {
		case override != "":
			params.Set(key, override)
		case fallback != nil && *fallback != "":
			params.Set(key, *fallback)
		}
	}
	setParam("utm_source", c.Query("utm_source"), campaign.DefaultUTMSource)
	setParam("utm_medium", c.Query("utm_medium"), campaign.DefaultUTMMedium)
	setParam("utm_campaign", c.Query("utm_campaign"), nil)
	setParam("utm_content", c.Query("utm_content"), nil)
	setParam("utm_term", c.Query("utm_term"), nil)

	trackingURL := h.baseURL + "/wa/" + campaign.PhoneNumber
	if encoded := params.Encode(); encoded != "" {
		trackingURL += "?" + encoded
	}

	c.JSON(http.StatusOK, dto.TrackingURLResponse{Campaign: campaign.Name, URL: trackingURL})
}

// analyticsSummary handles GET /api/analytics/summary
// @Summary Dashboard summary
// @Tags analytics
// @Produce json
// @Success 200 {object} analytics.Summary
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/analytics/summary [get]
func (h *Handler) analyticsSummary(c *gin.Context) {
	summary, err := h.analytics.DashboardSummary(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to build summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// topCampaigns handles GET /api/analytics/top-campaigns
// @Summary Top campaigns by clicks
// @Tags analytics
// @Produce json
// @Param limit query int false "Number of campaigns" example:"10"
// @Success 200 {array} analytics.TopCampaign
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/analytics/top-campaigns [get]
func (h *Handler) topCampaigns(c *gin.Context) {
	var req dto.TopCampaignsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	top, err := h.analytics.TopCampaigns(c.Request.Context(), req.Limit)
	if err != nil {
		h.log.Error("Failed to rank campaigns", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, top)
}

// recentClicks handles GET /api/analytics/recent-clicks
// @Summary Recent clicks
// @Tags analytics
// @Produce json
// @Param limit query int false "Number of clicks" example:"20"
// @Success 200 {array} domain.Click
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/analytics/recent-clicks [get]
func (h *Handler) recentClicks(c *gin.Context) {
	var req dto.RecentClicksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	clicks, err := h.analytics.RecentClicks(c.Request.Context(), req.Limit)
	if err != nil {
		h.log.Error("Failed to list recent clicks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, clicks)
}

// campaignStats handles GET /api/analytics/campaigns/:name
// @Summary Campaign statistics
// @Tags analytics
// @Produce json
// @Param name path string true "Campaign name"
// @Param from query int false "Start timestamp (Unix epoch)"
// @Param to query int false "End timestamp (Unix epoch)"
// @Success 200 {object} analytics.CampaignStats
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/analytics/campaigns/{name} [get]
func (h *Handler) campaignStats(c *gin.Context) {
	var req dto.CampaignStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	var from, to time.Time
	if req.From > 0 {
		from = time.Unix(req.From, 0)
	}
	if req.To > 0 {
		to = time.Unix(req.To, 0)
	}

	stats, err := h.analytics.CampaignStats(c.Request.Context(), c.Param("name"), from, to)
	if err != nil {
		h.log.Error("Failed to build campaign stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
