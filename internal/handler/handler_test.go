package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/analytics"
	"github.com/dart94/utm-whatsapp-tracker/internal/config"
	"github.com/dart94/utm-whatsapp-tracker/internal/crm"
	"github.com/dart94/utm-whatsapp-tracker/internal/dedup"
	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
	"github.com/dart94/utm-whatsapp-tracker/internal/dto"
	"github.com/dart94/utm-whatsapp-tracker/internal/landing"
	"github.com/dart94/utm-whatsapp-tracker/internal/probe"
	"github.com/dart94/utm-whatsapp-tracker/internal/reconciler"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository"
	"github.com/dart94/utm-whatsapp-tracker/internal/tracker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockClickRepository is a mock implementation of repository.ClickRepository
type MockClickRepository struct {
	mock.Mock
}

func (m *MockClickRepository) Create(ctx context.Context, click *domain.Click) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockClickRepository) FindByID(ctx context.Context, id string) (*domain.Click, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Click), args.Error(1)
}

func (m *MockClickRepository) FindFirst(ctx context.Context, filter repository.ClickFilter) (*domain.Click, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Click), args.Error(1)
}

func (m *MockClickRepository) List(ctx context.Context, filter repository.ClickFilter, limit, offset int) ([]domain.Click, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]domain.Click), args.Get(1).(int64), args.Error(2)
}

func (m *MockClickRepository) MarkRegistered(ctx context.Context, id, leadID string) error {
	args := m.Called(ctx, id, leadID)
	return args.Error(0)
}

func (m *MockClickRepository) MarkFailed(ctx context.Context, id, errText string) error {
	args := m.Called(ctx, id, errText)
	return args.Error(0)
}

func (m *MockClickRepository) LinkLead(ctx context.Context, id, leadID string) (bool, error) {
	args := m.Called(ctx, id, leadID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClickRepository) Count(ctx context.Context, filter repository.ClickFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClickRepository) CountByCampaign(ctx context.Context, filter repository.ClickFilter, limit int) ([]repository.CampaignCount, error) {
	args := m.Called(ctx, filter, limit)
	return args.Get(0).([]repository.CampaignCount), args.Error(1)
}

func (m *MockClickRepository) CountDistinctPhones(ctx context.Context, filter repository.ClickFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockCampaignRepository is a mock implementation of repository.CampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) List(ctx context.Context, activeOnly bool) ([]domain.Campaign, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*domain.Campaign, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCRMClient is a mock implementation of crm.Client
type MockCRMClient struct {
	mock.Mock
}

func (m *MockCRMClient) FindContactByPhone(ctx context.Context, phone string) (*crm.Contact, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Contact), args.Error(1)
}

func (m *MockCRMClient) GetContact(ctx context.Context, id int64) (*crm.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Contact), args.Error(1)
}

func (m *MockCRMClient) CreateContact(ctx context.Context, phone string) (int64, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCRMClient) CreateLead(ctx context.Context, name string, contactID int64, tag string) (int64, error) {
	args := m.Called(ctx, name, contactID, tag)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCRMClient) GetLead(ctx context.Context, id int64) (*crm.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Lead), args.Error(1)
}

func (m *MockCRMClient) ListLeadsByContact(ctx context.Context, contactID int64) ([]crm.Lead, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.Lead), args.Error(1)
}

func (m *MockCRMClient) PatchLeadFields(ctx context.Context, leadID int64, fields []crm.CustomField) error {
	args := m.Called(ctx, leadID, fields)
	return args.Error(0)
}

func (m *MockCRMClient) AttachLeadTag(ctx context.Context, leadID int64, tag string) error {
	args := m.Called(ctx, leadID, tag)
	return args.Error(0)
}

// MockPinger is a mock implementation of repository.Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type testEnv struct {
	handler   *Handler
	tracker   *tracker.Tracker
	clicks    *MockClickRepository
	campaigns *MockCampaignRepository
	crmClient *MockCRMClient
	pinger    *MockPinger
}

func newTestEnv() *testEnv {
	log := zap.NewNop()
	clicks := new(MockClickRepository)
	campaigns := new(MockCampaignRepository)
	crmClient := new(MockCRMClient)
	pinger := new(MockPinger)

	fields := crm.NewFieldMapper(config.Kommo{FieldUTMSource: 100, FieldUTMCampaign: 101})
	clickTracker := tracker.New(clicks, crmClient, fields, false, log)

	h := NewHandler(Deps{
		Tracker:    clickTracker,
		Classifier: probe.NewClassifier([]string{"173.252.", "69.171."}),
		Dedup:      dedup.NewEvaluator(clicks, config.Dedup{SameSubjectWindowSec: 60, ClickTokenUnique: true, RecentSuccessWindowSec: 86400}, log),
		Reconciler: reconciler.New(clicks, crmClient, fields, 15*time.Minute, log),
		Landing:    landing.NewRenderer("https://wa.me"),
		Analytics:  analytics.NewService(clicks, log),
		Clicks:     clicks,
		Campaigns:  campaigns,
		Health:     pinger,
		BaseURL:    "http://localhost:8080",
	}, log)

	return &testEnv{
		handler:   h,
		tracker:   clickTracker,
		clicks:    clicks,
		campaigns: campaigns,
		crmClient: crmClient,
		pinger:    pinger,
	}
}

func TestHandler_HealthCheck(t *testing.T) {
	env := newTestEnv()
	env.pinger.On("Ping", mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

func TestHandler_HealthCheck_StoreDown(t *testing.T) {
	env := newTestEnv()
	env.pinger.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_Redirect_RecordsClickAndRendersPage(t *testing.T) {
	env := newTestEnv()

	env.clicks.On("FindFirst", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	env.clicks.On("Create", mock.Anything, mock.AnythingOfType("*domain.Click")).Return(nil)
	env.crmClient.On("FindContactByPhone", mock.Anything, "+5216621234567").Return(nil, nil)
	env.crmClient.On("CreateContact", mock.Anything, "+5216621234567").Return(int64(777), nil)
	env.crmClient.On("CreateLead", mock.Anything, mock.Anything, int64(777), "promo_enero").Return(int64(4242), nil)
	env.crmClient.On("PatchLeadFields", mock.Anything, int64(4242), mock.Anything).Return(nil)
	env.clicks.On("MarkRegistered", mock.Anything, mock.AnythingOfType("string"), "4242").Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/wa/+5216621234567?utm_source=facebook&utm_campaign=promo_enero", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)
	env.tracker.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "wa.me/5216621234567")
	env.clicks.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*domain.Click"))
	env.crmClient.AssertExpectations(t)
}

func TestHandler_Redirect_InvalidPhoneRendersFallback(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/wa/abc", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	env.clicks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandler_Redirect_InvalidPhoneFallbackLinkIsNormalized(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/wa/12-345", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "wa.me/12345")
	assert.NotContains(t, w.Body.String(), "12-345")
}

func TestHandler_Redirect_StoreFailureRendersFallback(t *testing.T) {
	env := newTestEnv()

	env.clicks.On("FindFirst", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/wa/+5216621234567", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "wa.me/5216621234567")
}

func TestHandler_Redirect_VerificationProbeGetsPage(t *testing.T) {
	env := newTestEnv()

	env.clicks.On("FindFirst", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	env.clicks.On("Create", mock.Anything, mock.AnythingOfType("*domain.Click")).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/wa/+5216621234567", nil)
	req.Header.Set("X-Forwarded-For", "173.252.127.5")
	req.Header.Set("User-Agent", "facebookexternalhit/1.1")
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)
	env.tracker.Wait()

	assert.Equal(t, http.StatusOK, w.Code)
	env.crmClient.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_KommoWebhook_AlwaysAcknowledges(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/kommo", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var ack dto.WebhookAck
	err := json.Unmarshal(w.Body.Bytes(), &ack)
	assert.NoError(t, err)
	assert.True(t, ack.Success)
}

func TestHandler_KommoWebhook_LinksLead(t *testing.T) {
	env := newTestEnv()

	click := &domain.Click{
		ID:          "recent-click",
		PhoneNumber: "+5216621234567",
		KommoStatus: domain.StatusPending,
	}

	env.crmClient.On("GetContact", mock.Anything, int64(42)).
		Return(&crm.Contact{ID: 42, PhoneNumber: "+5216621234567"}, nil)
	env.clicks.On("FindFirst", mock.Anything, mock.Anything).Return(click, nil)
	env.crmClient.On("ListLeadsByContact", mock.Anything, int64(42)).
		Return([]crm.Lead{{ID: 9001}}, nil)
	env.crmClient.On("PatchLeadFields", mock.Anything, int64(9001), mock.Anything).Return(nil)
	env.clicks.On("LinkLead", mock.Anything, "recent-click", "9001").Return(true, nil)

	body, _ := json.Marshal(dto.WebhookRequest{
		Message: &dto.WebhookMessage{ContactID: 42, ConversationID: "conv-1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/kommo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env.clicks.AssertCalled(t, "LinkLead", mock.Anything, "recent-click", "9001")
}

func TestHandler_RetryClick_NotFound(t *testing.T) {
	env := newTestEnv()

	env.clicks.On("FindByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/api/clicks/missing/retry", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_RetryClick_AlreadyRegistered(t *testing.T) {
	env := newTestEnv()

	click := &domain.Click{ID: "done-click", KommoStatus: domain.StatusSuccess}
	env.clicks.On("FindByID", mock.Anything, "done-click").Return(click, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/clicks/done-click/retry", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_RetryClick_Accepted(t *testing.T) {
	env := newTestEnv()

	click := &domain.Click{
		ID:          "failed-click",
		PhoneNumber: "+5216621234567",
		KommoStatus: domain.StatusFailed,
	}
	env.clicks.On("FindByID", mock.Anything, "failed-click").Return(click, nil)
	env.crmClient.On("FindContactByPhone", mock.Anything, "+5216621234567").Return(nil, nil)
	env.crmClient.On("CreateContact", mock.Anything, "+5216621234567").Return(int64(888), nil)
	env.crmClient.On("CreateLead", mock.Anything, mock.Anything, int64(888), "").Return(int64(9000), nil)
	env.clicks.On("MarkRegistered", mock.Anything, "failed-click", "9000").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/clicks/failed-click/retry", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)
	env.tracker.Wait()

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response dto.RetryResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "failed-click", response.ClickID)
}

func TestHandler_ListClicks_InvalidStatus(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/clicks?status=bogus", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListClicks_Paginates(t *testing.T) {
	env := newTestEnv()

	env.clicks.On("List", mock.Anything, mock.Anything, 20, 0).
		Return([]domain.Click{{ID: "click-1"}, {ID: "click-2"}}, int64(42), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/clicks", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ListClicksResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response.Clicks, 2)
	assert.Equal(t, int64(42), response.Pagination.Total)
	assert.Equal(t, 3, response.Pagination.TotalPages)
}

func TestHandler_CreateCampaign_DuplicateName(t *testing.T) {
	env := newTestEnv()

	env.campaigns.On("Create", mock.Anything, mock.AnythingOfType("*domain.Campaign")).
		Return(repository.ErrDuplicate)

	body, _ := json.Marshal(dto.CreateCampaignRequest{
		Name:        "promo_enero",
		PhoneNumber: "+5216621234567",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetCampaign_IncludesClickStats(t *testing.T) {
	env := newTestEnv()

	campaign := &domain.Campaign{
		ID:          "campaign-1",
		Name:        "promo_enero",
		PhoneNumber: "+5216621234567",
	}
	env.campaigns.On("FindByID", mock.Anything, "campaign-1").Return(campaign, nil)
	env.clicks.On("Count", mock.Anything, mock.MatchedBy(func(f repository.ClickFilter) bool {
		return f.UTMCampaign == "promo_enero"
	})).Return(int64(134), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/campaign-1", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.CampaignResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "promo_enero", response.Name)
	assert.Equal(t, int64(134), response.Stats.TotalClicks)
}

func TestHandler_TrackingURL_UsesCampaignDefaults(t *testing.T) {
	env := newTestEnv()

	source := "facebook"
	campaign := &domain.Campaign{
		ID:               "campaign-1",
		Name:             "promo_enero",
		PhoneNumber:      "+5216621234567",
		DefaultUTMSource: &source,
	}
	env.campaigns.On("FindByID", mock.Anything, "campaign-1").Return(campaign, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns/campaign-1/tracking-url?utm_campaign=promo_enero", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.TrackingURLResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Contains(t, response.URL, "/wa/+5216621234567")
	assert.Contains(t, response.URL, "utm_source=facebook")
	assert.Contains(t, response.URL, "utm_campaign=promo_enero")
}

func TestHandler_AnalyticsSummary(t *testing.T) {
	env := newTestEnv()

	env.clicks.On("Count", mock.Anything, mock.MatchedBy(func(f repository.ClickFilter) bool {
		return len(f.Statuses) == 1 && f.Statuses[0] == domain.StatusSuccess
	})).Return(int64(25), nil)
	env.clicks.On("Count", mock.Anything, mock.MatchedBy(func(f repository.ClickFilter) bool {
		return !f.CreatedAfter.IsZero()
	})).Return(int64(10), nil)
	env.clicks.On("Count", mock.Anything, mock.Anything).Return(int64(100), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/summary", nil)
	w := httptest.NewRecorder()

	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var summary analytics.Summary
	err := json.Unmarshal(w.Body.Bytes(), &summary)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), summary.TotalClicks)
	assert.Equal(t, int64(10), summary.TodayClicks)
	assert.Equal(t, int64(25), summary.TotalLeads)
	assert.Equal(t, 25.0, summary.ConversionRate)
}
