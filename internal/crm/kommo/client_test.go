package kommo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/internal/config"
	"github.com/dart94/utm-whatsapp-tracker/internal/crm"
)

func testClient(serverURL string) *Client {
	return &Client{
		baseURL:     serverURL,
		accessToken: "test-token",
		maxRetries:  3,
		retryDelay:  time.Millisecond,
		httpClient:  &http.Client{Timeout: time.Second},
		log:         zap.NewNop(),
	}
}

func TestClient_Unconfigured(t *testing.T) {
	client := NewClient(config.Kommo{}, zap.NewNop())

	assert.False(t, client.Configured())

	_, err := client.FindContactByPhone(context.Background(), "+5216621234567")
	assert.ErrorIs(t, err, crm.ErrNotConfigured)
}

func TestClient_BearerAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"_embedded":{"contacts":[]}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	contact, err := client.FindContactByPhone(context.Background(), "+5216621234567")
	assert.NoError(t, err)
	assert.Nil(t, contact)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"_embedded":{"leads":[{"id":4242}]}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	leadID, err := client.CreateLead(context.Background(), "Lead de promo_enero", 777, "promo_enero")
	assert.NoError(t, err)
	assert.Equal(t, int64(4242), leadID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_RetriesOnRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":42,"name":"Contact"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	contact, err := client.GetContact(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), contact.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"title":"Bad Request","detail":"invalid payload"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.CreateContact(context.Background(), "+5216621234567")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var apiErr *crm.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid payload", apiErr.Detail)
}

func TestClient_ExhaustedRetriesReturnLastError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.GetLead(context.Background(), 9001)
	assert.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var apiErr *crm.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestClient_FindContactEscapesPhoneQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"_embedded":{"contacts":[]}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.FindContactByPhone(context.Background(), "+5216621234567")
	assert.NoError(t, err)
	assert.Equal(t, "+5216621234567", gotQuery)
}

func TestClient_FindContactParsesPhoneField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"_embedded":{"contacts":[{"id":555,"name":"Juan","custom_fields_values":[{"field_code":"PHONE","values":[{"value":"+5216621234567","enum_code":"WORK"}]}]}]}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	contact, err := client.FindContactByPhone(context.Background(), "+5216621234567")
	assert.NoError(t, err)
	assert.Equal(t, int64(555), contact.ID)
	assert.Equal(t, "+5216621234567", contact.PhoneNumber)
}

func TestClient_PatchLeadFieldsSkipsEmptyList(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := testClient(server.URL)

	err := client.PatchLeadFields(context.Background(), 9001, nil)
	assert.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_NoContentResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server.URL)

	err := client.AttachLeadTag(context.Background(), 9001, "promo_enero")
	assert.NoError(t, err)
}
