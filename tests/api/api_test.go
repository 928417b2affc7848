//go:build api

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/pkg/database"
	"github.com/Eursukkul/event-checkout/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Runs against a service started with PAYMENT_PROVIDER=stub. Events are
// seeded straight into its database because the API has no write endpoints
// for the catalog.
var (
	serviceURL = getEnv("API_BASE_URL", "http://localhost:8080")
	stubSecret = getEnv("STUB_WEBHOOK_SECRET", "dev-webhook-secret")
)

var db *gorm.DB

func TestAPI_FullFlow(t *testing.T) {
	waitForService(t)

	event, ticket := seed(t)
	gw := payment.NewStubGateway(stubSecret, serviceURL)

	t.Run("Step1_GetEvent", func(t *testing.T) {
		resp := get(t, fmt.Sprintf("%s/api/v1/events/%d", serviceURL, event.ID))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		tickets := body["tickets"].([]any)
		require.Len(t, tickets, 1)
		assert.Equal(t, float64(3), tickets[0].(map[string]any)["remaining"])
	})

	t.Run("Step2_CheckoutRejectsTooMany", func(t *testing.T) {
		resp := post(t, serviceURL+"/api/v1/checkout", map[string]any{
			"eventId": event.ID, "ticketId": ticket.ID, "qty": 4,
		}, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	var sessionID string
	t.Run("Step3_Checkout", func(t *testing.T) {
		resp := post(t, serviceURL+"/api/v1/checkout", map[string]any{
			"eventId": event.ID, "ticketId": ticket.ID, "qty": 2,
			"name": "Ana", "email": "ana@example.com",
		}, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeJSON(t, resp, &body)
		sessionID = body["sessionId"]
		assert.NotEmpty(t, sessionID)
		assert.Contains(t, body["url"], sessionID)
	})

	webhook := map[string]any{
		"id":             "evt_" + sessionID,
		"type":           payment.EventCheckoutCompleted,
		"session_id":     sessionID,
		"payment_status": "paid",
		"amount_total":   4200,
		"currency":       "usd",
		"metadata": map[string]string{
			"eventId":  fmt.Sprint(event.ID),
			"ticketId": fmt.Sprint(ticket.ID),
			"qty":      "2",
			"subtotal": "40.00",
			"name":     "Ana",
			"email":    "ana@example.com",
		},
	}
	payload, err := json.Marshal(webhook)
	require.NoError(t, err)

	t.Run("Step4_WebhookUnsigned", func(t *testing.T) {
		resp := postRaw(t, serviceURL+"/api/v1/webhooks/payments", payload, map[string]string{gw.SignatureHeader(): "bogus"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Step5_WebhookProcessed", func(t *testing.T) {
		resp := postRaw(t, serviceURL+"/api/v1/webhooks/payments", payload, map[string]string{gw.SignatureHeader(): gw.Sign(payload)})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, "processed", body["outcome"])
	})

	t.Run("Step6_WebhookRedelivered", func(t *testing.T) {
		resp := postRaw(t, serviceURL+"/api/v1/webhooks/payments", payload, map[string]string{gw.SignatureHeader(): gw.Sign(payload)})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, "duplicate", body["outcome"])
	})

	t.Run("Step7_RemainingUpdated", func(t *testing.T) {
		resp := get(t, fmt.Sprintf("%s/api/v1/events/%d", serviceURL, event.ID))
		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, float64(1), body["tickets"].([]any)[0].(map[string]any)["remaining"])

		var p models.Payment
		require.NoError(t, db.Where("provider_payment_id = ?", sessionID).First(&p).Error)
		assert.Equal(t, "42.00", p.Amount.StringFixed(2))
	})
}

// Helper functions

func seed(t *testing.T) (*models.Event, *models.Ticket) {
	t.Helper()
	capacity := 3
	event := &models.Event{
		Title:       "API Test Dinner",
		Location:    "Patio",
		StartsAt:    time.Now().Add(24 * time.Hour),
		EndsAt:      time.Now().Add(27 * time.Hour),
		IsPaidEvent: true,
		IsPublished: true,
	}
	require.NoError(t, db.Create(event).Error)
	ticket := &models.Ticket{
		EventID:  event.ID,
		Name:     "Seat",
		Price:    decimal.RequireFromString("20.00"),
		Capacity: &capacity,
		IsActive: true,
	}
	require.NoError(t, db.Create(ticket).Error)
	return event, ticket
}

func waitForService(t *testing.T) {
	for i := 0; i < 30; i++ {
		resp, err := http.Get(serviceURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return
		}
		time.Sleep(time.Second)
	}
	t.Fatal("service did not become ready in time")
}

func get(t *testing.T, url string) *http.Response {
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp
}

func post(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)
	return postRaw(t, url, jsonBody, headers)
}

func postRaw(t *testing.T, url string, body []byte, headers map[string]string) *http.Response {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestMain(m *testing.M) {
	dsn := getEnv("API_TEST_DSN", "host=localhost port=5432 user=postgres password=postgres dbname=restaurant_db sslmode=disable")
	db = database.NewPostgresDB(dsn)
	os.Exit(m.Run())
}
