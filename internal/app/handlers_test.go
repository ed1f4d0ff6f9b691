package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

const createBody = `{"service":"coaching","serviceName":"Coaching Session","price":"₹4000","priceUSD":49,
	"name":"A","email":"a@x.com","phone":"1","date":"2025-06-01","time":"14:00"}`

func createViaAPI(t *testing.T, router http.Handler) string {
	t.Helper()
	rec, out := doJSON(t, router, http.MethodPost, "/api/create-booking", createBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id, _ := out["bookingId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCreateBookingHandler(t *testing.T) {
	a := newTestApp(nil, nil)
	router := NewRouter(a, RouterOptions{})

	rec, out := doJSON(t, router, http.MethodPost, "/api/create-booking", createBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Booking created successfully", out["message"])

	id := out["bookingId"].(string)
	rec, booking := doJSON(t, router, http.MethodGet, "/api/booking/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, booking["bookingId"])
	assert.Equal(t, "pending", booking["status"])
	// prices come back in the JSON form they were sent
	assert.Equal(t, "₹4000", booking["price"])
	assert.Equal(t, float64(49), booking["priceUSD"])
	for _, absent := range []string{"paymentVerified", "transactionId", "calendarEventId", "meetLink"} {
		assert.NotContains(t, booking, absent)
	}
}

func TestCreateBookingHandler_MissingFields(t *testing.T) {
	a := newTestApp(nil, nil)
	router := NewRouter(a, RouterOptions{})

	rec, out := doJSON(t, router, http.MethodPost, "/api/create-booking", `{"name":"A","email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", out["error"])
	assert.Equal(t, 0, a.Store.Len())
}

func TestCreateBookingHandler_EmptyBody(t *testing.T) {
	a := newTestApp(nil, nil)
	router := NewRouter(a, RouterOptions{})

	for _, body := range []string{"", "  \n"} {
		rec, out := doJSON(t, router, http.MethodPost, "/api/create-booking", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing required fields", out["error"])
	}

	req := httptest.NewRequest(http.MethodPost, "/api/create-booking", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields")
	assert.Equal(t, 0, a.Store.Len())
}

func TestCreateBookingHandler_BadJSON(t *testing.T) {
	a := newTestApp(nil, nil)
	router := NewRouter(a, RouterOptions{})

	rec, out := doJSON(t, router, http.MethodPost, "/api/create-booking", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", out["error"])

	rec, _ = doJSON(t, router, http.MethodPost, "/api/create-booking", `{"name":"A","price":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyPaymentHandler(t *testing.T) {
	a := newTestApp(nil, nil)
	router := NewRouter(a, RouterOptions{})
	id := createViaAPI(t, router)

	rec, out := doJSON(t, router, http.MethodPost, "/api/verify-payment", `{"bookingId":"`+id+`","transactionId":"pi_123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["verified"])
	assert.Equal(t, id, out["bookingId"])

	_, booking := doJSON(t, router, http.MethodGet, "/api/booking/"+id, "")
	assert.Equal(t, "confirmed", booking["status"])
	assert.Equal(t, true, booking["paymentVerified"])
	assert.Equal(t, "pi_123", booking["transactionId"])
}

func TestWorkflowHandlers_MissingAndUnknownID(t *testing.T) {
	cal := &stubCalendar{}
	mail := &stubMailer{}
	a := newTestApp(cal, mail)
	router := NewRouter(a, RouterOptions{})

	for _, path := range []string{"/api/verify-payment", "/api/create-calendar-event", "/api/send-confirmation-emails"} {
		t.Run(path, func(t *testing.T) {
			rec, out := doJSON(t, router, http.MethodPost, path, `{}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing bookingId", out["error"])

			rec, out = doJSON(t, router, http.MethodPost, path, `{"bookingId":"nope"}`)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "booking not found", out["error"])
		})
	}

	rec, out := doJSON(t, router, http.MethodGet, "/api/booking/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "booking not found", out["error"])

	assert.Empty(t, cal.calls)
	assert.Empty(t, mail.sent)
}

func TestCreateCalendarEventHandler(t *testing.T) {
	a := newTestApp(&stubCalendar{}, nil)
	router := NewRouter(a, RouterOptions{})
	id := createViaAPI(t, router)

	rec, out := doJSON(t, router, http.MethodPost, "/api/create-calendar-event", `{"bookingId":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "evt1", out["eventId"])
	assert.Equal(t, "No meet link", out["meetLink"])

	_, booking := doJSON(t, router, http.MethodGet, "/api/booking/"+id, "")
	assert.Equal(t, "evt1", booking["calendarEventId"])
	assert.Equal(t, "No meet link", booking["meetLink"])
}

func TestCreateCalendarEventHandler_ProviderError(t *testing.T) {
	cal := &stubCalendar{createFn: func(ctx context.Context, req EventRequest) (*CreatedEvent, error) {
		return nil, errors.New("invalid_grant")
	}}
	a := newTestApp(cal, nil)
	router := NewRouter(a, RouterOptions{})
	id := createViaAPI(t, router)

	rec, out := doJSON(t, router, http.MethodPost, "/api/create-calendar-event", `{"bookingId":"`+id+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, out["error"], "invalid_grant")
}

func TestSendConfirmationEmailsHandler(t *testing.T) {
	mail := &stubMailer{}
	a := newTestApp(nil, mail)
	router := NewRouter(a, RouterOptions{})
	id := createViaAPI(t, router)

	rec, out := doJSON(t, router, http.MethodPost, "/api/send-confirmation-emails", `{"bookingId":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Emails sent successfully", out["message"])
	assert.Len(t, mail.sent, 2)
}

func TestSendConfirmationEmailsHandler_MailError(t *testing.T) {
	a := newTestApp(nil, nil)
	router := NewRouter(a, RouterOptions{})
	id := createViaAPI(t, router)

	rec, out := doJSON(t, router, http.MethodPost, "/api/send-confirmation-emails", `{"bookingId":"`+id+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, out["error"], "mail sender not configured")
}

func TestHealthHandler(t *testing.T) {
	router := NewRouter(newTestApp(nil, nil), RouterOptions{})

	rec, out := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "2025-05-20T10:30:00Z", out["timestamp"])
}

func TestCalendarAuthHandlers_Unconfigured(t *testing.T) {
	router := NewRouter(newTestApp(nil, nil), RouterOptions{})

	rec, _ := doJSON(t, router, http.MethodGet, "/api/calendar/auth", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/oauth2callback?code=abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCalendarAuthHandler(t *testing.T) {
	a := newTestApp(nil, nil)
	a.OAuth = NewOAuthConfig("client-id", "secret", "http://localhost:3000/oauth2callback")
	router := NewRouter(a, RouterOptions{})

	rec, out := doJSON(t, router, http.MethodGet, "/api/calendar/auth", "")
	require.Equal(t, http.StatusOK, rec.Code)
	url, _ := out["auth_url"].(string)
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "access_type=offline")
	assert.NotEmpty(t, out["state"])

	rec, out = doJSON(t, router, http.MethodGet, "/oauth2callback", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "authorization code required", out["error"])
}

func TestRecovery(t *testing.T) {
	a := newTestApp(nil, nil)
	router := NewRouter(a, RouterOptions{})
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec, out := doJSON(t, router, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", out["error"])
}
