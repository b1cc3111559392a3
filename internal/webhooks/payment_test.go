package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/VenkaSri/booking-backend/internal/checkout"
	"github.com/VenkaSri/booking-backend/internal/models"
)

const testSecret = "whsec_test"

// MockCheckoutService mocks the checkout surface driven by webhooks.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Confirm(ctx context.Context, checkoutToken, providerPaymentID string) (*models.Booking, error) {
	args := m.Called(ctx, checkoutToken, providerPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockCheckoutService) Release(ctx context.Context, checkoutToken string) error {
	args := m.Called(ctx, checkoutToken)
	return args.Error(0)
}

// MockDeduper mocks event ID deduplication.
type MockDeduper struct {
	mock.Mock
}

func (m *MockDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeduper) Forget(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// memDeduper is a set-if-absent deduper with the same semantics as the Redis
// implementation, for exercising record/forget ordering across deliveries.
type memDeduper struct {
	seen map[string]bool
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: make(map[string]bool)}
}

func (d *memDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	if d.seen[eventID] {
		return true, nil
	}
	d.seen[eventID] = true
	return false, nil
}

func (d *memDeduper) Forget(_ context.Context, eventID string) error {
	delete(d.seen, eventID)
	return nil
}

func setupWebhookRouter(svc *MockCheckoutService, deduper Deduper) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPaymentHandler(testSecret, svc, deduper, nil)
	r := gin.New()
	r.POST("/webhooks/payment", h.Handle)
	return r
}

func postEvent(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	router.ServeHTTP(w, req)
	return w
}

func eventBody(t *testing.T, id, eventType, token, paymentID string) []byte {
	t.Helper()
	b, err := json.Marshal(gin.H{
		"id":   id,
		"type": eventType,
		"data": gin.H{"checkout_token": token, "payment_id": paymentID},
	})
	assert.NoError(t, err)
	return b
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "tok", "pay_1")
	w := postEvent(router, body, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "tok", "pay_1")
	w := postEvent(router, body, Sign("wrong-secret", body))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	body := []byte(`{"type":""}`)
	w := postEvent(router, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookSucceededConfirmsBooking(t *testing.T) {
	svc := new(MockCheckoutService)
	deduper := new(MockDeduper)
	router := setupWebhookRouter(svc, deduper)

	booking := &models.Booking{ID: uuid.New(), SessionID: uuid.New()}
	deduper.On("Seen", mock.Anything, "evt_1").Return(false, nil)
	svc.On("Confirm", mock.Anything, "tok", "pay_1").Return(booking, nil)

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "tok", "pay_1")
	w := postEvent(router, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Data.Status)
	svc.AssertExpectations(t)
}

func TestWebhookDuplicateEventIgnored(t *testing.T) {
	svc := new(MockCheckoutService)
	deduper := new(MockDeduper)
	router := setupWebhookRouter(svc, deduper)

	deduper.On("Seen", mock.Anything, "evt_1").Return(true, nil)

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "tok", "pay_1")
	w := postEvent(router, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookTransientConfirmFailureAllowsRetry(t *testing.T) {
	svc := new(MockCheckoutService)
	deduper := newMemDeduper()
	router := setupWebhookRouter(svc, deduper)

	booking := &models.Booking{ID: uuid.New(), SessionID: uuid.New()}
	svc.On("Confirm", mock.Anything, "tok", "pay_1").Return(nil, errors.New("db down")).Once()
	svc.On("Confirm", mock.Anything, "tok", "pay_1").Return(booking, nil).Once()

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "tok", "pay_1")

	// First delivery fails transiently; the dedupe record must be dropped so
	// the provider's retry is not acked as a duplicate.
	w := postEvent(router, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = postEvent(router, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertNumberOfCalls(t, "Confirm", 2)

	// And once the retry lands, a third delivery really is a duplicate.
	w = postEvent(router, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertNumberOfCalls(t, "Confirm", 2)
}

func TestWebhookTransientReleaseFailureAllowsRetry(t *testing.T) {
	svc := new(MockCheckoutService)
	deduper := newMemDeduper()
	router := setupWebhookRouter(svc, deduper)

	svc.On("Release", mock.Anything, "tok").Return(errors.New("db down")).Once()
	svc.On("Release", mock.Anything, "tok").Return(nil).Once()

	body := eventBody(t, "evt_2", EventPaymentFailed, "tok", "")

	w := postEvent(router, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = postEvent(router, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertNumberOfCalls(t, "Release", 2)
}

func TestWebhookSucceededExpiredHoldAcked(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	svc.On("Confirm", mock.Anything, "tok", "pay_1").Return(nil, checkout.ErrHoldExpired)

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "tok", "pay_1")
	w := postEvent(router, body, Sign(testSecret, body))

	// Acked so the provider stops retrying; the payment needs manual follow-up.
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hold_expired", resp.Data.Status)
}

func TestWebhookSucceededUnknownToken(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	svc.On("Confirm", mock.Anything, "tok", "pay_1").Return(nil, checkout.ErrHoldNotFound)

	body := eventBody(t, "evt_1", EventPaymentSucceeded, "tok", "pay_1")
	w := postEvent(router, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookFailedReleasesHold(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	svc.On("Release", mock.Anything, "tok").Return(nil)

	body := eventBody(t, "evt_1", EventPaymentFailed, "tok", "")
	w := postEvent(router, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestWebhookFailedAfterConfirmIsAcked(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	svc.On("Release", mock.Anything, "tok").Return(checkout.ErrHoldConfirmed)

	body := eventBody(t, "evt_1", EventPaymentCanceled, "tok", "")
	w := postEvent(router, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "already_confirmed", resp.Data.Status)
}

func TestWebhookUnknownTypeAcked(t *testing.T) {
	svc := new(MockCheckoutService)
	router := setupWebhookRouter(svc, nil)

	body := eventBody(t, "evt_1", "payment.refund_created", "tok", "")
	w := postEvent(router, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}
