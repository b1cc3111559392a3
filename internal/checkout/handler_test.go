package checkout

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/VenkaSri/booking-backend/internal/models"
)

func setupRouter(store *MockStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := newTestService(store, nil, nil)
	h := NewHandler(svc, nil)
	r := gin.New()
	r.POST("/checkout", h.Start)
	r.GET("/checkout/:token", h.Status)
	return r
}

func startBody(t *testing.T, sessionID uuid.UUID) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(gin.H{
		"session_id": sessionID,
		"email":      "alice@example.com",
		"full_name":  "Alice",
	})
	assert.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestStartHandlerCreated(t *testing.T) {
	store := new(MockStore)
	router := setupRouter(store)

	sessionID := uuid.New()
	hold := &models.PendingRegistration{
		ID:            uuid.New(),
		SessionID:     sessionID,
		CheckoutToken: "tok123",
		Status:        models.HoldStatusPending,
		ExpiresAt:     fixedNow().Add(15 * time.Minute),
	}
	store.On("PlaceHold", mock.Anything, mock.Anything).Return(hold, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", startBody(t, sessionID))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			CheckoutToken string `json:"checkout_token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "tok123", body.Data.CheckoutToken)
}

func TestStartHandlerValidation(t *testing.T) {
	store := new(MockStore)
	router := setupRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "PlaceHold", mock.Anything, mock.Anything)
}

func TestStartHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		storeErr error
		want     int
	}{
		{"session not found", ErrSessionNotFound, http.StatusNotFound},
		{"session closed", ErrSessionClosed, http.StatusConflict},
		{"session full", ErrSessionFull, http.StatusConflict},
		{"already booked", ErrAlreadyBooked, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockStore)
			router := setupRouter(store)
			store.On("PlaceHold", mock.Anything, mock.Anything).Return(nil, tc.storeErr)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/checkout", startBody(t, uuid.New()))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestStatusHandlerNotFound(t *testing.T) {
	store := new(MockStore)
	router := setupRouter(store)
	store.On("GetHoldByToken", mock.Anything, "missing").Return(nil, ErrHoldNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/checkout/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusHandlerOK(t *testing.T) {
	store := new(MockStore)
	router := setupRouter(store)
	hold := &models.PendingRegistration{
		ID:            uuid.New(),
		CheckoutToken: "tok123",
		Status:        models.HoldStatusConfirmed,
		ExpiresAt:     fixedNow().Add(10 * time.Minute),
	}
	store.On("GetHoldByToken", mock.Anything, "tok123").Return(hold, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/checkout/tok123", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.PendingRegistration `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.HoldStatusConfirmed, body.Data.Status)
}

func TestStatusHandlerGone(t *testing.T) {
	cases := []struct {
		name string
		hold models.PendingRegistration
	}{
		{"lapsed pending hold", models.PendingRegistration{
			Status:    models.HoldStatusPending,
			ExpiresAt: fixedNow().Add(-time.Minute),
		}},
		{"released hold", models.PendingRegistration{
			Status:    models.HoldStatusReleased,
			ExpiresAt: fixedNow().Add(10 * time.Minute),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockStore)
			router := setupRouter(store)
			hold := tc.hold
			hold.ID = uuid.New()
			hold.CheckoutToken = "tok123"
			store.On("GetHoldByToken", mock.Anything, "tok123").Return(&hold, nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/checkout/tok123", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusGone, w.Code)
			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
		})
	}
}
