package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// MockStore mocks the checkout persistence layer.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) PlaceHold(ctx context.Context, p PlaceHoldParams) (*models.PendingRegistration, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingRegistration), args.Error(1)
}

func (m *MockStore) ConfirmHold(ctx context.Context, checkoutToken, providerPaymentID string, now time.Time) (*models.Booking, bool, error) {
	args := m.Called(ctx, checkoutToken, providerPaymentID, now)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Booking), args.Bool(1), args.Error(2)
}

func (m *MockStore) ReleaseHold(ctx context.Context, checkoutToken string, now time.Time) (*models.PendingRegistration, error) {
	args := m.Called(ctx, checkoutToken, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingRegistration), args.Error(1)
}

func (m *MockStore) GetHoldByToken(ctx context.Context, checkoutToken string) (*models.PendingRegistration, error) {
	args := m.Called(ctx, checkoutToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingRegistration), args.Error(1)
}

func (m *MockStore) ExpireStale(ctx context.Context, now time.Time) ([]models.PendingRegistration, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PendingRegistration), args.Error(1)
}

func (m *MockStore) Availability(ctx context.Context, sessionID uuid.UUID, now time.Time) (*models.SessionAvailability, error) {
	args := m.Called(ctx, sessionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionAvailability), args.Error(1)
}

// MockBroadcaster records availability broadcasts.
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastAvailability(av models.SessionAvailability) {
	m.Called(av)
}

// MockNotifier records queued confirmation emails.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BookingConfirmed(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func newTestService(store *MockStore, b *MockBroadcaster, n *MockNotifier) *Service {
	var broadcaster Broadcaster
	if b != nil {
		broadcaster = b
	}
	var notifier Notifier
	if n != nil {
		notifier = n
	}
	svc := NewService(store, broadcaster, notifier, 15*time.Minute, nil)
	svc.now = fixedNow
	return svc
}

func TestStartPlacesHoldAndBroadcasts(t *testing.T) {
	store := new(MockStore)
	broadcaster := new(MockBroadcaster)
	svc := newTestService(store, broadcaster, nil)

	sessionID := uuid.New()
	hold := &models.PendingRegistration{
		ID:        uuid.New(),
		SessionID: sessionID,
		Email:     "alice@example.com",
		Status:    models.HoldStatusPending,
		ExpiresAt: fixedNow().Add(15 * time.Minute),
	}
	av := &models.SessionAvailability{SessionID: sessionID, Capacity: 10, Booked: 2, ActiveHolds: 1, Remaining: 7}

	store.On("PlaceHold", mock.Anything, mock.MatchedBy(func(p PlaceHoldParams) bool {
		return p.SessionID == sessionID &&
			p.Email == "alice@example.com" &&
			p.ExpiresAt.Equal(fixedNow().Add(15*time.Minute)) &&
			p.CheckoutToken != ""
	})).Return(hold, nil)
	store.On("Availability", mock.Anything, sessionID, fixedNow()).Return(av, nil)
	broadcaster.On("BroadcastAvailability", *av).Return()

	got, err := svc.Start(context.Background(), sessionID, "alice@example.com", "Alice")
	assert.NoError(t, err)
	assert.Equal(t, hold.ID, got.ID)
	store.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestStartSessionFull(t *testing.T) {
	store := new(MockStore)
	broadcaster := new(MockBroadcaster)
	svc := newTestService(store, broadcaster, nil)

	store.On("PlaceHold", mock.Anything, mock.Anything).Return(nil, ErrSessionFull)

	_, err := svc.Start(context.Background(), uuid.New(), "bob@example.com", "Bob")
	assert.ErrorIs(t, err, ErrSessionFull)
	broadcaster.AssertNotCalled(t, "BroadcastAvailability", mock.Anything)
}

func TestConfirmNewBookingNotifiesAndBroadcasts(t *testing.T) {
	store := new(MockStore)
	broadcaster := new(MockBroadcaster)
	notifier := new(MockNotifier)
	svc := newTestService(store, broadcaster, notifier)

	sessionID := uuid.New()
	booking := &models.Booking{ID: uuid.New(), SessionID: sessionID, Email: "alice@example.com"}
	av := &models.SessionAvailability{SessionID: sessionID, Capacity: 10, Booked: 3, Remaining: 7}

	store.On("ConfirmHold", mock.Anything, "tok", "pay_1", fixedNow()).Return(booking, false, nil)
	store.On("Availability", mock.Anything, sessionID, fixedNow()).Return(av, nil)
	notifier.On("BookingConfirmed", mock.Anything, booking).Return(nil)
	broadcaster.On("BroadcastAvailability", *av).Return()

	got, err := svc.Confirm(context.Background(), "tok", "pay_1")
	assert.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestConfirmRepeatIsIdempotent(t *testing.T) {
	store := new(MockStore)
	broadcaster := new(MockBroadcaster)
	notifier := new(MockNotifier)
	svc := newTestService(store, broadcaster, notifier)

	booking := &models.Booking{ID: uuid.New(), SessionID: uuid.New()}
	store.On("ConfirmHold", mock.Anything, "tok", "pay_1", fixedNow()).Return(booking, true, nil)

	got, err := svc.Confirm(context.Background(), "tok", "pay_1")
	assert.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	// A repeat confirmation must not queue a second email or re-broadcast.
	notifier.AssertNotCalled(t, "BookingConfirmed", mock.Anything, mock.Anything)
	broadcaster.AssertNotCalled(t, "BroadcastAvailability", mock.Anything)
}

func TestConfirmExpiredHold(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store, nil, nil)

	store.On("ConfirmHold", mock.Anything, "tok", "pay_1", fixedNow()).Return(nil, false, ErrHoldExpired)

	_, err := svc.Confirm(context.Background(), "tok", "pay_1")
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestConfirmNotifierFailureDoesNotFailConfirm(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := newTestService(store, nil, notifier)

	booking := &models.Booking{ID: uuid.New(), SessionID: uuid.New()}
	store.On("ConfirmHold", mock.Anything, "tok", "pay_1", fixedNow()).Return(booking, false, nil)
	notifier.On("BookingConfirmed", mock.Anything, booking).Return(errors.New("queue down"))

	got, err := svc.Confirm(context.Background(), "tok", "pay_1")
	assert.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
}

func TestReleaseBroadcasts(t *testing.T) {
	store := new(MockStore)
	broadcaster := new(MockBroadcaster)
	svc := newTestService(store, broadcaster, nil)

	sessionID := uuid.New()
	hold := &models.PendingRegistration{ID: uuid.New(), SessionID: sessionID, Status: models.HoldStatusReleased}
	av := &models.SessionAvailability{SessionID: sessionID, Capacity: 10, Remaining: 10}

	store.On("ReleaseHold", mock.Anything, "tok", fixedNow()).Return(hold, nil)
	store.On("Availability", mock.Anything, sessionID, fixedNow()).Return(av, nil)
	broadcaster.On("BroadcastAvailability", *av).Return()

	err := svc.Release(context.Background(), "tok")
	assert.NoError(t, err)
	broadcaster.AssertExpectations(t)
}

func TestStatusReportsLapsedPendingAsExpired(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store, nil, nil)

	hold := &models.PendingRegistration{
		ID:        uuid.New(),
		Status:    models.HoldStatusPending,
		ExpiresAt: fixedNow().Add(-time.Minute),
	}
	store.On("GetHoldByToken", mock.Anything, "tok").Return(hold, nil)

	got, err := svc.Status(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, models.HoldStatusExpired, got.Status)
}

func TestStatusKeepsLiveHoldPending(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store, nil, nil)

	hold := &models.PendingRegistration{
		ID:        uuid.New(),
		Status:    models.HoldStatusPending,
		ExpiresAt: fixedNow().Add(5 * time.Minute),
	}
	store.On("GetHoldByToken", mock.Anything, "tok").Return(hold, nil)

	got, err := svc.Status(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, models.HoldStatusPending, got.Status)
}

func TestExpireStaleBroadcastsOncePerSession(t *testing.T) {
	store := new(MockStore)
	broadcaster := new(MockBroadcaster)
	svc := newTestService(store, broadcaster, nil)

	sessionA := uuid.New()
	sessionB := uuid.New()
	expired := []models.PendingRegistration{
		{ID: uuid.New(), SessionID: sessionA},
		{ID: uuid.New(), SessionID: sessionA},
		{ID: uuid.New(), SessionID: sessionB},
	}
	avA := &models.SessionAvailability{SessionID: sessionA, Capacity: 5, Remaining: 5}
	avB := &models.SessionAvailability{SessionID: sessionB, Capacity: 8, Remaining: 8}

	store.On("ExpireStale", mock.Anything, fixedNow()).Return(expired, nil)
	store.On("Availability", mock.Anything, sessionA, fixedNow()).Return(avA, nil).Once()
	store.On("Availability", mock.Anything, sessionB, fixedNow()).Return(avB, nil).Once()
	broadcaster.On("BroadcastAvailability", *avA).Return().Once()
	broadcaster.On("BroadcastAvailability", *avB).Return().Once()

	n, err := svc.ExpireStale(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	broadcaster.AssertExpectations(t)
}

func TestGenerateTokenIsUnique(t *testing.T) {
	a, err := generateToken()
	assert.NoError(t, err)
	b, err := generateToken()
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
