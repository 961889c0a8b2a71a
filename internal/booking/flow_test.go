package booking_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/api"
	"ticketly-client/internal/booking"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/seatmap"
)

type noTokens struct{}

func (noTokens) Token() string { return "" }

// nullChannel satisfies seatmap.SeatChannel without any transport.
type nullChannel struct{}

func (nullChannel) JoinEvent(context.Context, int64) error               { return nil }
func (nullChannel) LockSeat(context.Context, int64, int, string) error   { return nil }
func (nullChannel) UnlockSeat(context.Context, int64, int, string) error { return nil }
func (nullChannel) OnSeatLocked(func(models.SeatLocked)) func()          { return func() {} }
func (nullChannel) OnSeatUnlocked(func(models.SeatUnlocked)) func()      { return func() {} }
func (nullChannel) OnSeatLockFailed(func(models.SeatLockFailed)) func()  { return func() {} }
func (nullChannel) OnLockedSeats(func(models.LockedSeats)) func()        { return func() {} }

type emptyBookings struct{}

func (emptyBookings) ListByEvent(context.Context, int64) ([]models.Booking, error) {
	return nil, nil
}

func newSessionWithSeats(t *testing.T, seats ...int) *seatmap.Session {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(log.Close)

	event := models.Event{ID: 42, Title: "Test Event", Price: 25.0, TotalSeats: 20}
	user := models.User{ID: "user-1", Name: "Test User", Email: "test@example.com"}

	sess := seatmap.NewSession(event, user, nullChannel{}, emptyBookings{}, nil, nil, log)
	require.NoError(t, sess.Start(context.Background(), time.Hour))
	t.Cleanup(sess.Close)

	for _, seat := range seats {
		_, err := sess.ToggleSeat(context.Background(), seat)
		require.NoError(t, err)
	}
	return sess
}

func newFlow(t *testing.T, baseURL string) *booking.Flow {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(log.Close)

	client := api.NewClient(baseURL, noTokens{}, log,
		api.WithBackoff(func(int) time.Duration { return 0 }))
	return booking.NewFlow(api.NewBookingsAPI(client), booking.NewConfirmationEncoder(), log)
}

func TestSubmitCreatesBookingWithTotalAndSeats(t *testing.T) {
	var received models.BookingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/bookings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		created := models.Booking{
			ID:          101,
			EventID:     received.EventID,
			Seats:       received.Seats,
			Quantity:    received.Quantity,
			TotalAmount: received.TotalAmount,
			Status:      models.BookingStatusPending,
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": created})
	}))
	defer srv.Close()

	sess := newSessionWithSeats(t, 7, 3)
	flow := newFlow(t, srv.URL)

	conf, err := flow.Submit(context.Background(), sess, booking.Contact{
		Name:  "Test User",
		Email: "test@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 7}, received.Seats)
	assert.Equal(t, 2, received.Quantity)
	assert.Equal(t, 50.0, received.TotalAmount)
	assert.Equal(t, int64(101), conf.Booking.ID)
	assert.NotEmpty(t, conf.QRPNG, "confirmation code must be rendered")

	// a scannable code is a PNG
	assert.True(t, bytes.HasPrefix(conf.QRPNG, []byte("\x89PNG")))
}

func TestSubmitRejectsEmptySelection(t *testing.T) {
	sess := newSessionWithSeats(t)
	flow := newFlow(t, "http://localhost:0")

	_, err := flow.Submit(context.Background(), sess, booking.Contact{Name: "x", Email: "x@y.z"})
	assert.ErrorIs(t, err, booking.ErrNoSeatsSelected)
}

func TestSubmitFailureKeepsSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Seats no longer available"}`))
	}))
	defer srv.Close()

	sess := newSessionWithSeats(t, 5)
	flow := newFlow(t, srv.URL)

	_, err := flow.Submit(context.Background(), sess, booking.Contact{Name: "x", Email: "x@y.z"})
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Seats no longer available", apiErr.Message)
	assert.Equal(t, []int{5}, sess.SelectedSeats(), "failed submission must not drop the selection")
}

func TestComputeTotal(t *testing.T) {
	assert.Equal(t, 50.0, booking.ComputeTotal(2, 25.0))
	assert.Equal(t, 0.0, booking.ComputeTotal(0, 25.0))
	// exact to the cent where naive float math drifts
	assert.Equal(t, 0.3, booking.ComputeTotal(3, 0.1))
	assert.Equal(t, 32.97, booking.ComputeTotal(3, 10.99))
}
