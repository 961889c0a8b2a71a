package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticketly-client/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	st := &Store{Bun: bun.NewDB(sqldb, sqlitedialect.New())}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	for _, model := range []any{(*sessionRow)(nil), (*cachedEvent)(nil), (*cachedBooking)(nil)} {
		_, err := st.Bun.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return st
}

func testUser() models.User {
	return models.User{ID: "user-1", Name: "Test User", Email: "test@example.com", Role: models.RoleUser}
}

func TestSessionRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	_, err := st.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, st.SaveSession(ctx, "tok-123", testUser()))

	sess, err := st.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", sess.Token)
	assert.Equal(t, "test@example.com", sess.User.Email)
	assert.WithinDuration(t, time.Now().UTC(), sess.SavedAt, time.Minute)
}

func TestSaveSessionReplacesPrevious(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, "tok-old", testUser()))
	require.NoError(t, st.SaveSession(ctx, "tok-new", testUser()))

	sess, err := st.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-new", sess.Token)
}

func TestClearSession(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, "tok-123", testUser()))
	require.NoError(t, st.ClearSession(ctx))

	_, err := st.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	// clearing an empty store is not an error
	assert.NoError(t, st.ClearSession(ctx))
}

func TestEventCacheUpsert(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	events := []models.Event{
		{ID: 1, Title: "First", TotalSeats: 10},
		{ID: 2, Title: "Second", TotalSeats: 20},
	}
	require.NoError(t, st.UpsertEvents(ctx, events))

	// upsert with a changed title overwrites
	events[0].Title = "First (updated)"
	require.NoError(t, st.UpsertEvents(ctx, events[:1]))

	got, err := st.GetEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "First (updated)", got.Title)

	all, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(2), all[1].ID)
}

func TestUpsertEventsEmptyIsNoop(t *testing.T) {
	st := setupTestStore(t)
	assert.NoError(t, st.UpsertEvents(context.Background(), nil))
}

func TestDeleteEvent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertEvents(ctx, []models.Event{{ID: 1, Title: "Gone"}}))
	require.NoError(t, st.DeleteEvent(ctx, 1))

	_, err := st.GetEvent(ctx, 1)
	assert.Error(t, err)
}

func TestReplaceBookingsSwapsSet(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	first := []models.Booking{
		{ID: 1, EventID: 42, Seats: []int{1, 2}, Status: models.BookingStatusConfirmed},
		{ID: 2, EventID: 42, Seats: []int{3}, Status: models.BookingStatusPending},
	}
	require.NoError(t, st.ReplaceBookings(ctx, 42, first))

	second := []models.Booking{
		{ID: 3, EventID: 42, Seats: []int{5}, Status: models.BookingStatusConfirmed},
	}
	require.NoError(t, st.ReplaceBookings(ctx, 42, second))

	got, err := st.ListBookings(ctx, 42)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, []int{5}, got[0].Seats)
}

func TestReplaceBookingsScopedToEvent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.ReplaceBookings(ctx, 1, []models.Booking{{ID: 1, EventID: 1, Seats: []int{1}}}))
	require.NoError(t, st.ReplaceBookings(ctx, 2, []models.Booking{{ID: 2, EventID: 2, Seats: []int{1}}}))

	// wiping event 1's bookings leaves event 2 untouched
	require.NoError(t, st.ReplaceBookings(ctx, 1, nil))

	one, err := st.ListBookings(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, one)

	two, err := st.ListBookings(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 1)
}
