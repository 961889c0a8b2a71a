package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Token() string { return s.token }

func noBackoff(int) time.Duration { return 0 }

func newTestClient(t *testing.T, baseURL, token string, opts ...api.Option) *api.Client {
	t.Helper()
	log := logger.NewLogger()
	t.Cleanup(log.Close)

	opts = append([]api.Option{api.WithBackoff(noBackoff)}, opts...)
	return api.NewClient(baseURL, &staticTokens{token: token}, log, opts...)
}

func TestGetDecodesDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/1", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":1,"title":"Concert","totalSeats":50}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "tok-123")

	var event models.Event
	err := client.Get(context.Background(), "/events/1", &event)
	require.NoError(t, err)
	assert.Equal(t, int64(1), event.ID)
	assert.Equal(t, "Concert", event.Title)
	assert.Equal(t, 50, event.TotalSeats)
}

func TestRetriesTransientFailures(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	var event models.Event
	err := client.Get(context.Background(), "/events/1", &event)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	err := client.Get(context.Background(), "/events", nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestUnauthorizedClearsSessionAndNeverRetries(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var hookFired int32
	client := newTestClient(t, srv.URL, "stale-token",
		api.WithOnUnauthorized(func() { atomic.AddInt32(&hookFired, 1) }))

	err := client.Get(context.Background(), "/bookings", nil)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "401 must not be retried")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookFired))
}

func TestClientErrorSurfacesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Seats no longer available"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	err := client.Post(context.Background(), "/bookings", map[string]any{}, nil)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Seats no longer available", apiErr.Message)
}

func TestClientErrorWithoutMessageGetsGenericText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	err := client.Get(context.Background(), "/events", nil)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Something went wrong, please try again", apiErr.Message)
}

func TestNoAuthorizationHeaderWhenSignedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	var events []models.Event
	require.NoError(t, client.Get(context.Background(), "/events", &events))
}

func TestRetryStopsWhenContextEnds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	log := logger.NewLogger()
	t.Cleanup(log.Close)
	client := api.NewClient(srv.URL, &staticTokens{}, log,
		api.WithBackoff(func(int) time.Duration { return time.Hour }))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Get(ctx, "/events", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
