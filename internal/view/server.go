package view

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"ticketly-client/internal/api"
	"ticketly-client/internal/booking"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/monitoring"
	"ticketly-client/internal/seatmap"
	"ticketly-client/internal/state"
	"ticketly-client/internal/store"
)

// ChannelProvider hands the view a realtime channel on demand. The view
// connects when a seat session opens and disconnects on teardown,
// mirroring the mount/unmount lifecycle of the event detail screen.
type ChannelProvider interface {
	Connect() (seatmap.SeatChannel, error)
	Disconnect()
}

// Server is the local surface of the client: it renders the seat grid
// and event data as JSON and translates clicks and form submissions into
// protocol actions. It never talks to redis or kafka directly - only
// through the injected collaborators.
type Server struct {
	logger   *logger.Logger
	auth     *state.Auth
	toasts   *state.Toasts
	store    *store.Store
	authAPI  *api.AuthAPI
	events   *api.EventsAPI
	bookings *api.BookingsAPI
	flow     *booking.Flow
	channels ChannelProvider

	pollInterval time.Duration

	mu             sync.Mutex
	session        *seatmap.Session
	sessionEventID int64
}

func NewServer(
	log *logger.Logger,
	auth *state.Auth,
	toasts *state.Toasts,
	st *store.Store,
	authAPI *api.AuthAPI,
	events *api.EventsAPI,
	bookings *api.BookingsAPI,
	flow *booking.Flow,
	channels ChannelProvider,
	pollInterval time.Duration,
) *Server {
	return &Server{
		logger:       log,
		auth:         auth,
		toasts:       toasts,
		store:        st,
		authAPI:      authAPI,
		events:       events,
		bookings:     bookings,
		flow:         flow,
		channels:     channels,
		pollInterval: pollInterval,
	}
}

// Routes builds the chi router for the local view.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", monitoring.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/login", s.handleLogin)
		r.Post("/session/register", s.handleRegister)
		r.Post("/session/logout", s.handleLogout)
		r.Get("/session", s.handleSession)

		r.Get("/toasts", s.handleToasts)

		r.Get("/events", s.handleListEvents)
		r.Get("/events/{eventId}", s.handleGetEvent)
		r.Post("/events", s.handleCreateEvent)
		r.Put("/events/{eventId}", s.handleUpdateEvent)
		r.Delete("/events/{eventId}", s.handleDeleteEvent)

		r.Get("/bookings", s.handleMyBookings)
		r.Put("/bookings/{bookingId}", s.handleUpdateBooking)

		r.Post("/events/{eventId}/open", s.handleOpenSeatSession)
		r.Delete("/events/{eventId}/open", s.handleCloseSeatSession)
		r.Get("/events/{eventId}/seatmap", s.handleSeatmap)
		r.Post("/events/{eventId}/seats/{seatIndex}", s.handleToggleSeat)
		r.Post("/events/{eventId}/booking", s.handleSubmitBooking)
	})

	return r
}

// CloseSession tears down any open seat session, used by the router and
// by graceful shutdown.
func (s *Server) CloseSession() {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.sessionEventID = 0
	s.mu.Unlock()

	if sess != nil {
		sess.Close()
		s.channels.Disconnect()
	}
}

func (s *Server) currentSession(eventID int64) *seatmap.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.sessionEventID != eventID {
		return nil
	}
	return s.session
}

// The local surface speaks the same envelope dialect as the backend:
// data on success, message on failure.

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
