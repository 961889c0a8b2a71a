package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticketly-client/internal/api"
	"ticketly-client/internal/booking"
	"ticketly-client/internal/models"
	"ticketly-client/internal/seatmap"
)

// ---------------- SESSION ----------------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid login payload")
		return
	}

	s.auth.BeginLogin()
	result, err := s.authAPI.Login(r.Context(), creds)
	if err != nil {
		s.auth.FailLogin(err.Error())
		s.respondAPIError(w, err)
		return
	}

	if err := s.store.SaveSession(r.Context(), result.Token, result.User); err != nil {
		s.logger.Error("VIEW", fmt.Sprintf("Failed to persist session: %v", err))
	}
	s.auth.CompleteLogin(result.User, result.Token)
	s.logger.Info("VIEW", fmt.Sprintf("Signed in as %s", result.User.Email))
	writeData(w, http.StatusOK, result.User)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid registration payload")
		return
	}

	s.auth.BeginLogin()
	result, err := s.authAPI.Register(r.Context(), reg)
	if err != nil {
		s.auth.FailLogin(err.Error())
		s.respondAPIError(w, err)
		return
	}

	if err := s.store.SaveSession(r.Context(), result.Token, result.User); err != nil {
		s.logger.Error("VIEW", fmt.Sprintf("Failed to persist session: %v", err))
	}
	s.auth.CompleteLogin(result.User, result.Token)
	writeData(w, http.StatusCreated, result.User)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.CloseSession()
	if err := s.store.ClearSession(r.Context()); err != nil {
		s.logger.Error("VIEW", fmt.Sprintf("Failed to clear session: %v", err))
	}
	s.auth.Logout(false)
	writeData(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	snap := s.auth.Snapshot()
	writeData(w, http.StatusOK, map[string]any{
		"user":        snap.User,
		"loading":     snap.Loading,
		"error":       snap.Error,
		"forcedLogin": snap.ForcedLogin,
	})
}

func (s *Server) handleToasts(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.toasts.Drain())
}

// ---------------- EVENTS ----------------

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.List(r.Context())
	if err != nil {
		// degrade to the local cache when the backend is unreachable
		cached, cacheErr := s.store.ListEvents(r.Context())
		if cacheErr != nil || len(cached) == 0 {
			s.respondAPIError(w, err)
			return
		}
		s.logger.Warn("VIEW", fmt.Sprintf("Serving %d events from cache: %v", len(cached), err))
		writeData(w, http.StatusOK, cached)
		return
	}

	if err := s.store.UpsertEvents(r.Context(), events); err != nil {
		s.logger.Warn("VIEW", fmt.Sprintf("Failed to cache events: %v", err))
	}
	writeData(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	event, err := s.events.Get(r.Context(), eventID)
	if err != nil {
		cached, cacheErr := s.store.GetEvent(r.Context(), eventID)
		if cacheErr != nil {
			s.respondAPIError(w, err)
			return
		}
		s.logger.Warn("VIEW", fmt.Sprintf("Serving event %d from cache: %v", eventID, err))
		writeData(w, http.StatusOK, cached)
		return
	}

	if err := s.store.UpsertEvents(r.Context(), []models.Event{*event}); err != nil {
		s.logger.Warn("VIEW", fmt.Sprintf("Failed to cache event %d: %v", eventID, err))
	}
	writeData(w, http.StatusOK, event)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}

	event, err := s.events.Create(r.Context(), req)
	if err != nil {
		s.respondAPIError(w, err)
		return
	}
	writeData(w, http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}

	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}

	event, err := s.events.Update(r.Context(), eventID, req)
	if err != nil {
		s.respondAPIError(w, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}

	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := s.events.Delete(r.Context(), eventID); err != nil {
		s.respondAPIError(w, err)
		return
	}
	if err := s.store.DeleteEvent(r.Context(), eventID); err != nil {
		s.logger.Warn("VIEW", fmt.Sprintf("Failed to drop cached event %d: %v", eventID, err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------- BOOKINGS ----------------

func (s *Server) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	user := s.auth.CurrentUser()
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	bookings, err := s.bookings.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.respondAPIError(w, err)
		return
	}
	writeData(w, http.StatusOK, bookings)
}

func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w) {
		return
	}

	bookingID, err := parseID(chi.URLParam(r, "bookingId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid booking id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid booking payload")
		return
	}

	updated, err := s.bookings.UpdateStatus(r.Context(), bookingID, body.Status)
	if err != nil {
		s.respondAPIError(w, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

// ---------------- SEAT SELECTION ----------------

func (s *Server) handleOpenSeatSession(w http.ResponseWriter, r *http.Request) {
	user := s.auth.CurrentUser()
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Sign in to select seats")
		return
	}

	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	event, err := s.events.Get(r.Context(), eventID)
	if err != nil {
		s.respondAPIError(w, err)
		return
	}

	// one active event detail session per client; opening a new one
	// tears the old one down
	s.CloseSession()

	channel, err := s.channels.Connect()
	if err != nil {
		writeError(w, http.StatusBadGateway, "Realtime channel unavailable")
		return
	}

	sess := seatmap.NewSession(*event, *user, channel, s.bookingSource(), s.events, s.toasts, s.logger)
	// the session outlives this request, so it cannot run on the request
	// context; its poller stops on Close
	if err := sess.Start(context.Background(), s.pollInterval); err != nil {
		s.channels.Disconnect()
		writeError(w, http.StatusBadGateway, "Failed to join seat updates")
		return
	}

	s.mu.Lock()
	s.session = sess
	s.sessionEventID = eventID
	s.mu.Unlock()

	s.logger.Info("VIEW", fmt.Sprintf("Seat session opened for event %d", eventID))
	writeData(w, http.StatusOK, map[string]any{
		"event":   event,
		"seatmap": sess.Grid(),
	})
}

func (s *Server) handleCloseSeatSession(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}
	if s.currentSession(eventID) == nil {
		writeError(w, http.StatusNotFound, "No open seat session for this event")
		return
	}

	s.CloseSession()
	writeData(w, http.StatusOK, map[string]bool{"closed": true})
}

func (s *Server) handleSeatmap(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	sess := s.currentSession(eventID)
	if sess == nil {
		writeError(w, http.StatusNotFound, "No open seat session for this event")
		return
	}

	event := sess.Event()
	selected := sess.SelectedSeats()
	writeData(w, http.StatusOK, map[string]any{
		"event":    event,
		"seatmap":  sess.Grid(),
		"selected": selected,
		"total":    booking.ComputeTotal(len(selected), event.Price),
	})
}

func (s *Server) handleToggleSeat(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}
	seatIndex, err := strconv.Atoi(chi.URLParam(r, "seatIndex"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid seat index")
		return
	}

	sess := s.currentSession(eventID)
	if sess == nil {
		writeError(w, http.StatusNotFound, "No open seat session for this event")
		return
	}

	status, err := sess.ToggleSeat(r.Context(), seatIndex)
	switch {
	case errors.Is(err, seatmap.ErrSeatOutOfRange):
		writeError(w, http.StatusBadRequest, "Seat index out of range")
		return
	case errors.Is(err, seatmap.ErrSeatUnavailable):
		writeError(w, http.StatusConflict, "Seat is not available")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"seatIndex": seatIndex,
		"status":    status,
		"selected":  sess.SelectedSeats(),
	})
}

func (s *Server) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	sess := s.currentSession(eventID)
	if sess == nil {
		writeError(w, http.StatusNotFound, "No open seat session for this event")
		return
	}

	var contact booking.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact payload")
		return
	}

	confirmation, err := s.flow.Submit(r.Context(), sess, contact)
	if errors.Is(err, booking.ErrNoSeatsSelected) {
		writeError(w, http.StatusBadRequest, "Please select at least one seat")
		return
	}
	if err != nil {
		// selection stays intact; the user may retry or adjust
		s.respondAPIError(w, err)
		return
	}

	writeData(w, http.StatusCreated, confirmation)
}

// ---------------- HELPERS ----------------

func (s *Server) requireAdmin(w http.ResponseWriter) bool {
	if !s.auth.IsAdmin() {
		writeError(w, http.StatusForbidden, "Administrator role required")
		return false
	}
	return true
}

// respondAPIError maps a remote data client failure onto the local
// surface, keeping the backend's message when there is one.
func (s *Server) respondAPIError(w http.ResponseWriter, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		// session already cleared by the client hook
		writeError(w, http.StatusUnauthorized, "Session expired, please sign in again")
		return
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status >= 500 {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
		return
	}

	writeError(w, http.StatusBadGateway, err.Error())
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// bookingSource wraps the bookings API so every reconciliation poll also
// refreshes the local cache.
func (s *Server) bookingSource() seatmap.BookingSource {
	return &cachingBookingSource{server: s}
}

type cachingBookingSource struct {
	server *Server
}

func (c *cachingBookingSource) ListByEvent(ctx context.Context, eventID int64) ([]models.Booking, error) {
	bookings, err := c.server.bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := c.server.store.ReplaceBookings(ctx, eventID, bookings); err != nil {
		c.server.logger.Warn("VIEW", fmt.Sprintf("Failed to cache bookings for event %d: %v", eventID, err))
	}
	return bookings, nil
}
