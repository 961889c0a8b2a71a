package seatmap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/monitoring"
)

var (
	// ErrSeatUnavailable rejects clicks on seats held by someone else or
	// already booked.
	ErrSeatUnavailable = errors.New("seat is not available")
	// ErrSeatOutOfRange rejects seat indices outside [1, totalSeats].
	ErrSeatOutOfRange = errors.New("seat index out of range")
	// ErrSessionClosed rejects operations after teardown.
	ErrSessionClosed = errors.New("seat session is closed")
)

// SeatChannel is what the session needs from the realtime client. It is
// an interface so the reconciler tests run against a scripted fake
// instead of a live connection.
type SeatChannel interface {
	JoinEvent(ctx context.Context, eventID int64) error
	LockSeat(ctx context.Context, eventID int64, seatIndex int, userID string) error
	UnlockSeat(ctx context.Context, eventID int64, seatIndex int, userID string) error
	OnSeatLocked(fn func(models.SeatLocked)) func()
	OnSeatUnlocked(fn func(models.SeatUnlocked)) func()
	OnSeatLockFailed(fn func(models.SeatLockFailed)) func()
	OnLockedSeats(fn func(models.LockedSeats)) func()
}

// BookingSource supplies the server-confirmed bookings for one event.
type BookingSource interface {
	ListByEvent(ctx context.Context, eventID int64) ([]models.Booking, error)
}

// EventSource refreshes the cached event (availableSeats drifts as other
// clients book).
type EventSource interface {
	Get(ctx context.Context, id int64) (*models.Event, error)
}

// Notifier surfaces transient notifications; the session never renders
// UI itself.
type Notifier interface {
	Notify(title, message string)
}

// Session reconciles three independent signals into one displayable seat
// status per index: the local selection, the server-pushed lock set and
// the polled booking set. All mutation happens under one lock; the
// derivation itself is pure.
type Session struct {
	event    models.Event
	user     models.User
	channel  SeatChannel
	bookings BookingSource
	events   EventSource
	notify   Notifier
	logger   *logger.Logger

	mu       sync.Mutex
	selected []int
	locked   map[int]string
	booked   map[int]struct{}
	closed   bool

	unsubs     []func()
	cancelPoll context.CancelFunc
}

func NewSession(event models.Event, user models.User, channel SeatChannel, bookings BookingSource, events EventSource, notify Notifier, log *logger.Logger) *Session {
	return &Session{
		event:    event,
		user:     user,
		channel:  channel,
		bookings: bookings,
		events:   events,
		notify:   notify,
		logger:   log,
		locked:   make(map[int]string),
		booked:   make(map[int]struct{}),
	}
}

// Start joins the event room, subscribes the push handlers, runs one
// immediate booking refresh and starts the poll loop. The poll stops
// when Close is called or ctx ends.
func (s *Session) Start(ctx context.Context, pollInterval time.Duration) error {
	if err := s.channel.JoinEvent(ctx, s.event.ID); err != nil {
		return fmt.Errorf("failed to join event room: %w", err)
	}

	s.mu.Lock()
	s.unsubs = append(s.unsubs,
		s.channel.OnSeatLocked(s.handleSeatLocked),
		s.channel.OnSeatUnlocked(s.handleSeatUnlocked),
		s.channel.OnSeatLockFailed(s.handleSeatLockFailed),
		s.channel.OnLockedSeats(s.ApplySnapshot),
	)
	s.mu.Unlock()

	if err := s.RefreshBookings(ctx); err != nil {
		s.logger.Warn("SEATMAP", fmt.Sprintf("Initial booking refresh failed: %v", err))
	}

	pollCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelPoll = cancel
	s.mu.Unlock()

	go s.poll(pollCtx, pollInterval)
	return nil
}

// poll drives periodic reconciliation against the REST source. Booking
// completion has no push path, so convergence to booked is bounded by
// this interval.
func (s *Session) poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshBookings(ctx); err != nil {
				s.logger.Warn("SEATMAP", fmt.Sprintf("Booking refresh failed: %v", err))
			}
		}
	}
}

// RefreshBookings re-fetches the event's bookings and recomputes the
// booked set as the union of seats across non-cancelled bookings. Also
// refreshes the cached event counters when an EventSource is wired.
func (s *Session) RefreshBookings(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	eventID := s.event.ID
	s.mu.Unlock()

	if s.events != nil {
		if ev, err := s.events.Get(ctx, eventID); err == nil {
			s.mu.Lock()
			if !s.closed {
				s.event = *ev
			}
			s.mu.Unlock()
		}
	}

	bookings, err := s.bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}

	booked := make(map[int]struct{})
	for _, b := range bookings {
		if b.Status == models.BookingStatusCancelled {
			continue
		}
		for _, seat := range b.Seats {
			booked[seat] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.booked = booked
	monitoring.PollCycles.Inc()
	return nil
}

// handleSeatLocked applies an incremental lock push. Frames echoing this
// user's own lock are ignored: the local selection already reflects the
// intent, and trusting the echo would race the user's next click.
func (s *Session) handleSeatLocked(ev models.SeatLocked) {
	if ev.UserID == s.user.ID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.locked[ev.SeatIndex] = ev.UserID
}

// handleSeatUnlocked removes the lock entry whoever held it; the most
// recent message for a seat wins.
func (s *Session) handleSeatUnlocked(ev models.SeatUnlocked) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.locked, ev.SeatIndex)
}

// handleSeatLockFailed is the sole error-recovery path for a rejected
// optimistic selection: retract the seat and tell the user why. There is
// no automatic retry - the user must click again.
func (s *Session) handleSeatLockFailed(ev models.SeatLockFailed) {
	if ev.UserID != "" && ev.UserID != s.user.ID {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.selected = removeSeat(s.selected, ev.SeatIndex)
	eventID := s.event.ID
	s.mu.Unlock()

	monitoring.LockFailures.Inc()
	s.logger.LogSeat("LOCK_FAILED", eventID, ev.SeatIndex, ev.Reason)
	if s.notify != nil {
		s.notify.Notify("Seat Lock Failed", ev.Reason)
	}
}

// ApplySnapshot replaces the lock set wholesale with the server's full
// mapping. This resolves drift from missed incremental frames and is
// idempotent by construction.
func (s *Session) ApplySnapshot(snapshot models.LockedSeats) {
	locked := make(map[int]string, len(snapshot))
	for key, holder := range snapshot {
		seat, err := strconv.Atoi(key)
		if err != nil {
			s.logger.Warn("SEATMAP", fmt.Sprintf("Ignoring bad seat index %q in snapshot", key))
			continue
		}
		locked[seat] = holder
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.locked = locked
}

// ToggleSeat translates a click into a selection transition plus a lock
// or unlock intent. Clicks on seats held by others or booked are
// rejected. The event copy is only read under the lock: the poll
// goroutine rewrites it on every refresh.
func (s *Session) ToggleSeat(ctx context.Context, seat int) (Status, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	if seat < 1 || seat > s.event.TotalSeats {
		s.mu.Unlock()
		return "", ErrSeatOutOfRange
	}
	eventID := s.event.ID

	status := DeriveStatus(seat, s.user.ID, s.selected, s.locked, s.booked)
	switch status {
	case StatusBooked, StatusLocked:
		s.mu.Unlock()
		return status, ErrSeatUnavailable

	case StatusSelected, StatusLockedByMe:
		s.selected = removeSeat(s.selected, seat)
		s.mu.Unlock()
		if err := s.channel.UnlockSeat(ctx, eventID, seat, s.user.ID); err != nil {
			s.logger.Warn("SEATMAP", fmt.Sprintf("Unlock intent failed for seat %d: %v", seat, err))
		}
		return StatusAvailable, nil

	default: // available
		s.selected = append(s.selected, seat)
		s.mu.Unlock()
		if err := s.channel.LockSeat(ctx, eventID, seat, s.user.ID); err != nil {
			s.logger.Warn("SEATMAP", fmt.Sprintf("Lock intent failed for seat %d: %v", seat, err))
		}
		return StatusSelected, nil
	}
}

// StatusOf derives one seat's current status.
func (s *Session) StatusOf(seat int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeriveStatus(seat, s.user.ID, s.selected, s.locked, s.booked)
}

// Grid renders the whole seat grid, one view per index in [1, total].
func (s *Session) Grid() []SeatView {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid := make([]SeatView, 0, s.event.TotalSeats)
	for seat := 1; seat <= s.event.TotalSeats; seat++ {
		grid = append(grid, SeatView{
			Index:  seat,
			Status: DeriveStatus(seat, s.user.ID, s.selected, s.locked, s.booked),
		})
	}
	return grid
}

// SelectedSeats returns the local selection in ascending order.
func (s *Session) SelectedSeats() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.selected))
	copy(out, s.selected)
	sort.Ints(out)
	return out
}

// Event returns the session's current event copy.
func (s *Session) Event() models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event
}

// Close tears the session down: stops the poller, unsubscribes the push
// handlers and marks the session so late callbacks become no-ops.
// In-flight requests are not aborted; their results are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancelPoll
	unsubs := s.unsubs
	s.unsubs = nil
	eventID := s.event.ID
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, unsub := range unsubs {
		unsub()
	}
	s.logger.Info("SEATMAP", fmt.Sprintf("Seat session for event %d closed", eventID))
}

func removeSeat(seats []int, seat int) []int {
	out := seats[:0]
	for _, s := range seats {
		if s != seat {
			out = append(out, s)
		}
	}
	return out
}
