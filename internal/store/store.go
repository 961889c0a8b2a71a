package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticketly-client/internal/models"
)

// ErrNoSession is returned when no persisted session exists.
var ErrNoSession = errors.New("no persisted session")

// Store is the client-local persistent state: the session (token + user
// profile) and a read-mostly cache of events and bookings. It plays the
// role browser local storage plays for the web client.
type Store struct {
	Bun *bun.DB
}

type sessionRow struct {
	bun.BaseModel `bun:"table:session"`

	ID       int64     `bun:"id,pk"`
	Token    string    `bun:"token,notnull"`
	UserJSON string    `bun:"user_json,notnull"`
	SavedAt  time.Time `bun:"saved_at,notnull"`
}

type cachedEvent struct {
	bun.BaseModel `bun:"table:cached_events"`

	ID        int64     `bun:"id,pk"`
	Payload   string    `bun:"payload,notnull"`
	FetchedAt time.Time `bun:"fetched_at,notnull"`
}

type cachedBooking struct {
	bun.BaseModel `bun:"table:cached_bookings"`

	ID        int64     `bun:"id,pk"`
	EventID   int64     `bun:"event_id,notnull"`
	Payload   string    `bun:"payload,notnull"`
	FetchedAt time.Time `bun:"fetched_at,notnull"`
}

// Open opens (or creates) the sqlite store at path.
func Open(path string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?cache=shared", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// sqlite handles one writer at a time
	sqldb.SetMaxOpenConns(1)

	return &Store{Bun: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func (s *Store) Close() error {
	return s.Bun.Close()
}

// ---------------- SESSION ----------------

type Session struct {
	Token   string
	User    models.User
	SavedAt time.Time
}

// SaveSession persists the token and user profile, replacing any
// previous session. There is only ever one row.
func (s *Store) SaveSession(ctx context.Context, token string, user models.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	row := sessionRow{
		ID:       1,
		Token:    token,
		UserJSON: string(userJSON),
		SavedAt:  time.Now().UTC(),
	}
	_, err = s.Bun.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("user_json = EXCLUDED.user_json").
		Set("saved_at = EXCLUDED.saved_at").
		Exec(ctx)
	return err
}

func (s *Store) LoadSession(ctx context.Context) (*Session, error) {
	var row sessionRow
	err := s.Bun.NewSelect().
		Model(&row).
		Where("id = 1").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(row.UserJSON), &user); err != nil {
		return nil, fmt.Errorf("corrupt session row: %w", err)
	}

	return &Session{Token: row.Token, User: user, SavedAt: row.SavedAt}, nil
}

// ClearSession removes the persisted session. Invoked on logout and on
// any HTTP 401 from the backend.
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.Bun.NewDelete().
		Model((*sessionRow)(nil)).
		Where("id = 1").
		Exec(ctx)
	return err
}

// ---------------- EVENT CACHE ----------------

func (s *Store) UpsertEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]cachedEvent, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode event %d: %w", ev.ID, err)
		}
		rows = append(rows, cachedEvent{ID: ev.ID, Payload: string(payload), FetchedAt: now})
	}

	_, err := s.Bun.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("fetched_at = EXCLUDED.fetched_at").
		Exec(ctx)
	return err
}

func (s *Store) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var row cachedEvent
	err := s.Bun.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var ev models.Event
	if err := json.Unmarshal([]byte(row.Payload), &ev); err != nil {
		return nil, fmt.Errorf("corrupt cached event %d: %w", id, err)
	}
	return &ev, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	var rows []cachedEvent
	if err := s.Bun.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		var ev models.Event
		if err := json.Unmarshal([]byte(row.Payload), &ev); err != nil {
			return nil, fmt.Errorf("corrupt cached event %d: %w", row.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	_, err := s.Bun.NewDelete().
		Model((*cachedEvent)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- BOOKING CACHE ----------------

// ReplaceBookings swaps the cached booking set for one event with the
// latest server truth from a poll cycle or the admin feed.
func (s *Store) ReplaceBookings(ctx context.Context, eventID int64, bookings []models.Booking) error {
	now := time.Now().UTC()

	return s.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*cachedBooking)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return err
		}
		if len(bookings) == 0 {
			return nil
		}

		rows := make([]cachedBooking, 0, len(bookings))
		for _, b := range bookings {
			payload, err := json.Marshal(b)
			if err != nil {
				return fmt.Errorf("failed to encode booking %d: %w", b.ID, err)
			}
			rows = append(rows, cachedBooking{
				ID:        b.ID,
				EventID:   eventID,
				Payload:   string(payload),
				FetchedAt: now,
			})
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
}

func (s *Store) ListBookings(ctx context.Context, eventID int64) ([]models.Booking, error) {
	var rows []cachedBooking
	err := s.Bun.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	bookings := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		var b models.Booking
		if err := json.Unmarshal([]byte(row.Payload), &b); err != nil {
			return nil, fmt.Errorf("corrupt cached booking %d: %w", row.ID, err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
