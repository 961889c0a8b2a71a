package models

import (
	"time"
)

// Event statuses as reported by the backend.
const (
	EventStatusLive     = "live"
	EventStatusUpcoming = "upcoming"
	EventStatusClosed   = "closed"
)

// Event is the read-mostly cached copy of a backend event. Seats have no
// identity of their own: a seat is just an index in [1, TotalSeats].
type Event struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	Price          float64   `json:"price"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	Status         string    `json:"status"`
	Image          string    `json:"image,omitempty"`
}

// EventRequest is the payload for creating or updating an event.
type EventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	TotalSeats  int       `json:"totalSeats"`
	Status      string    `json:"status"`
	Image       string    `json:"image,omitempty"`
}
