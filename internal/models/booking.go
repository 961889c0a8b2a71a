package models

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is a persisted, backend-confirmed purchase of seats for an
// event. The backend is authoritative for whether the requested seats
// were actually free at commit time.
type Booking struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"eventId"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Mobile      string    `json:"mobile,omitempty"`
	Seats       []int     `json:"seats"`
	Quantity    int       `json:"quantity"`
	TotalAmount float64   `json:"totalAmount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookingRequest is the submission payload for POST /bookings.
type BookingRequest struct {
	EventID     int64   `json:"eventId"`
	Seats       []int   `json:"seats"`
	Quantity    int     `json:"quantity"`
	TotalAmount float64 `json:"totalAmount"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Mobile      string  `json:"mobile,omitempty"`
}

// ConfirmationPayload is the structured object encoded into the
// scannable booking confirmation code.
type ConfirmationPayload struct {
	BookingID int64 `json:"bookingId"`
	EventID   int64 `json:"eventId"`
	Seats     []int `json:"seats"`
}
