package api

import (
	"context"
	"fmt"

	"ticketly-client/internal/models"
)

type BookingsAPI struct {
	client *Client
}

func NewBookingsAPI(client *Client) *BookingsAPI {
	return &BookingsAPI{client: client}
}

// ListByEvent fetches all bookings for one event. This is the poll the
// seat reconciler runs every cycle, so it stays a single round trip.
func (b *BookingsAPI) ListByEvent(ctx context.Context, eventID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := b.client.Get(ctx, fmt.Sprintf("/bookings?eventId=%d", eventID), &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (b *BookingsAPI) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := b.client.Get(ctx, "/bookings/user/"+userID, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (b *BookingsAPI) Create(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	var booking models.Booking
	if err := b.client.Post(ctx, "/bookings", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatus is the admin path for confirming or cancelling a booking.
func (b *BookingsAPI) UpdateStatus(ctx context.Context, id int64, status string) (*models.Booking, error) {
	body := map[string]string{"status": status}
	var booking models.Booking
	if err := b.client.Put(ctx, fmt.Sprintf("/bookings/%d", id), body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
