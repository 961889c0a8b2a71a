package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/seatmap"
)

// ErrNoSeatsSelected rejects a submission with an empty selection.
var ErrNoSeatsSelected = errors.New("no seats selected")

// Contact is the booking dialog's form content.
type Contact struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile,omitempty"`
}

// Confirmation is the successful outcome: the persisted booking plus the
// scannable code for it.
type Confirmation struct {
	Booking models.Booking `json:"booking"`
	QRPNG   []byte         `json:"qrPng"`
}

// Flow turns the current seat selection plus contact fields into a
// booking submission. On failure the selection is left intact and no
// lock rollback happens beyond what the user does by hand; on success
// the reconciler's next poll reclassifies the seats as booked.
type Flow struct {
	bookings *api.BookingsAPI
	encoder  *ConfirmationEncoder
	logger   *logger.Logger
}

func NewFlow(bookings *api.BookingsAPI, encoder *ConfirmationEncoder, log *logger.Logger) *Flow {
	return &Flow{bookings: bookings, encoder: encoder, logger: log}
}

func (f *Flow) Submit(ctx context.Context, sess *seatmap.Session, contact Contact) (*Confirmation, error) {
	seats := sess.SelectedSeats()
	if len(seats) == 0 {
		return nil, ErrNoSeatsSelected
	}

	event := sess.Event()
	total := ComputeTotal(len(seats), event.Price)

	req := models.BookingRequest{
		EventID:     event.ID,
		Seats:       seats,
		Quantity:    len(seats),
		TotalAmount: total,
		Name:        contact.Name,
		Email:       contact.Email,
		Mobile:      contact.Mobile,
	}

	f.logger.Info("BOOKING", fmt.Sprintf("Submitting booking: event=%d seats=%v total=%.2f", event.ID, seats, total))

	created, err := f.bookings.Create(ctx, req)
	if err != nil {
		f.logger.Error("BOOKING", fmt.Sprintf("Booking submission failed: %v", err))
		return nil, err
	}

	png, err := f.encoder.Encode(models.ConfirmationPayload{
		BookingID: created.ID,
		EventID:   created.EventID,
		Seats:     created.Seats,
	})
	if err != nil {
		// the booking is committed either way; a broken code is not a
		// reason to report failure
		f.logger.Warn("BOOKING", fmt.Sprintf("Failed to render confirmation code: %v", err))
	}

	f.logger.Info("BOOKING", fmt.Sprintf("Booking %d confirmed for event %d", created.ID, created.EventID))
	return &Confirmation{Booking: *created, QRPNG: png}, nil
}

// ComputeTotal prices a selection: seat count times unit price, exact to
// the cent.
func ComputeTotal(count int, unitPrice float64) float64 {
	total := decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(count))).
		Round(2)
	out, _ := total.Float64()
	return out
}
