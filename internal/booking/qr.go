package booking

import (
	"encoding/json"

	"github.com/skip2/go-qrcode"

	"ticketly-client/internal/models"
)

// ConfirmationEncoder renders the booking confirmation payload as a
// scannable QR PNG.
type ConfirmationEncoder struct {
	size int
}

func NewConfirmationEncoder() *ConfirmationEncoder {
	return &ConfirmationEncoder{size: 256}
}

func (e *ConfirmationEncoder) Encode(payload models.ConfirmationPayload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, e.size)
}
