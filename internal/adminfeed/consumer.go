package adminfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

// Consumer streams booking-created events from the platform topic so an
// administrator session sees new bookings without refreshing. This is a
// convenience feed, not part of the seat protocol: seat state still
// converges through the reconciler's poll.
type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

// Start consumes until ctx ends. Malformed messages are logged and
// skipped.
func (c *Consumer) Start(ctx context.Context, handler func(models.Booking)) {
	c.logger.Info("KAFKA", "Admin booking feed started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("KAFKA", "Admin booking feed stopped")
				return
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		var booking models.Booking
		if err := json.Unmarshal(msg.Value, &booking); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal booking event: %v", err))
			continue
		}

		c.logger.Info("KAFKA", fmt.Sprintf("Received booking event: id=%d event=%d", booking.ID, booking.EventID))
		handler(booking)
	}
}

// Close gracefully shuts down the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
