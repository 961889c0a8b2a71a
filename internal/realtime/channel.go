package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"ticketly-client/internal/config"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/monitoring"
)

// The realtime connection is a process-wide singleton, the way a browser
// tab holds one socket: repeated connects reuse it, disconnect tears it
// down and clears the reference.
var (
	singletonMu sync.Mutex
	singleton   *Channel
)

// Connect lazily creates the shared channel, reusing an existing one.
func Connect(cfg config.RealtimeConfig, log *logger.Logger) (*Channel, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singleton != nil {
		return singleton, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("realtime connection error: %w", err)
	}

	singleton = newChannel(client, log)
	log.Info("REALTIME", fmt.Sprintf("Connected to messaging channel at %s", cfg.RedisAddr))
	return singleton, nil
}

// Disconnect tears down the shared channel. Safe to call when nothing
// is connected.
func Disconnect() {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singleton != nil {
		singleton.close()
		singleton = nil
	}
}

// Channel provides room-scoped pub/sub over the messaging endpoint: one
// room per event carrying server-pushed seat frames, one control channel
// carrying this client's intents. Lock/unlock intents are fire and
// forget; the server is the sole arbiter of whether a lock is granted.
type Channel struct {
	client *redis.Client
	logger *logger.Logger

	mu       sync.Mutex
	pubsub   *redis.PubSub
	joinedID int64
	closed   bool

	registry *registry
}

func newChannel(client *redis.Client, log *logger.Logger) *Channel {
	return &Channel{
		client:   client,
		logger:   log,
		registry: newRegistry(),
	}
}

func roomChannel(eventID int64) string {
	return fmt.Sprintf("event:%d:seats", eventID)
}

func controlChannel(eventID int64) string {
	return fmt.Sprintf("event:%d:control", eventID)
}

// JoinEvent announces interest in one event's seat updates: subscribes
// the room channel and asks the server for the current lock snapshot.
// Joining a new event leaves the previous room.
func (c *Channel) JoinEvent(ctx context.Context, eventID int64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("channel is closed")
	}
	if c.pubsub != nil {
		_ = c.pubsub.Close()
		c.pubsub = nil
	}

	pubsub := c.client.Subscribe(ctx, roomChannel(eventID))
	c.pubsub = pubsub
	c.joinedID = eventID
	c.mu.Unlock()

	// force the subscription before announcing, so the snapshot reply
	// is not lost
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to join event room: %w", err)
	}

	go c.receive(pubsub)

	c.logger.Info("REALTIME", fmt.Sprintf("Joined event room %d", eventID))
	return c.sendIntent(ctx, eventID, models.FrameJoinEvent, models.SeatIntent{EventID: eventID})
}

// LockSeat sends a fire-and-forget lock intent for one seat.
func (c *Channel) LockSeat(ctx context.Context, eventID int64, seatIndex int, userID string) error {
	monitoring.LockRequests.WithLabelValues("lock").Inc()
	return c.sendIntent(ctx, eventID, models.FrameLockSeat, models.SeatIntent{
		EventID:   eventID,
		SeatIndex: seatIndex,
		UserID:    userID,
	})
}

// UnlockSeat sends a fire-and-forget unlock intent for one seat.
func (c *Channel) UnlockSeat(ctx context.Context, eventID int64, seatIndex int, userID string) error {
	monitoring.LockRequests.WithLabelValues("unlock").Inc()
	return c.sendIntent(ctx, eventID, models.FrameUnlockSeat, models.SeatIntent{
		EventID:   eventID,
		SeatIndex: seatIndex,
		UserID:    userID,
	})
}

func (c *Channel) sendIntent(ctx context.Context, eventID int64, frame string, intent models.SeatIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}
	payload, err := json.Marshal(models.SeatFrame{Event: frame, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	if err := c.client.Publish(ctx, controlChannel(eventID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s intent: %w", frame, err)
	}
	return nil
}

// Subscription surface. Each On* registers a callback for one frame type
// and returns its unsubscribe function. Delivery order is arrival order;
// the reconciler applies last-write-wins per seat on top.

func (c *Channel) OnSeatLocked(fn func(models.SeatLocked)) func() {
	return c.registry.add(models.FrameSeatLocked, func(data json.RawMessage) {
		var ev models.SeatLocked
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Bad seatLocked payload: %v", err))
			return
		}
		fn(ev)
	})
}

func (c *Channel) OnSeatUnlocked(fn func(models.SeatUnlocked)) func() {
	return c.registry.add(models.FrameSeatUnlocked, func(data json.RawMessage) {
		var ev models.SeatUnlocked
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Bad seatUnlocked payload: %v", err))
			return
		}
		fn(ev)
	})
}

func (c *Channel) OnSeatLockFailed(fn func(models.SeatLockFailed)) func() {
	return c.registry.add(models.FrameSeatLockFailed, func(data json.RawMessage) {
		var ev models.SeatLockFailed
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Bad seatLockFailed payload: %v", err))
			return
		}
		fn(ev)
	})
}

func (c *Channel) OnLockedSeats(fn func(models.LockedSeats)) func() {
	return c.registry.add(models.FrameLockedSeats, func(data json.RawMessage) {
		var snapshot models.LockedSeats
		if err := json.Unmarshal(data, &snapshot); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Bad lockedSeats payload: %v", err))
			return
		}
		fn(snapshot)
	})
}

// receive is the single dispatch loop for one room subscription. It ends
// when the subscription closes (room switch or disconnect).
func (c *Channel) receive(pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		var frame models.SeatFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			c.logger.Warn("REALTIME", fmt.Sprintf("Dropping malformed frame: %v", err))
			continue
		}
		monitoring.RealtimeFrames.WithLabelValues(frame.Event).Inc()
		c.registry.dispatch(frame.Event, frame.Data)
	}
}

func (c *Channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.pubsub != nil {
		_ = c.pubsub.Close()
		c.pubsub = nil
	}
	if err := c.client.Close(); err != nil {
		c.logger.Warn("REALTIME", fmt.Sprintf("Error closing connection: %v", err))
	}
	c.logger.Info("REALTIME", "Disconnected from messaging channel")
}
