package realtime_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ticketly-client/internal/config"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/realtime"
)

// TestChannelIntegration drives the realtime channel against a real
// redis container: join, receive pushed frames, send intents.
func TestChannelIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping realtime integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = redisContainer.Terminate(ctx) }()

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)
	addr := host + ":" + port.Port()

	log := logger.NewLogger()
	defer log.Close()

	channel, err := realtime.Connect(config.RealtimeConfig{RedisAddr: addr}, log)
	require.NoError(t, err)
	defer realtime.Disconnect()

	// connecting again reuses the shared channel
	again, err := realtime.Connect(config.RealtimeConfig{RedisAddr: addr}, log)
	require.NoError(t, err)
	assert.Same(t, channel, again)

	// the server side of the protocol, listening on the control channel
	server := redis.NewClient(&redis.Options{Addr: addr})
	defer server.Close()

	controlSub := server.Subscribe(ctx, "event:42:control")
	_, err = controlSub.Receive(ctx)
	require.NoError(t, err)
	defer controlSub.Close()

	var mu sync.Mutex
	var lockedFrames []models.SeatLocked
	unsub := channel.OnSeatLocked(func(ev models.SeatLocked) {
		mu.Lock()
		defer mu.Unlock()
		lockedFrames = append(lockedFrames, ev)
	})
	defer unsub()

	require.NoError(t, channel.JoinEvent(ctx, 42))

	// joining announces itself on the control channel
	msg, err := controlSub.ReceiveTimeout(ctx, 5*time.Second)
	require.NoError(t, err)
	var joinFrame models.SeatFrame
	require.NoError(t, json.Unmarshal([]byte(msg.(*redis.Message).Payload), &joinFrame))
	assert.Equal(t, models.FrameJoinEvent, joinFrame.Event)

	// a lock intent lands on the control channel too
	require.NoError(t, channel.LockSeat(ctx, 42, 7, "user-1"))
	msg, err = controlSub.ReceiveTimeout(ctx, 5*time.Second)
	require.NoError(t, err)
	var lockFrame models.SeatFrame
	require.NoError(t, json.Unmarshal([]byte(msg.(*redis.Message).Payload), &lockFrame))
	assert.Equal(t, models.FrameLockSeat, lockFrame.Event)

	var intent models.SeatIntent
	require.NoError(t, json.Unmarshal(lockFrame.Data, &intent))
	assert.Equal(t, 7, intent.SeatIndex)
	assert.Equal(t, "user-1", intent.UserID)

	// a frame pushed to the room reaches the subscriber
	pushed, err := json.Marshal(models.SeatFrame{
		Event: models.FrameSeatLocked,
		Data:  json.RawMessage(`{"seatIndex":5,"userId":"user-2"}`),
	})
	require.NoError(t, err)
	require.NoError(t, server.Publish(ctx, "event:42:seats", pushed).Err())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lockedFrames) == 1
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 5, lockedFrames[0].SeatIndex)
	assert.Equal(t, "user-2", lockedFrames[0].UserID)
	mu.Unlock()
}
