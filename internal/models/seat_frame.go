package models

import (
	"encoding/json"
)

// Realtime frame names, client to server.
const (
	FrameJoinEvent  = "joinEvent"
	FrameLockSeat   = "lockSeat"
	FrameUnlockSeat = "unlockSeat"
)

// Realtime frame names, server to client.
const (
	FrameSeatLocked     = "seatLocked"
	FrameSeatUnlocked   = "seatUnlocked"
	FrameSeatLockFailed = "seatLockFailed"
	FrameLockedSeats    = "lockedSeats"
)

// SeatFrame is the wire format on the realtime channel: an event name
// plus a raw payload decoded by the handler that cares about it.
type SeatFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SeatIntent is the client-to-server payload for join/lock/unlock.
type SeatIntent struct {
	EventID   int64  `json:"eventId"`
	SeatIndex int    `json:"seatIndex,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// SeatLocked is pushed when the server grants a lock to any user.
type SeatLocked struct {
	SeatIndex int    `json:"seatIndex"`
	UserID    string `json:"userId"`
}

// SeatUnlocked is pushed when a lock is released, whoever held it.
type SeatUnlocked struct {
	SeatIndex int `json:"seatIndex"`
}

// SeatLockFailed is pushed to the requesting user when the server
// rejects a lock attempt, e.g. a race lost to another user.
type SeatLockFailed struct {
	SeatIndex int    `json:"seatIndex"`
	UserID    string `json:"userId"`
	Reason    string `json:"reason"`
}

// LockedSeats is the full snapshot of the server's current lock set for
// one event: seat index (as a decimal string key) to holding user.
type LockedSeats map[string]string
