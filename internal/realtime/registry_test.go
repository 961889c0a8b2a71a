package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchReachesEverySubscriber(t *testing.T) {
	r := newRegistry()

	var first, second int
	r.add("seatLocked", func(json.RawMessage) { first++ })
	r.add("seatLocked", func(json.RawMessage) { second++ })
	r.add("seatUnlocked", func(json.RawMessage) { t.Fatal("wrong frame dispatched") })

	r.dispatch("seatLocked", json.RawMessage(`{}`))

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestDispatchUnknownFrameIsNoop(t *testing.T) {
	r := newRegistry()
	r.dispatch("unknown", json.RawMessage(`{}`))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	r := newRegistry()

	var calls int
	unsub := r.add("seatLocked", func(json.RawMessage) { calls++ })

	r.dispatch("seatLocked", nil)
	unsub()
	r.dispatch("seatLocked", nil)

	assert.Equal(t, 1, calls)

	// unsubscribing twice is safe
	unsub()
}

func TestUnsubscribeOnlyRemovesOwnHandler(t *testing.T) {
	r := newRegistry()

	var kept int
	unsub := r.add("seatLocked", func(json.RawMessage) { t.Fatal("removed handler invoked") })
	r.add("seatLocked", func(json.RawMessage) { kept++ })

	unsub()
	r.dispatch("seatLocked", nil)

	assert.Equal(t, 1, kept)
}

func TestPayloadReachesHandler(t *testing.T) {
	r := newRegistry()

	var got string
	r.add("seatLocked", func(data json.RawMessage) { got = string(data) })

	r.dispatch("seatLocked", json.RawMessage(`{"seatIndex":3}`))
	assert.JSONEq(t, `{"seatIndex":3}`, got)
}
