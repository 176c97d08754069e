package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: uuid.New(),
		Send:   make(chan []byte, 4),
	}
}

func recv(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.Send:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestBroadcastReachesAllRoomMembers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	orderID := uuid.New()
	a, b := newTestClient(), newTestClient()
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	hub.JoinOrder(a, orderID)
	hub.JoinOrder(b, orderID)
	require.Equal(t, 2, hub.RoomSize(orderID))

	hub.BroadcastToOrder(orderID, map[string]string{"type": "new_message", "text": "hi"})

	// both connections receive the push, the sender's included
	for _, c := range []*Client{a, b} {
		payload := recv(t, c)
		assert.Equal(t, "new_message", payload["type"])
	}
}

func TestBroadcastScopedToRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	orderA, orderB := uuid.New(), uuid.New()
	a, b := newTestClient(), newTestClient()
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	hub.JoinOrder(a, orderA)
	hub.JoinOrder(b, orderB)

	hub.BroadcastToOrder(orderA, map[string]string{"type": "new_message"})

	recv(t, a)
	select {
	case raw := <-b.Send:
		t.Fatalf("client outside the room received %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClientMayJoinMultipleRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	orderA, orderB := uuid.New(), uuid.New()
	c := newTestClient()
	hub.RegisterClient(c)
	hub.JoinOrder(c, orderA)
	hub.JoinOrder(c, orderB)

	hub.BroadcastToOrder(orderA, map[string]string{"order": "a"})
	hub.BroadcastToOrder(orderB, map[string]string{"order": "b"})

	assert.Equal(t, "a", recv(t, c)["order"])
	assert.Equal(t, "b", recv(t, c)["order"])
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	orderID := uuid.New()
	a, b := newTestClient(), newTestClient()
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	hub.JoinOrder(a, orderID)
	hub.JoinOrder(b, orderID)

	hub.UnregisterClient(a)
	require.Eventually(t, func() bool {
		return hub.RoomSize(orderID) == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToOrder(orderID, map[string]string{"type": "new_message"})
	recv(t, b)

	// the departed client's channel is closed and drains empty
	_, open := <-a.Send
	assert.False(t, open)
}

func TestSlowConsumerIsSkipped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	orderID := uuid.New()
	slow := &Client{ID: uuid.New().String(), UserID: uuid.New(), Send: make(chan []byte)}
	fast := newTestClient()
	hub.RegisterClient(slow)
	hub.RegisterClient(fast)
	hub.JoinOrder(slow, orderID)
	hub.JoinOrder(fast, orderID)

	done := make(chan struct{})
	go func() {
		hub.BroadcastToOrder(orderID, map[string]string{"type": "new_message"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow consumer")
	}
	recv(t, fast)
}
