package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket_backend/internal/realtime"
)

func newWSClient(buffer int) *realtime.Client {
	return &realtime.Client{
		ID:     uuid.New().String(),
		UserID: uuid.New(),
		Send:   make(chan []byte, buffer),
	}
}

// Session acks and errors are queued on the client's send channel rather
// than written to the connection directly, so the pump goroutine stays the
// connection's single writer alongside hub broadcasts.
func TestWSPushQueuesOnSendChannel(t *testing.T) {
	client := newWSClient(4)

	wsPush(client, map[string]string{"type": "joined", "order_id": uuid.New().String()})
	wsError(client, "unauthorized access to this order")

	var joined map[string]string
	require.NoError(t, json.Unmarshal(<-client.Send, &joined))
	assert.Equal(t, "joined", joined["type"])

	var errEvent map[string]string
	require.NoError(t, json.Unmarshal(<-client.Send, &errEvent))
	assert.Equal(t, "error", errEvent["type"])
	assert.Equal(t, "unauthorized access to this order", errEvent["message"])
}

func TestWSPushDoesNotBlockOnFullBuffer(t *testing.T) {
	client := newWSClient(1)
	wsPush(client, map[string]string{"type": "joined"})

	done := make(chan struct{})
	go func() {
		wsPush(client, map[string]string{"type": "joined"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on a saturated send buffer")
	}
}
