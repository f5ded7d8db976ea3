package websocket

import (
	"context"
	"testing"
	"time"

	"propintel-console/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	hub := NewHub(logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func newClient(hub *Hub, buffer int) *Client {
	return &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, buffer)}
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub, _ := startHub(t)
	a, b := newClient(hub, 4), newClient(hub, 4)
	hub.register <- a
	hub.register <- b
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte(`{"type":"CONSOLE_UPDATED"}`))

	assert.Equal(t, `{"type":"CONSOLE_UPDATED"}`, string(<-a.Send))
	assert.Equal(t, `{"type":"CONSOLE_UPDATED"}`, string(<-b.Send))
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := newClient(hub, 1)
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte("one"))
	hub.Broadcast([]byte("two"))

	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, "one", string(<-slow.Send))
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHubUnregisterAndShutdown(t *testing.T) {
	hub, cancel := startHub(t)
	a, b := newClient(hub, 1), newClient(hub, 1)
	hub.register <- a
	hub.register <- b
	hub.unregister <- a
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	// A second unregister of the same client is a no-op.
	hub.unregister <- a

	cancel()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-b.Send
	assert.False(t, open)
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	hub, cancel := startHub(t)
	a := newClient(hub, 1)
	require.True(t, hub.Register(a))
	cancel()
	<-hub.done

	late := newClient(hub, 1)
	done := make(chan bool)
	go func() {
		ok := hub.Register(late)
		hub.Unregister(a)
		hub.Unregister(late)
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("register after shutdown blocked")
	}
	assert.Equal(t, 0, hub.Count())
}
