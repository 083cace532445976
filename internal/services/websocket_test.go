package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestClient(t *testing.T, hub *Hub, client *Client, want int) {
	t.Helper()
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.GetConnectedClients() == want
	}, time.Second, 5*time.Millisecond)
}

func TestBroadcastToUserTargetsOnlyThatUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	owner := &Client{ID: 1, UserType: "driver", Send: make(chan []byte, 4)}
	other := &Client{ID: 2, UserType: "rider", Send: make(chan []byte, 4)}
	registerTestClient(t, hub, owner, 1)
	registerTestClient(t, hub, other, 2)

	hub.BroadcastToUser(1, []byte(`{"type":"ride_registration"}`))

	select {
	case msg := <-owner.Send:
		assert.Contains(t, string(msg), "ride_registration")
	default:
		t.Fatal("owner received nothing")
	}
	assert.Empty(t, other.Send)
}

func TestConcurrentBroadcastsEvictSlowClientOnce(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{ID: 42, UserType: "driver", Send: make(chan []byte, 1)}
	registerTestClient(t, hub, slow, 1)

	// fill the buffer so every send hits the eviction path
	slow.Send <- []byte("queued")

	// concurrent sends to the same stalled client; exactly one may close
	// its channel and drop it from the hub
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastToUser(42, []byte("event"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.GetConnectedClients())
}
