package server

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/chatline/models"
)

type memoryPresence struct {
	mu     sync.Mutex
	online map[uuid.UUID]bool
}

func newMemoryPresence() *memoryPresence {
	return &memoryPresence{online: make(map[uuid.UUID]bool)}
}

func (p *memoryPresence) SetOnline(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
}

func (p *memoryPresence) SetOffline(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
}

func (p *memoryPresence) IsOnline(userID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *memoryPresence) OnlineCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(len(p.online))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(newMemoryPresence())
	go hub.Run()
	return hub
}

func bindClient(t *testing.T, hub *Hub, userID uuid.UUID, buffer int) *Client {
	t.Helper()
	client := &Client{Send: make(chan []byte, buffer), UserID: userID, hub: hub}
	hub.register <- client
	require.Eventually(t, func() bool {
		hub.mutex.RLock()
		defer hub.mutex.RUnlock()
		return hub.clients[userID] == client
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return hub.presence.IsOnline(userID)
	}, 2*time.Second, 5*time.Millisecond)
	return client
}

func TestHubDeliverUnknownUser(t *testing.T) {
	hub := startHub(t)
	ok := hub.Deliver(uuid.New(), &models.Event{Type: models.EventTyping})
	require.False(t, ok)
}

func TestHubDeliverReachesBoundClient(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	client := bindClient(t, hub, userID, 4)

	require.True(t, hub.Deliver(userID, &models.Event{Type: models.EventMessageNew}))
	select {
	case <-client.Send:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame arrived on the client channel")
	}
}

// A reconnect closes the replaced binding's channel while the dispatcher may
// still be mid-delivery to it. Hammering both paths at once must neither
// panic nor wedge the hub.
func TestHubDeliverSafeAcrossReconnect(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	bindClient(t, hub, userID, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		event := &models.Event{Type: models.EventMessageNew}
		for i := 0; i < 500; i++ {
			hub.Deliver(userID, event)
		}
	}()

	for i := 0; i < 25; i++ {
		replacement := &Client{Send: make(chan []byte, 1), UserID: userID, hub: hub}
		hub.register <- replacement
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery loop did not finish")
	}
}

func TestHubSlowClientTornDown(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	bindClient(t, hub, userID, 1)

	event := &models.Event{Type: models.EventMessageNew}
	require.True(t, hub.Deliver(userID, event))

	// The buffer is full now, so the next delivery drops the binding.
	require.False(t, hub.Deliver(userID, event))
	require.False(t, hub.IsUserOnline(userID))
	require.False(t, hub.presence.IsOnline(userID))
}

func TestHubStaleUnregisterKeepsCurrentBinding(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	stale := bindClient(t, hub, userID, 4)
	current := bindClient(t, hub, userID, 4)

	hub.unregister <- stale
	require.Eventually(t, func() bool {
		hub.mutex.RLock()
		defer hub.mutex.RUnlock()
		return hub.clients[userID] == current
	}, 2*time.Second, 5*time.Millisecond)
	require.True(t, hub.IsUserOnline(userID))
	require.True(t, hub.presence.IsOnline(userID))
}
