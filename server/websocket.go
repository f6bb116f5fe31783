package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/techagentng/chatline/models"
	"github.com/techagentng/chatline/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live websocket binding for a principal.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID
	hub    *Hub
}

// Hub maintains the set of active clients, one channel binding per
// principal. It is the delivery plane the fan-out router dispatches over.
type Hub struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	presence   services.PresenceService
}

func NewHub(presence services.PresenceService) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		presence:   presence,
	}
}

// Run owns the client registry. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			// A reconnect replaces the previous binding.
			if old, ok := h.clients[client.UserID]; ok {
				close(old.Send)
			}
			h.clients[client.UserID] = client
			h.mutex.Unlock()
			log.Printf("client connected: %s", client.UserID)

			if h.presence != nil {
				h.presence.SetOnline(client.UserID)
			}
			h.broadcastPresence(client.UserID, true)

		case client := <-h.unregister:
			h.mutex.Lock()
			current, ok := h.clients[client.UserID]
			if ok && current == client {
				delete(h.clients, client.UserID)
				close(client.Send)
			}
			h.mutex.Unlock()
			// A stale binding left over from a reconnect must not flip the
			// user offline.
			if !ok || current != client {
				continue
			}
			log.Printf("client disconnected: %s", client.UserID)

			if h.presence != nil {
				h.presence.SetOffline(client.UserID)
			}
			h.broadcastPresence(client.UserID, false)
		}
	}
}

// Deliver implements services.Broker. A destination with no binding returns
// false; a slow destination has its binding torn down rather than blocking
// the dispatcher.
func (h *Hub) Deliver(userID uuid.UUID, event *models.Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("error marshaling event: %v", err)
		return false
	}

	// The send happens under the read lock: Run closes a replaced binding's
	// Send channel under the write lock, so a close can never interleave with
	// a send here.
	h.mutex.RLock()
	client, ok := h.clients[userID]
	delivered := false
	if ok {
		select {
		case client.Send <- data:
			delivered = true
		default:
		}
	}
	h.mutex.RUnlock()

	if !ok {
		return false
	}
	if delivered {
		return true
	}

	h.mutex.Lock()
	current, stillThere := h.clients[userID]
	if stillThere && current == client {
		delete(h.clients, userID)
		close(client.Send)
	}
	h.mutex.Unlock()
	if stillThere && current == client {
		log.Printf("client too slow, dropped: %s", userID)
		if h.presence != nil {
			h.presence.SetOffline(userID)
		}
		h.broadcastPresence(userID, false)
	}
	return false
}

// IsUserOnline reports whether userID currently holds a channel binding on
// this instance.
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) broadcastPresence(userID uuid.UUID, online bool) {
	event := &models.Event{
		Type: models.EventPresence,
		Payload: map[string]interface{}{
			"user_id": userID.String(),
			"online":  online,
		},
	}
	data, _ := json.Marshal(event)

	h.mutex.RLock()
	for _, client := range h.clients {
		if client.UserID == userID {
			continue
		}
		select {
		case client.Send <- data:
		default:
		}
	}
	h.mutex.RUnlock()
}

// handleWebSocket upgrades the connection and binds it to the principal.
func (s *Server) handleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}

		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 256),
			UserID: userID,
			hub:    s.Hub,
		}
		s.Hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		var event models.Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		switch event.Type {
		case models.EventTyping:
			// Typing indicators are relayed peer to peer without touching
			// any store.
			payload, ok := event.Payload.(map[string]interface{})
			if !ok {
				continue
			}
			raw, ok := payload["recipient_id"].(string)
			if !ok {
				continue
			}
			recipientID, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			c.hub.Deliver(recipientID, &models.Event{
				Type: models.EventTyping,
				Payload: map[string]interface{}{
					"user_id": c.UserID.String(),
					"typing":  payload["typing"],
				},
			})
		}
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
