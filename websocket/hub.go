package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

// Hub fans published session messages out to the clients subscribed to
// that session. All membership changes go through Run.
type Hub struct {
	sessions   map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan envelope
	done       chan struct{}
	mu         sync.RWMutex
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	UserID    string
	SessionID string
}

// Message is the frame delivered to subscribers.
type Message struct {
	Type      string          `json:"type"` // "session_event", "stage_changed"
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type envelope struct {
	sessionID string
	payload   []byte
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan envelope, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, clients := range h.sessions {
				for client := range clients {
					close(client.Send)
				}
			}
			h.sessions = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.sessions[client.SessionID] == nil {
				h.sessions[client.SessionID] = make(map[*Client]bool)
			}
			h.sessions[client.SessionID][client] = true
			h.mu.Unlock()
			slog.Info("Client subscribed", "user_id", client.UserID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			slog.Info("Client unsubscribed", "user_id", client.UserID, "session_id", client.SessionID)

		case msg := <-h.publish:
			h.mu.Lock()
			for client := range h.sessions[msg.sessionID] {
				select {
				case client.Send <- msg.payload:
				default:
					slog.Warn("Dropping slow client", "user_id", client.UserID, "session_id", client.SessionID)
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.sessions[client.SessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.sessions, client.SessionID)
	}
}

// ErrHubStopped is returned by Subscribe once Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Subscribe registers conn for messages published to sessionID.
func (h *Hub) Subscribe(conn *websocket.Conn, userID, sessionID string) (*Client, error) {
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, sendBuffer),
		UserID:    userID,
		SessionID: sessionID,
	}

	select {
	case h.register <- client:
		return client, nil
	case <-h.done:
		return nil, ErrHubStopped
	}
}

// Publish queues a message for every subscriber of sessionID. It never
// blocks the caller; when the queue is full the message is dropped.
func (h *Hub) Publish(sessionID, msgType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	payload, err := json.Marshal(Message{Type: msgType, SessionID: sessionID, Data: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case h.publish <- envelope{sessionID: sessionID, payload: payload}:
	default:
		slog.Warn("Publish queue full, dropping message", "session_id", sessionID, "type", msgType)
	}
	return nil
}

// Subscribers reports how many clients follow sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// ReadPump drains the connection so control frames are processed. Clients
// only receive; anything they send is ignored.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
