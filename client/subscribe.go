package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

// Event is one message pushed on a session's live channel.
type Event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Subscription streams a session's events until Close or ctx ends.
type Subscription struct {
	conn   *websocket.Conn
	events chan Event
	err    error
}

// Subscribe opens the live channel for sessionID as the caller owning token.
func (c *Client) Subscribe(ctx context.Context, token, sessionID string) (*Subscription, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/v1/ws"
	u.RawQuery = url.Values{"session_id": {sessionID}}.Encode()

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("subscribe failed: %v", err)}
		}
		return nil, fmt.Errorf("failed to dial %s: %w", u.Redacted(), err)
	}

	s := &Subscription{conn: conn, events: make(chan Event, 16)}
	go s.read(ctx)
	return s, nil
}

func (s *Subscription) read(ctx context.Context) {
	done := make(chan struct{})
	defer close(s.events)
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	for {
		var ev Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.err = err
			}
			return
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Events is closed when the connection ends; Err then reports why.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Err is only meaningful after Events has been closed.
func (s *Subscription) Err() error {
	return s.err
}

func (s *Subscription) Close() error {
	return s.conn.Close()
}
