package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Event is a change-feed notification. It names what changed, never the row
// contents; consumers respond by refetching.
type Event struct {
	Table  string    `json:"table"`
	Op     string    `json:"op"`
	Filter string    `json:"filter"`
	RowID  int64     `json:"row_id,omitempty"`
	At     time.Time `json:"at"`
}

// Feed delivers change events for one table+filter subscription. The channel
// closes when the subscription ends; the cancel func releases it.
type Feed interface {
	Subscribe(ctx context.Context, sess Session, table, filter string) (<-chan Event, func(), error)
}

// WSFeed implements Feed over the server's /api/v1/realtime websocket. Each
// subscription holds its own connection; reconnect policy is the caller's.
type WSFeed struct {
	baseURL string
	dialer  *websocket.Dialer
}

func NewWSFeed(baseURL string) *WSFeed {
	return &WSFeed{
		baseURL: baseURL,
		dialer:  websocket.DefaultDialer,
	}
}

type wsSubscribeFrame struct {
	Action string `json:"action"`
	Table  string `json:"table"`
	Filter string `json:"filter"`
}

type wsEventFrame struct {
	Type  string `json:"type"`
	Event Event  `json:"event"`
	Error string `json:"error,omitempty"`
}

func (f *WSFeed) Subscribe(ctx context.Context, sess Session, table, filter string) (<-chan Event, func(), error) {
	if sess.Token == "" {
		return nil, nil, ErrAuthRequired
	}

	wsURL, err := toWebsocketURL(f.baseURL + "/api/v1/realtime")
	if err != nil {
		return nil, nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+sess.Token)

	conn, _, err := f.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing realtime feed: %w", err)
	}

	if err := conn.WriteJSON(wsSubscribeFrame{Action: "subscribe", Table: table, Filter: filter}); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("subscribing: %w", err)
	}

	out := make(chan Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame wsEventFrame
			if err := json.Unmarshal(payload, &frame); err != nil {
				continue
			}
			if frame.Type != "change" {
				continue
			}
			select {
			case out <- frame.Event:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	cancel := func() {
		close(done)
		_ = conn.Close()
	}
	return out, cancel, nil
}

func toWebsocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing feed URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}
