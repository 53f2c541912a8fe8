// Package realtime fans change events out to websocket clients. The server
// taps the whole changefeed once; each connected client holds a set of
// table+filter subscriptions and receives only matching events. Clients treat
// an event as a refetch signal, never as row data.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"cerium.app/cerium/internal/changefeed"
)

type subscription struct {
	Table  string
	Filter string
}

// Client is one websocket connection's view of the hub.
type Client struct {
	hub    *Hub
	userID int64
	send   chan changefeed.Event
	subs   map[subscription]bool
	subsMu sync.RWMutex
}

type Hub struct {
	feed changefeed.Feed

	clients   map[*Client]bool
	clientsMu sync.RWMutex
}

func NewHub(feed changefeed.Feed) *Hub {
	return &Hub{
		feed:    feed,
		clients: make(map[*Client]bool),
	}
}

// Run is the hub's main loop. It taps the full changefeed and dispatches
// until the context is cancelled or the feed closes.
func (h *Hub) Run(ctx context.Context) error {
	events, cancel, err := h.feed.Subscribe(ctx, "", "")
	if err != nil {
		return err
	}
	defer cancel()

	slog.InfoContext(ctx, "realtime hub started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev changefeed.Event) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for client := range h.clients {
		if !client.wants(ev) {
			continue
		}
		select {
		case client.send <- ev:
		default:
			// Slow client; it refetches on the next event anyway.
		}
	}
}

func (h *Hub) NewClient(userID int64) *Client {
	return &Client{
		hub:    h,
		userID: userID,
		send:   make(chan changefeed.Event, 32),
		subs:   make(map[subscription]bool),
	}
}

// Register and Unregister mutate the client set directly. They must never
// depend on Run's loop: connections keep arriving (and disconnecting) while
// the hub is shutting down, and a handler goroutine blocked here would leak.
func (h *Hub) Register(client *Client) {
	h.clientsMu.Lock()
	h.clients[client] = true
	h.clientsMu.Unlock()
	slog.Debug("realtime client connected", "user_id", client.userID)
}

func (h *Hub) Unregister(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.clientsMu.Unlock()
	slog.Debug("realtime client disconnected", "user_id", client.userID)
}

func (c *Client) wants(ev changefeed.Event) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for sub := range c.subs {
		if ev.Matches(sub.Table, sub.Filter) {
			return true
		}
	}
	return false
}

func (c *Client) Subscribe(table, filter string) {
	c.subsMu.Lock()
	c.subs[subscription{Table: table, Filter: filter}] = true
	c.subsMu.Unlock()
}

func (c *Client) Unsubscribe(table, filter string) {
	c.subsMu.Lock()
	delete(c.subs, subscription{Table: table, Filter: filter})
	c.subsMu.Unlock()
}

// Events is the stream the write pump drains.
func (c *Client) Events() <-chan changefeed.Event {
	return c.send
}

func (c *Client) UserID() int64 {
	return c.userID
}
