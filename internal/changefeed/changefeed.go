// Package changefeed models the push signal that keeps client caches live: a
// store mutation produces an event naming the table and a filter key, and any
// subscriber watching that table+filter refetches. Consumers never patch rows
// from events; the event only says "something you care about changed".
package changefeed

import (
	"context"
	"fmt"
	"time"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one committed mutation.
type Event struct {
	Table  string    `json:"table"`
	Op     Op        `json:"op"`
	Filter string    `json:"filter"`
	RowID  int64     `json:"row_id,omitempty"`
	At     time.Time `json:"at"`
}

// UserFilter scopes events to rows owned by a user (conversations table).
func UserFilter(userID int64) string {
	return fmt.Sprintf("user_id=%d", userID)
}

// ConversationFilter scopes events to one conversation (messages table).
func ConversationFilter(conversationID int64) string {
	return fmt.Sprintf("conversation_id=%d", conversationID)
}

// Publisher is the producer side, called by stores after each mutation.
// Publishing is best-effort: a missed event delays a refresh until the next
// one, it never corrupts state, so implementations log failures instead of
// returning them into the write path.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Feed is the consumer side: a lazy, non-restartable stream of events for one
// table+filter. The returned cancel func must be called to release the
// subscription; the channel closes when the subscription ends.
type Feed interface {
	Subscribe(ctx context.Context, table, filter string) (<-chan Event, func(), error)
}

// Matches reports whether the event belongs to a table+filter subscription.
// An empty table or filter acts as a wildcard; Subscribe("", "") yields the
// whole feed, which is how the websocket hub taps it.
func (e Event) Matches(table, filter string) bool {
	return (table == "" || e.Table == table) && (filter == "" || e.Filter == filter)
}
