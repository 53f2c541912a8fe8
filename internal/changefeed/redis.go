package changefeed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBus publishes and consumes change events over a single Redis pub/sub
// channel. All API server replicas see all events; filtering down to a
// table+filter subscription happens consumer-side.
type RedisBus struct {
	client  *redis.Client
	channel string
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal change event", "error", err, "table", ev.Table)
		return
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		// Best-effort: subscribers refetch on the next event.
		slog.WarnContext(ctx, "failed to publish change event",
			"error", err,
			"table", ev.Table,
			"filter", ev.Filter,
		)
	}
}

func (b *RedisBus) Subscribe(ctx context.Context, table, filter string) (<-chan Event, func(), error) {
	sub := b.client.Subscribe(ctx, b.channel)

	// Force the subscription handshake so errors surface here, not on first read.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.WarnContext(ctx, "dropping malformed change event", "error", err)
				continue
			}
			if !ev.Matches(table, filter) {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return out, cancel, nil
}
