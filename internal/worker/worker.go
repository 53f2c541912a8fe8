// Package worker drains the extraction task stream. Each task covers one
// Slack channel; the worker forwards it to the extraction service and paces
// successive channels to stay inside Slack's history rate limits.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cerium.app/cerium/common/logger"
	"cerium.app/cerium/internal/extraction"
	"cerium.app/cerium/internal/queue"
)

type Config struct {
	MaxAttempts int
	// ChannelDelay is the pause after each successful extraction before the
	// next one starts.
	ChannelDelay time.Duration
}

type Worker struct {
	consumer  *queue.RedisConsumer
	extractor extraction.Client
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, extractor extraction.Client, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		extractor: extractor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for i, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"channel", msg.Channel)
			w.handleFailedMessage(ctx, msg, err)
			continue
		}

		if w.cfg.ChannelDelay > 0 && i < len(messages)-1 {
			w.pause(ctx)
		}
	}

	return nil
}

// pause waits out the inter-channel delay, returning early on shutdown.
func (w *Worker) pause(ctx context.Context) {
	timer := time.NewTimer(w.cfg.ChannelDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-w.stopCh:
	case <-timer.C:
	}
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"channel", msg.Channel)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// Exported so it can be reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(msg.UserID),
		Channel:   logger.Ptr(msg.Channel),
		TaskID:    logger.Ptr(msg.ID),
		Component: "cerium.worker.extractor",
	})

	slog.InfoContext(ctx, "processing extraction task", "attempt", msg.Attempt)

	result, err := w.extractor.ExtractChannel(ctx, extraction.ChannelRequest{
		UserID:        msg.UserID,
		SlackBotToken: msg.SlackBotToken,
		Channel:       msg.Channel,
		Limit:         msg.Limit,
	})
	if err != nil {
		return fmt.Errorf("extracting channel: %w", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Message will be reclaimed and re-extracted; the extraction service
		// upserts by message timestamp so a replay is safe.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	slog.InfoContext(ctx, "extraction task completed", "ingested_count", result.IngestedCount)
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"channel", msg.Channel,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"channel", msg.Channel,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
