package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"cerium.app/cerium/common/logger"
	"cerium.app/cerium/core/config"
	"cerium.app/cerium/internal/queue"
	"cerium.app/cerium/internal/store"
)

var (
	ErrNoSlackToken = errors.New("no Slack bot token configured for this user")
	ErrNoChannels   = errors.New("no channels requested")
)

type ExtractionService interface {
	// EnqueueChannels queues one extraction task per channel using the
	// user's stored Slack bot token. Returns the number of tasks enqueued.
	EnqueueChannels(ctx context.Context, userID int64, channels []string) (int, error)
}

type extractionService struct {
	profileStore store.ProfileStore
	producer     queue.Producer
	cfg          config.ExtractionConfig
}

func NewExtractionService(profileStore store.ProfileStore, producer queue.Producer, cfg config.ExtractionConfig) ExtractionService {
	return &extractionService{
		profileStore: profileStore,
		producer:     producer,
		cfg:          cfg,
	}
}

func (s *extractionService) EnqueueChannels(ctx context.Context, userID int64, channels []string) (int, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(userID),
		Component: "cerium.service.extraction",
	})

	if len(channels) == 0 {
		return 0, ErrNoChannels
	}

	profile, err := s.profileStore.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("getting profile: %w", err)
	}
	if profile == nil || profile.SlackBotToken == nil || *profile.SlackBotToken == "" {
		return 0, ErrNoSlackToken
	}

	var traceID *string
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		tid := sc.TraceID().String()
		traceID = &tid
	}

	enqueued := 0
	for _, channel := range channels {
		task := queue.Task{
			TaskType:      queue.TaskTypeChannelExtract,
			UserID:        userID,
			SlackBotToken: *profile.SlackBotToken,
			Channel:       channel,
			Limit:         s.cfg.MessageLimit,
			TraceID:       traceID,
		}
		if err := s.producer.Enqueue(ctx, task); err != nil {
			// Report what did get queued; the caller can retry the rest.
			return enqueued, fmt.Errorf("enqueueing channel %q: %w", channel, err)
		}
		enqueued++
	}

	slog.InfoContext(ctx, "extraction tasks enqueued", "channels", enqueued)
	return enqueued, nil
}
