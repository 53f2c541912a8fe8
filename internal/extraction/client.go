// Package extraction calls the external extraction service, which pulls
// Slack channel history, chunks it, and writes embeddings into the shared
// knowledge base.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cerium.app/cerium/common/logger"
	"cerium.app/cerium/core/config"
)

// Client submits channel extraction jobs.
type Client interface {
	ExtractChannel(ctx context.Context, req ChannelRequest) (*Result, error)
}

// ChannelRequest describes one channel to extract on behalf of a user.
type ChannelRequest struct {
	UserID        int64
	SlackBotToken string
	Channel       string
	Limit         int
}

// Result reports how many messages the service ingested.
type Result struct {
	IngestedCount int `json:"ingested_count"`
}

type httpClient struct {
	client  *http.Client
	baseURL string
}

func NewClient(cfg config.KnowledgeConfig) Client {
	return &httpClient{
		// Extraction walks the whole channel history upstream, so jobs
		// routinely run for minutes.
		client:  &http.Client{Timeout: 10 * time.Minute},
		baseURL: cfg.BaseURL,
	}
}

type extractRequest struct {
	Service          string `json:"service"`
	UserID           string `json:"user_id"`
	SlackBotToken    string `json:"slack_bot_token"`
	ConversationName string `json:"conversation_name"`
	ConversationType string `json:"conversation_type"`
	Limit            int    `json:"limit"`
}

func (c *httpClient) ExtractChannel(ctx context.Context, req ChannelRequest) (*Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(req.UserID),
		Channel:   logger.Ptr(req.Channel),
		Component: "cerium.extraction.client",
	})

	body, err := json.Marshal(extractRequest{
		Service:          "slack",
		UserID:           fmt.Sprint(req.UserID),
		SlackBotToken:    req.SlackBotToken,
		ConversationName: req.Channel,
		ConversationType: "channel",
		Limit:            req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling extract request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building extract request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, string(detail))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding extract response: %w", err)
	}

	slog.InfoContext(ctx, "channel extraction completed",
		"ingested_count", result.IngestedCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &result, nil
}
