// Package knowledge retrieves grounding documents from the external
// extraction service's /retrieve endpoint. Retrieval failures never fail a
// chat: the provider degrades to an empty match set and the completion runs
// without context.
package knowledge

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

// Match is one retrieved document with its similarity score.
type Match struct {
	ID         int64    `json:"id"`
	Content    string   `json:"content"`
	UserName   *string  `json:"user_name,omitempty"`
	SlackTS    *float64 `json:"slack_ts,omitempty"`
	CreatedAt  string   `json:"created_at"`
	Similarity float64  `json:"similarity"`
}

// Provider returns documents relevant to a prompt.
type Provider interface {
	Retrieve(ctx context.Context, prompt string) ([]Match, error)
}

type provider struct {
	httpClient     *http.Client
	baseURL        string
	matchCount     int
	matchThreshold float64
}

func New(cfg config.KnowledgeConfig) Provider {
	return &provider{
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		baseURL:        cfg.BaseURL,
		matchCount:     cfg.MatchCount,
		matchThreshold: cfg.MatchThreshold,
	}
}

type retrieveRequest struct {
	Prompt         string  `json:"prompt"`
	MatchCount     int     `json:"match_count"`
	MatchThreshold float64 `json:"match_threshold"`
}

type retrieveResponse struct {
	Matches []Match `json:"matches"`
	Count   int     `json:"count"`
}

func (p *provider) Retrieve(ctx context.Context, prompt string) ([]Match, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "cerium.retriever.knowledge",
	})

	body, err := json.Marshal(retrieveRequest{
		Prompt:         prompt,
		MatchCount:     p.matchCount,
		MatchThreshold: p.matchThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling retrieve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/retrieve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building retrieve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "retrieval call failed, continuing without context",
			"error", err,
			"prompt", logger.Truncate(prompt, 80),
		)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.WarnContext(ctx, "retrieval returned non-200, continuing without context",
			"status", resp.StatusCode,
			"detail", string(detail),
		)
		return nil, nil
	}

	var result retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding retrieve response: %w", err)
	}

	slog.DebugContext(ctx, "retrieval completed",
		"matches", len(result.Matches),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result.Matches, nil
}
