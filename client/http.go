package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPStore talks to a Cerium API server over its REST surface.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
}

type HTTPStoreOption func(*HTTPStore)

func WithHTTPClient(c *http.Client) HTTPStoreOption {
	return func(s *HTTPStore) { s.httpClient = c }
}

func NewHTTPStore(baseURL string, opts ...HTTPStoreOption) *HTTPStore {
	s := &HTTPStore{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (s *HTTPStore) ListConversations(ctx context.Context, sess Session) ([]Conversation, error) {
	var out struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := s.do(ctx, sess, http.MethodGet, "/api/v1/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (s *HTTPStore) CreateConversation(ctx context.Context, sess Session, title, model string) (*Conversation, error) {
	body := map[string]string{"title": title, "model": model}
	var conv Conversation
	if err := s.do(ctx, sess, http.MethodPost, "/api/v1/conversations", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *HTTPStore) UpdateConversation(ctx context.Context, sess Session, id int64, fields ConversationUpdate) (*Conversation, error) {
	body := map[string]*string{}
	if fields.Title != nil {
		body["title"] = fields.Title
	}
	if fields.Model != nil {
		body["model"] = fields.Model
	}
	var conv Conversation
	if err := s.do(ctx, sess, http.MethodPatch, "/api/v1/conversations/"+formatID(id), body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *HTTPStore) DeleteConversation(ctx context.Context, sess Session, id int64) error {
	return s.do(ctx, sess, http.MethodDelete, "/api/v1/conversations/"+formatID(id), nil, nil)
}

func (s *HTTPStore) DeleteAllConversations(ctx context.Context, sess Session) error {
	return s.do(ctx, sess, http.MethodDelete, "/api/v1/conversations", nil, nil)
}

func (s *HTTPStore) ListMessages(ctx context.Context, sess Session, conversationID int64) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	path := "/api/v1/conversations/" + formatID(conversationID) + "/messages"
	if err := s.do(ctx, sess, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (s *HTTPStore) CountMessages(ctx context.Context, sess Session, conversationID int64) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	path := "/api/v1/conversations/" + formatID(conversationID) + "/messages/count"
	if err := s.do(ctx, sess, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (s *HTTPStore) CreateMessage(ctx context.Context, sess Session, msg NewMessage) (*Message, error) {
	body := map[string]any{
		"role":       string(msg.Role),
		"content":    msg.Content,
		"client_ref": msg.ClientRef,
	}
	if msg.Model != nil {
		body["model"] = *msg.Model
	}
	if msg.Metadata != nil {
		body["metadata"] = msg.Metadata
	}

	var out Message
	path := "/api/v1/conversations/" + formatID(msg.ConversationID) + "/messages"
	if err := s.do(ctx, sess, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HTTPStore) Complete(ctx context.Context, sess Session, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := s.do(ctx, sess, http.MethodPost, "/api/v1/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HTTPStore) do(ctx context.Context, sess Session, method, path string, body, out any) error {
	if sess.Token == "" {
		return ErrAuthRequired
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); decodeErr == nil {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrAuthRequired, apiErr.Message)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
