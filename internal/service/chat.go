package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"cerium.app/cerium/common/logger"
	"cerium.app/cerium/core/config"
	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/retriever/knowledge"
	"cerium.app/cerium/internal/store"
)

var (
	ErrNoOpenAIKey = errors.New("no OpenAI API key configured for this user")
	ErrNoMessages  = errors.New("chat request contains no messages")
)

// ChatMessage is one turn of the conversation as sent by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the assistant's reply together with the knowledge-base
// documents used to ground it.
type ChatResult struct {
	Message   string
	Documents []model.DocumentRef
}

type ChatService interface {
	Complete(ctx context.Context, userID int64, messages []ChatMessage, chatModel string) (*ChatResult, error)
}

type chatService struct {
	profileStore store.ProfileStore
	retriever    knowledge.Provider
	cfg          config.OpenAIConfig

	// newCompletion is swapped in tests to avoid a real OpenAI round-trip.
	newCompletion func(ctx context.Context, apiKey string, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

func NewChatService(profileStore store.ProfileStore, retriever knowledge.Provider, cfg config.OpenAIConfig) ChatService {
	s := &chatService{
		profileStore: profileStore,
		retriever:    retriever,
		cfg:          cfg,
	}
	s.newCompletion = s.openaiCompletion
	return s
}

func (s *chatService) Complete(ctx context.Context, userID int64, messages []ChatMessage, chatModel string) (*ChatResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(userID),
		Component: "cerium.service.chat",
	})

	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	profile, err := s.profileStore.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if profile == nil || !profile.HasOpenAIKey() {
		return nil, ErrNoOpenAIKey
	}

	if chatModel == "" {
		chatModel = s.cfg.DefaultModel
	}

	lastUserIdx := lastUserMessage(messages)

	var docs []model.DocumentRef
	if lastUserIdx >= 0 {
		matches, err := s.retriever.Retrieve(ctx, messages[lastUserIdx].Content)
		if err != nil {
			// The provider already degrades transport failures to an empty
			// result; anything surfacing here is a local fault, still not
			// worth failing the chat over.
			slog.WarnContext(ctx, "retrieval failed", "error", err)
		}
		docs = toDocumentRefs(matches)
	}

	params := openai.ChatCompletionNewParams{
		Model:    chatModel,
		Messages: s.buildMessages(messages, lastUserIdx, docs),
	}

	start := time.Now()
	resp, err := s.newCompletion(ctx, *profile.OpenAIAPIKey, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	slog.InfoContext(ctx, "chat completion finished",
		"model", chatModel,
		"retrieved_documents", len(docs),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &ChatResult{
		Message:   resp.Choices[0].Message.Content,
		Documents: docs,
	}, nil
}

func (s *chatService) openaiCompletion(ctx context.Context, apiKey string, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return client.Chat.Completions.New(ctx, params)
}

// buildMessages converts the client's turns into OpenAI params, augmenting
// the latest user message with retrieved context.
func (s *chatService) buildMessages(messages []ChatMessage, lastUserIdx int, docs []model.DocumentRef) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	result = append(result, openai.SystemMessage(systemPrompt))

	for i, msg := range messages {
		switch msg.Role {
		case "assistant":
			result = append(result, openai.AssistantMessage(msg.Content))
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))
		default:
			content := msg.Content
			if i == lastUserIdx && len(docs) > 0 {
				content = augmentPrompt(msg.Content, docs)
			}
			result = append(result, openai.UserMessage(content))
		}
	}

	return result
}

const systemPrompt = "You are Cerium, an assistant that answers questions about an engineering team's work using excerpts extracted from their Slack and GitHub conversations. Ground your answers in the provided context when it is relevant, and say so when it is not."

func augmentPrompt(prompt string, docs []model.DocumentRef) string {
	var b strings.Builder
	b.WriteString("Context from the team's knowledge base:\n\n")
	for _, doc := range docs {
		if doc.UserName != nil {
			fmt.Fprintf(&b, "[%s] ", *doc.UserName)
		}
		b.WriteString(doc.Content)
		b.WriteString("\n---\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(prompt)
	return b.String()
}

func lastUserMessage(messages []ChatMessage) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return i
		}
	}
	return -1
}

func toDocumentRefs(matches []knowledge.Match) []model.DocumentRef {
	if len(matches) == 0 {
		return nil
	}
	refs := make([]model.DocumentRef, len(matches))
	for i, m := range matches {
		refs[i] = model.DocumentRef{
			ID:         m.ID,
			Content:    m.Content,
			UserName:   m.UserName,
			Similarity: m.Similarity,
		}
	}
	return refs
}
