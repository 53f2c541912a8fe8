package client

import (
	"context"
	"fmt"
	"sync"
)

// DefaultModel is used when the caller never picks one.
const DefaultModel = "gpt-4o-mini"

const titleMaxLen = 50

// Chat drives a retrieval-augmented chat send against the server. It owns a
// conversation list, a message view, and the currently selected model, and
// sequences the send protocol across them.
type Chat struct {
	store         Store
	Conversations *ConversationView
	Messages      *MessageView

	mu    sync.RWMutex
	sess  *Session
	model string
}

func NewChat(store Store, feed Feed) *Chat {
	return &Chat{
		store:         store,
		Conversations: NewConversationView(store, feed),
		Messages:      NewMessageView(store, feed),
		model:         DefaultModel,
	}
}

// SetSession propagates the session to both views. A nil session logs out.
func (c *Chat) SetSession(ctx context.Context, sess *Session) error {
	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	c.Messages.SetSession(sess)
	return c.Conversations.SetSession(ctx, sess)
}

func (c *Chat) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *Chat) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if model != "" {
		c.model = model
	}
}

// Close detaches both views from the feed.
func (c *Chat) Close() {
	c.Messages.Close()
	c.Conversations.Close()
}

// Send runs one chat turn: it creates and selects a conversation when none is
// selected, calls the completion endpoint with the conversation history plus
// the new user message, then persists the user message and the assistant
// reply with its retrieved document refs. A conversation still carrying the
// default title is renamed after its first completed turn.
//
// Nothing is persisted until the completion succeeds: a failed completion
// leaves the transcript holding only an assistant-role error message and the
// title untouched, and Send still returns nil so the view stays usable.
func (c *Chat) Send(ctx context.Context, content string) error {
	c.mu.RLock()
	sess := c.sess
	model := c.model
	c.mu.RUnlock()

	if sess == nil {
		return ErrAuthRequired
	}

	target := c.Messages.Selected()
	created := false
	if target == nil {
		conv, err := c.Conversations.Create(ctx, DefaultTitle, model)
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
		if err := c.Messages.Select(ctx, &conv.ID); err != nil {
			return fmt.Errorf("selecting conversation: %w", err)
		}
		target = &conv.ID
		created = true
	}

	history := c.history()
	history = append(history, ChatTurn{Role: string(RoleUser), Content: content})

	resp, err := c.store.Complete(ctx, *sess, ChatRequest{
		Messages:       history,
		Model:          model,
		ConversationID: formatID(*target),
	})
	if err != nil {
		c.appendError(ctx, target, err)
		return nil
	}

	if _, err := c.Messages.Add(ctx, RoleUser, content, &model, nil, target); err != nil {
		c.appendError(ctx, target, err)
		return nil
	}

	var metadata *MessageMetadata
	if len(resp.RetrievedDocuments) > 0 {
		metadata = &MessageMetadata{RetrievedDocuments: resp.RetrievedDocuments}
	}
	if _, err := c.Messages.Add(ctx, RoleAssistant, resp.Message, &model, metadata, target); err != nil {
		c.appendError(ctx, target, err)
		return nil
	}

	c.maybeSetTitle(ctx, *target, content, created)
	return nil
}

func (c *Chat) history() []ChatTurn {
	entries := c.Messages.Entries()
	turns := make([]ChatTurn, 0, len(entries)+1)
	for _, entry := range entries {
		turns = append(turns, ChatTurn{
			Role:    string(entry.Message.Role),
			Content: entry.Message.Content,
		})
	}
	return turns
}

// maybeSetTitle renames a conversation after its first completed turn, but
// only while it still carries the placeholder title. A conversation created in this
// send is not in the cache yet (it arrives via the feed), so the created flag
// stands in for the title check. Rename failures are ignored; the transcript
// matters more than the label.
func (c *Chat) maybeSetTitle(ctx context.Context, conversationID int64, content string, created bool) {
	if !created {
		conv, ok := c.Conversations.Get(conversationID)
		if !ok || conv.Title != DefaultTitle {
			return
		}
	}
	title := truncate(content, titleMaxLen)
	_, _ = c.Conversations.Update(ctx, conversationID, ConversationUpdate{Title: &title})
}

func (c *Chat) appendError(ctx context.Context, target *int64, cause error) {
	msg := fmt.Sprintf("Sorry, something went wrong: %v", cause)
	_, _ = c.Messages.Add(ctx, RoleAssistant, msg, nil, nil, target)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
