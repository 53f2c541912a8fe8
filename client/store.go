package client

import "context"

// ConversationUpdate is a partial update; nil fields are left untouched.
type ConversationUpdate struct {
	Title *string
	Model *string
}

// NewMessage is the input to CreateMessage. Sequence is never part of it: the
// server assigns sequences.
type NewMessage struct {
	ConversationID int64
	Role           Role
	Content        string
	Model          *string
	Metadata       *MessageMetadata
	// ClientRef is echoed back on the confirmed row and on change-feed
	// refetches, which is how optimistic entries are reconciled.
	ClientRef string
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages       []ChatTurn `json:"messages"`
	Model          string     `json:"model,omitempty"`
	ConversationID string     `json:"conversationId,omitempty"`
}

type ChatResponse struct {
	Message            string        `json:"message"`
	RetrievedDocuments []DocumentRef `json:"retrievedDocuments"`
}

// Store is the server API surface the views consume. Implementations carry
// the session credential; views pass it explicitly on construction.
type Store interface {
	ListConversations(ctx context.Context, sess Session) ([]Conversation, error)
	CreateConversation(ctx context.Context, sess Session, title, model string) (*Conversation, error)
	UpdateConversation(ctx context.Context, sess Session, id int64, fields ConversationUpdate) (*Conversation, error)
	DeleteConversation(ctx context.Context, sess Session, id int64) error
	DeleteAllConversations(ctx context.Context, sess Session) error

	ListMessages(ctx context.Context, sess Session, conversationID int64) ([]Message, error)
	CountMessages(ctx context.Context, sess Session, conversationID int64) (int64, error)
	CreateMessage(ctx context.Context, sess Session, msg NewMessage) (*Message, error)

	Complete(ctx context.Context, sess Session, req ChatRequest) (*ChatResponse, error)
}
