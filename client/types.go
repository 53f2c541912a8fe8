// Package client is the Go client library for a Cerium API server. It keeps
// a live conversation list and an ordered, deduplicated message view with
// optimistic inserts, and drives retrieval-augmented chat sends.
//
// Views require an explicitly injected Session; there is no ambient
// authentication state.
package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAuthRequired is returned by mutations attempted without a session.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNoConversationSelected is returned by Add when no conversation is
	// selected and no override is given.
	ErrNoConversationSelected = errors.New("no conversation selected")
)

// Session identifies an authenticated user. The token is the server-issued
// session id, sent as a bearer credential.
type Session struct {
	Token  string
	UserID int64
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DefaultTitle is the server's placeholder title for new conversations.
const DefaultTitle = "New Chat"

type Conversation struct {
	ID        int64     `json:"id,string"`
	UserID    int64     `json:"user_id,string"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DocumentRef struct {
	ID         int64   `json:"id"`
	Content    string  `json:"content"`
	UserName   *string `json:"user_name,omitempty"`
	Similarity float64 `json:"similarity"`
}

type MessageMetadata struct {
	RetrievedDocuments []DocumentRef `json:"retrieved_documents,omitempty"`
}

// Message is a confirmed, server-assigned row. Pending optimistic entries are
// represented by Entry, not Message.
type Message struct {
	ID             int64            `json:"id,string"`
	ConversationID int64            `json:"conversation_id,string"`
	Role           Role             `json:"role"`
	Content        string           `json:"content"`
	Model          *string          `json:"model,omitempty"`
	Metadata       *MessageMetadata `json:"metadata,omitempty"`
	ClientRef      string           `json:"client_ref,omitempty"`
	Sequence       int32            `json:"sequence"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Entry is one visible row of a message view: either a confirmed server
// message or a pending optimistic one awaiting its echo.
type Entry struct {
	// LocalID is the correlation id. For pending entries it carries the
	// "pending-" prefix; confirmed entries keep whatever client_ref they
	// were inserted with.
	LocalID string
	Message Message
	Pending bool
}

// Filters mirror the server's changefeed filter keys.

func UserFilter(userID int64) string {
	return fmt.Sprintf("user_id=%d", userID)
}

func ConversationFilter(conversationID int64) string {
	return fmt.Sprintf("conversation_id=%d", conversationID)
}
