package model

import "time"

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Message is one entry in a conversation. Sequence is assigned by the store
// inside the insert transaction and is strictly increasing from 0 within a
// conversation. ClientRef carries the client-generated correlation ID used to
// reconcile optimistic echoes; it is opaque to the server and echoed back
// unchanged.
type Message struct {
	ID             int64            `json:"id"`
	ConversationID int64            `json:"conversation_id"`
	Role           MessageRole      `json:"role"`
	Content        string           `json:"content"`
	Model          *string          `json:"model,omitempty"`
	Metadata       *MessageMetadata `json:"metadata,omitempty"`
	ClientRef      string           `json:"client_ref,omitempty"`
	Sequence       int32            `json:"sequence"`
	CreatedAt      time.Time        `json:"created_at"`
}

// MessageMetadata holds structured payload attached to a message, currently
// the knowledge-base documents used to ground an assistant reply.
type MessageMetadata struct {
	RetrievedDocuments []DocumentRef `json:"retrieved_documents,omitempty"`
}

// DocumentRef is the subset of a retrieval match persisted with a message.
type DocumentRef struct {
	ID         int64   `json:"id"`
	Content    string  `json:"content"`
	UserName   *string `json:"user_name,omitempty"`
	Similarity float64 `json:"similarity"`
}
