package model

import "time"

// DefaultConversationTitle is assigned when a conversation is created without
// an explicit title. The chat flow later replaces it with the first user
// message while the title is still this placeholder.
const DefaultConversationTitle = "New Chat"

type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
