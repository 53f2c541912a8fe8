package dto

import (
	"time"

	"cerium.app/cerium/internal/model"
)

type CreateMessageRequest struct {
	Role     string                 `json:"role" binding:"required,oneof=user assistant system"`
	Content  string                 `json:"content" binding:"required"`
	Model    *string                `json:"model,omitempty"`
	Metadata *model.MessageMetadata `json:"metadata,omitempty"`
	// ClientRef is the client's correlation id for optimistic
	// reconciliation; the server stores and echoes it untouched.
	ClientRef string `json:"client_ref,omitempty" binding:"omitempty,max=64"`
}

type MessageResponse struct {
	ID             int64                  `json:"id,string"`
	ConversationID int64                  `json:"conversation_id,string"`
	Role           string                 `json:"role"`
	Content        string                 `json:"content"`
	Model          *string                `json:"model,omitempty"`
	Metadata       *model.MessageMetadata `json:"metadata,omitempty"`
	ClientRef      string                 `json:"client_ref,omitempty"`
	Sequence       int32                  `json:"sequence"`
	CreatedAt      time.Time              `json:"created_at"`
}

func ToMessageResponse(msg *model.Message) *MessageResponse {
	return &MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		Model:          msg.Model,
		Metadata:       msg.Metadata,
		ClientRef:      msg.ClientRef,
		Sequence:       msg.Sequence,
		CreatedAt:      msg.CreatedAt,
	}
}

func ToMessageResponses(msgs []model.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i := range msgs {
		out[i] = *ToMessageResponse(&msgs[i])
	}
	return out
}
