package dto

import (
	"time"

	"cerium.app/cerium/internal/model"
)

type CreateConversationRequest struct {
	Title string `json:"title" binding:"omitempty,max=255"`
	Model string `json:"model" binding:"required,min=1,max=128"`
}

type UpdateConversationRequest struct {
	Title *string `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Model *string `json:"model,omitempty" binding:"omitempty,min=1,max=128"`
}

type ConversationResponse struct {
	ID        int64     `json:"id,string"`
	UserID    int64     `json:"user_id,string"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToConversationResponse(conv *model.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:        conv.ID,
		UserID:    conv.UserID,
		Title:     conv.Title,
		Model:     conv.Model,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func ToConversationResponses(convs []model.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, len(convs))
	for i := range convs {
		out[i] = *ToConversationResponse(&convs[i])
	}
	return out
}
