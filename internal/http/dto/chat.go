package dto

import "cerium.app/cerium/internal/model"

type ChatTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	Messages       []ChatTurn `json:"messages" binding:"required,min=1,dive"`
	Model          string     `json:"model,omitempty"`
	ConversationID string     `json:"conversationId,omitempty"`
}

type ChatResponse struct {
	Message            string              `json:"message"`
	RetrievedDocuments []model.DocumentRef `json:"retrievedDocuments"`
}
