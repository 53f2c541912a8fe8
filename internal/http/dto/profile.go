package dto

import (
	"time"

	"cerium.app/cerium/internal/model"
)

type UpdateProfileRequest struct {
	OpenAIAPIKey  *string `json:"openai_api_key,omitempty"`
	SlackBotToken *string `json:"slack_bot_token,omitempty"`
}

// ProfileResponse never echoes the raw credentials, only whether they exist.
type ProfileResponse struct {
	UserID           int64     `json:"user_id,string"`
	HasOpenAIKey     bool      `json:"has_openai_key"`
	HasSlackBotToken bool      `json:"has_slack_bot_token"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func ToProfileResponse(p *model.Profile) *ProfileResponse {
	return &ProfileResponse{
		UserID:           p.UserID,
		HasOpenAIKey:     p.HasOpenAIKey(),
		HasSlackBotToken: p.SlackBotToken != nil && *p.SlackBotToken != "",
		UpdatedAt:        p.UpdatedAt,
	}
}
