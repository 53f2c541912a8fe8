package model

import "time"

// Profile holds per-user integration credentials: the OpenAI key used for
// chat completions and the Slack bot token used for channel extraction.
type Profile struct {
	UserID        int64     `json:"user_id"`
	OpenAIAPIKey  *string   `json:"-"`
	SlackBotToken *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasOpenAIKey reports whether chat completions can run for this user.
func (p *Profile) HasOpenAIKey() bool {
	return p.OpenAIAPIKey != nil && *p.OpenAIAPIKey != ""
}
