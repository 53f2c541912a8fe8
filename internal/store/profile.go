package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"cerium.app/cerium/core/db"
	"cerium.app/cerium/internal/model"
)

type profileStore struct {
	db *db.DB
}

func (s *profileStore) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT user_id, openai_api_key, slack_bot_token, created_at, updated_at
		 FROM profiles WHERE user_id = $1`, userID)

	var p model.Profile
	err := row.Scan(&p.UserID, &p.OpenAIAPIKey, &p.SlackBotToken, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert writes the profile, preserving any credential the caller left nil.
func (s *profileStore) Upsert(ctx context.Context, profile *model.Profile) error {
	row := s.db.Pool().QueryRow(ctx,
		`INSERT INTO profiles (user_id, openai_api_key, slack_bot_token)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET openai_api_key = COALESCE(EXCLUDED.openai_api_key, profiles.openai_api_key),
		     slack_bot_token = COALESCE(EXCLUDED.slack_bot_token, profiles.slack_bot_token),
		     updated_at = now()
		 RETURNING user_id, openai_api_key, slack_bot_token, created_at, updated_at`,
		profile.UserID, profile.OpenAIAPIKey, profile.SlackBotToken)

	return row.Scan(&profile.UserID, &profile.OpenAIAPIKey, &profile.SlackBotToken,
		&profile.CreatedAt, &profile.UpdatedAt)
}
