package service

import (
	"context"
	"errors"
	"fmt"

	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/store"
)

type ProfileService interface {
	Get(ctx context.Context, userID int64) (*model.Profile, error)
	// SetCredentials updates only the provided credentials; nil means keep.
	SetCredentials(ctx context.Context, userID int64, openaiKey, slackToken *string) (*model.Profile, error)
}

type profileService struct {
	profileStore store.ProfileStore
}

func NewProfileService(profileStore store.ProfileStore) ProfileService {
	return &profileService{profileStore: profileStore}
}

func (s *profileService) Get(ctx context.Context, userID int64) (*model.Profile, error) {
	profile, err := s.profileStore.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A user without saved credentials still has a profile, just an
			// empty one.
			return &model.Profile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) SetCredentials(ctx context.Context, userID int64, openaiKey, slackToken *string) (*model.Profile, error) {
	profile := &model.Profile{
		UserID:        userID,
		OpenAIAPIKey:  openaiKey,
		SlackBotToken: slackToken,
	}

	if err := s.profileStore.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return profile, nil
}
