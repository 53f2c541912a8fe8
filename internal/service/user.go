package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/store"
)

type UserService interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)
	// Delete removes the user and everything hanging off them: sessions,
	// conversations (messages cascade in the schema) and the profile row.
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	userStore         store.UserStore
	sessionStore      store.SessionStore
	conversationStore store.ConversationStore
}

func NewUserService(userStore store.UserStore, sessionStore store.SessionStore, conversationStore store.ConversationStore) UserService {
	return &userService{
		userStore:         userStore,
		sessionStore:      sessionStore,
		conversationStore: conversationStore,
	}
}

func (s *userService) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, user *model.User) (*model.User, error) {
	if err := s.userStore.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, userID int64) error {
	if err := s.conversationStore.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting conversations: %w", err)
	}
	if err := s.sessionStore.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	if err := s.userStore.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deleting user: %w", err)
	}

	slog.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}
