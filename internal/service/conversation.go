package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cerium.app/cerium/common/id"
	"cerium.app/cerium/common/logger"
	"cerium.app/cerium/internal/model"
	"cerium.app/cerium/internal/store"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotConversationOwner = errors.New("conversation belongs to another user")
)

type ConversationService interface {
	List(ctx context.Context, userID int64) ([]model.Conversation, error)
	Create(ctx context.Context, userID int64, title, chatModel string) (*model.Conversation, error)
	Update(ctx context.Context, userID, conversationID int64, fields store.ConversationUpdate) (*model.Conversation, error)
	Delete(ctx context.Context, userID, conversationID int64) error
	DeleteAll(ctx context.Context, userID int64) error

	Messages(ctx context.Context, userID, conversationID int64) ([]model.Message, error)
	CountMessages(ctx context.Context, userID, conversationID int64) (int64, error)
	// AppendMessage inserts a message; the store assigns the sequence number
	// and the returned row echoes the caller's client_ref.
	AppendMessage(ctx context.Context, userID int64, msg *model.Message) (*model.Message, error)
}

type conversationService struct {
	convStore store.ConversationStore
	msgStore  store.MessageStore
}

func NewConversationService(convStore store.ConversationStore, msgStore store.MessageStore) ConversationService {
	return &conversationService{
		convStore: convStore,
		msgStore:  msgStore,
	}
}

func (s *conversationService) List(ctx context.Context, userID int64) ([]model.Conversation, error) {
	return s.convStore.ListByUser(ctx, userID)
}

func (s *conversationService) Create(ctx context.Context, userID int64, title, chatModel string) (*model.Conversation, error) {
	conv := &model.Conversation{
		ID:     id.New(),
		UserID: userID,
		Title:  title,
		Model:  chatModel,
	}

	if err := s.convStore.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	slog.InfoContext(ctx, "conversation created",
		"conversation_id", conv.ID,
		"user_id", userID,
	)
	return conv, nil
}

func (s *conversationService) Update(ctx context.Context, userID, conversationID int64, fields store.ConversationUpdate) (*model.Conversation, error) {
	if _, err := s.requireOwner(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	updated, err := s.convStore.Update(ctx, conversationID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	return updated, nil
}

func (s *conversationService) Delete(ctx context.Context, userID, conversationID int64) error {
	if _, err := s.requireOwner(ctx, userID, conversationID); err != nil {
		return err
	}

	if err := s.convStore.Delete(ctx, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

func (s *conversationService) DeleteAll(ctx context.Context, userID int64) error {
	if err := s.convStore.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting conversations: %w", err)
	}

	slog.InfoContext(ctx, "all conversations deleted", "user_id", userID)
	return nil
}

func (s *conversationService) Messages(ctx context.Context, userID, conversationID int64) ([]model.Message, error) {
	if _, err := s.requireOwner(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.msgStore.ListByConversation(ctx, conversationID)
}

func (s *conversationService) CountMessages(ctx context.Context, userID, conversationID int64) (int64, error) {
	if _, err := s.requireOwner(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.msgStore.Count(ctx, conversationID)
}

func (s *conversationService) AppendMessage(ctx context.Context, userID int64, msg *model.Message) (*model.Message, error) {
	if _, err := s.requireOwner(ctx, userID, msg.ConversationID); err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:         logger.Ptr(userID),
		ConversationID: logger.Ptr(msg.ConversationID),
	})

	if msg.ID == 0 {
		msg.ID = id.New()
	}

	if err := s.msgStore.Insert(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	slog.DebugContext(ctx, "message appended",
		"message_id", msg.ID,
		"role", msg.Role,
		"sequence", msg.Sequence,
	)
	return msg, nil
}

func (s *conversationService) requireOwner(ctx context.Context, userID, conversationID int64) (*model.Conversation, error) {
	conv, err := s.convStore.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}
	return conv, nil
}
