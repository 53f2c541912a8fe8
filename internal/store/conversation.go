package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"cerium.app/cerium/core/db"
	"cerium.app/cerium/internal/changefeed"
	"cerium.app/cerium/internal/model"
)

type conversationStore struct {
	db      *db.DB
	changes changefeed.Publisher
}

const conversationColumns = `id, user_id, title, model, created_at, updated_at`

func (s *conversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	row := s.db.Pool().QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (s *conversationStore) ListByUser(ctx context.Context, userID int64) ([]model.Conversation, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}
	return conversations, rows.Err()
}

func (s *conversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	if conv.Title == "" {
		conv.Title = model.DefaultConversationTitle
	}

	row := s.db.Pool().QueryRow(ctx,
		`INSERT INTO conversations (id, user_id, title, model)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+conversationColumns,
		conv.ID, conv.UserID, conv.Title, conv.Model)

	created, err := scanConversation(row)
	if err != nil {
		return err
	}
	*conv = *created

	s.publish(ctx, changefeed.OpInsert, conv)
	return nil
}

func (s *conversationStore) Update(ctx context.Context, id int64, fields ConversationUpdate) (*model.Conversation, error) {
	row := s.db.Pool().QueryRow(ctx,
		`UPDATE conversations
		 SET title = COALESCE($2, title),
		     model = COALESCE($3, model),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+conversationColumns,
		id, fields.Title, fields.Model)

	updated, err := scanConversation(row)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, changefeed.OpUpdate, updated)
	return updated, nil
}

func (s *conversationStore) Delete(ctx context.Context, id int64) error {
	conv, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tag, err := s.db.Pool().Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.publish(ctx, changefeed.OpDelete, conv)
	return nil
}

func (s *conversationStore) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := s.db.Pool().Exec(ctx, `DELETE FROM conversations WHERE user_id = $1`, userID); err != nil {
		return err
	}

	s.changes.Publish(ctx, changefeed.Event{
		Table:  "conversations",
		Op:     changefeed.OpDelete,
		Filter: changefeed.UserFilter(userID),
		At:     time.Now(),
	})
	return nil
}

func (s *conversationStore) publish(ctx context.Context, op changefeed.Op, conv *model.Conversation) {
	s.changes.Publish(ctx, changefeed.Event{
		Table:  "conversations",
		Op:     op,
		Filter: changefeed.UserFilter(conv.UserID),
		RowID:  conv.ID,
		At:     time.Now(),
	})
}

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var conv model.Conversation
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Model, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}
