package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cerium.app/cerium/core/db"
	"cerium.app/cerium/internal/changefeed"
	"cerium.app/cerium/internal/model"
)

type messageStore struct {
	db      *db.DB
	changes changefeed.Publisher
}

const messageColumns = `id, conversation_id, role, content, model, metadata, client_ref, sequence, created_at`

func (s *messageStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY sequence ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (s *messageStore) Count(ctx context.Context, conversationID int64) (int64, error) {
	var count int64
	err := s.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&count)
	return count, err
}

// Insert appends a message to its conversation. The sequence number is
// assigned here, not by the caller: the conversation row is locked, the next
// sequence is the current message count, and the conversation's updated_at
// is bumped, all in one transaction. Concurrent inserts therefore serialize
// on the conversation row and can never produce colliding sequences.
func (s *messageStore) Insert(ctx context.Context, msg *model.Message) error {
	var metadata []byte
	if msg.Metadata != nil {
		var err error
		metadata, err = json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling message metadata: %w", err)
		}
	}

	var inserted *model.Message
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var convID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, msg.ConversationID).Scan(&convID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		var sequence int32
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, msg.ConversationID).Scan(&sequence); err != nil {
			return err
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO messages (id, conversation_id, role, content, model, metadata, client_ref, sequence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+messageColumns,
			msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Model, metadata, msg.ClientRef, sequence)

		inserted, err = scanMessage(row)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE conversations SET updated_at = now() WHERE id = $1`, msg.ConversationID)
		return err
	})
	if err != nil {
		return err
	}

	*msg = *inserted

	s.changes.Publish(ctx, changefeed.Event{
		Table:  "messages",
		Op:     changefeed.OpInsert,
		Filter: changefeed.ConversationFilter(msg.ConversationID),
		RowID:  msg.ID,
		At:     time.Now(),
	})
	return nil
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var msg model.Message
	var role string
	var metadata []byte
	err := row.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.Model,
		&metadata, &msg.ClientRef, &msg.Sequence, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	msg.Role = model.MessageRole(role)

	if len(metadata) > 0 {
		var meta model.MessageMetadata
		if err := json.Unmarshal(metadata, &meta); err != nil {
			return nil, fmt.Errorf("unmarshaling message metadata: %w", err)
		}
		msg.Metadata = &meta
	}
	return &msg, nil
}
