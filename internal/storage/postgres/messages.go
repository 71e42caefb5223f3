package postgres

import (
	"context"
	"errors"
	"log"

	"PonyExpress/server/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

func (s *Store) ListChatMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	// seq is a serial column tracking insertion order; message ids are random
	// and carry no ordering.
	sqlStr, args, err := psql.
		Select("m.id", "m.chat_id", "m.user_id", "m.text", "m.created_at",
			"u.id", "u.username", "u.email", "u.created_at").
		From("messages m").
		Join("users u ON m.user_id = u.id").
		Where(squirrel.Eq{"m.chat_id": chatID}).
		OrderBy("m.seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error listing messages of chat %d: %v", chatID, err)
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var author models.User
		err := rows.Scan(&msg.ID, &msg.ChatID, &msg.UserID, &msg.Text, &msg.CreatedAt,
			&author.ID, &author.Username, &author.Email, &author.CreatedAt)
		if err != nil {
			return nil, err
		}
		msg.User = &author
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *Store) InsertMessage(ctx context.Context, msg *models.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sqlStr, args, err := psql.
		Insert("messages").
		Columns("id", "chat_id", "user_id", "text", "created_at").
		Values(msg.ID, msg.ChatID, msg.UserID, msg.Text, msg.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		if uniqueViolation(err, "messages_pkey") {
			return models.ErrDuplicateMessageID
		}
		log.Printf("Error inserting message %d into chat %d: %v", msg.ID, msg.ChatID, err)
		return err
	}

	// Auto-join-on-send: the author becomes a member of the chat if absent.
	sqlStr, args, err = psql.
		Insert("user_chat_links").
		Columns("user_id", "chat_id").
		Values(msg.UserID, msg.ChatID).
		Suffix("ON CONFLICT (user_id, chat_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		log.Printf("Error adding user %d to chat %d: %v", msg.UserID, msg.ChatID, err)
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) GetMessage(ctx context.Context, chatID, messageID int) (*models.Message, error) {
	sqlStr, args, err := psql.
		Select("m.id", "m.chat_id", "m.user_id", "m.text", "m.created_at",
			"u.id", "u.username", "u.email", "u.created_at").
		From("messages m").
		Join("users u ON m.user_id = u.id").
		Where(squirrel.Eq{"m.id": messageID, "m.chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var msg models.Message
	var author models.User
	err = s.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&msg.ID, &msg.ChatID, &msg.UserID, &msg.Text, &msg.CreatedAt,
			&author.ID, &author.Username, &author.Email, &author.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NewEntityNotFound("Message", messageID)
		}
		log.Printf("Error fetching message %d of chat %d: %v", messageID, chatID, err)
		return nil, err
	}
	msg.User = &author
	return &msg, nil
}

func (s *Store) UpdateMessage(ctx context.Context, chatID, messageID int, text string) (*models.Message, error) {
	sqlStr, args, err := psql.
		Update("messages").
		Set("text", text).
		Where(squirrel.Eq{"id": messageID, "chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error updating message %d of chat %d: %v", messageID, chatID, err)
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, models.NewEntityNotFound("Message", messageID)
	}
	return s.GetMessage(ctx, chatID, messageID)
}

func (s *Store) DeleteMessage(ctx context.Context, chatID, messageID int) error {
	sqlStr, args, err := psql.
		Delete("messages").
		Where(squirrel.Eq{"id": messageID, "chat_id": chatID}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error deleting message %d of chat %d: %v", messageID, chatID, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return models.NewEntityNotFound("Message", messageID)
	}
	return nil
}
