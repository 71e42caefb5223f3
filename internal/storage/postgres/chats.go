package postgres

import (
	"context"
	"errors"
	"log"

	"PonyExpress/server/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

func scanChats(rows pgx.Rows) ([]models.Chat, error) {
	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		var owner models.User
		err := rows.Scan(&chat.ID, &chat.Name, &chat.OwnerID, &chat.CreatedAt,
			&owner.ID, &owner.Username, &owner.Email, &owner.CreatedAt)
		if err != nil {
			return nil, err
		}
		chat.Owner = &owner
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (s *Store) CreateChat(ctx context.Context, chat *models.Chat) error {
	sqlStr, args, err := psql.
		Insert("chats").
		Columns("name", "owner_id", "created_at").
		Values(chat.Name, chat.OwnerID, chat.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}

	if err := s.pool.QueryRow(ctx, sqlStr, args...).Scan(&chat.ID); err != nil {
		log.Printf("Error creating chat %q: %v", chat.Name, err)
		return err
	}
	return nil
}

func (s *Store) GetChat(ctx context.Context, id int) (*models.Chat, error) {
	sqlStr, args, err := psql.
		Select("c.id", "c.name", "c.owner_id", "c.created_at",
			"u.id", "u.username", "u.email", "u.created_at").
		From("chats c").
		Join("users u ON c.owner_id = u.id").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var chat models.Chat
	var owner models.User
	err = s.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&chat.ID, &chat.Name, &chat.OwnerID, &chat.CreatedAt,
			&owner.ID, &owner.Username, &owner.Email, &owner.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NewEntityNotFound("Chat", id)
		}
		log.Printf("Error fetching chat %d: %v", id, err)
		return nil, err
	}
	chat.Owner = &owner
	return &chat, nil
}

func (s *Store) UpdateChat(ctx context.Context, id int, name string) (*models.Chat, error) {
	sqlStr, args, err := psql.
		Update("chats").
		Set("name", name).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error updating chat %d: %v", id, err)
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, models.NewEntityNotFound("Chat", id)
	}
	return s.GetChat(ctx, id)
}

func (s *Store) DeleteChat(ctx context.Context, id int) error {
	sqlStr, args, err := psql.
		Delete("chats").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error deleting chat %d: %v", id, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return models.NewEntityNotFound("Chat", id)
	}
	return nil
}

func (s *Store) GetChatMemberIDs(ctx context.Context, chatID int) ([]int, error) {
	sqlStr, args, err := psql.
		Select("user_id").
		From("user_chat_links").
		Where(squirrel.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error fetching members of chat %d: %v", chatID, err)
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListChatUsers(ctx context.Context, chatID int) ([]models.User, error) {
	sqlStr, args, err := psql.
		Select("u.id", "u.username", "u.email", "u.hashed_password", "u.created_at").
		From("users u").
		Join("user_chat_links l ON u.id = l.user_id").
		Where(squirrel.Eq{"l.chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error listing users of chat %d: %v", chatID, err)
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
