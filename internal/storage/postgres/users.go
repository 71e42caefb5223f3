package postgres

import (
	"context"
	"errors"
	"log"

	"PonyExpress/server/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	sqlStr, args, err := psql.
		Select("id", "username", "email", "hashed_password", "created_at").
		From("users").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error listing users: %v", err)
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

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	sqlStr, args, err := psql.
		Insert("users").
		Columns("username", "email", "hashed_password", "created_at").
		Values(user.Username, user.Email, user.PasswordHash, user.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}

	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&user.ID)
	if err != nil {
		if uniqueViolation(err, "users_username_key") {
			return models.NewDuplicateEntity("User", user.Username)
		}
		if uniqueViolation(err, "users_email_key") {
			return models.NewDuplicateEntity("User", user.Email)
		}
		log.Printf("Error creating user %s: %v", user.Username, err)
		return err
	}
	return nil
}

func (s *Store) getUserBy(ctx context.Context, pred squirrel.Eq, id any) (*models.User, error) {
	sqlStr, args, err := psql.
		Select("id", "username", "email", "hashed_password", "created_at").
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NewEntityNotFound("User", id)
		}
		log.Printf("Error fetching user %v: %v", id, err)
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.getUserBy(ctx, squirrel.Eq{"id": id}, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserBy(ctx, squirrel.Eq{"email": email}, email)
}

func (s *Store) UpdateUser(ctx context.Context, id int, update models.UserUpdate) (*models.User, error) {
	setClause := squirrel.Eq{}
	if update.Username != nil {
		setClause["username"] = *update.Username
	}
	if update.Email != nil {
		setClause["email"] = *update.Email
	}
	if len(setClause) == 0 {
		return s.GetUser(ctx, id)
	}

	sqlStr, args, err := psql.
		Update("users").
		SetMap(setClause).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		if uniqueViolation(err, "users_username_key") {
			return nil, models.NewDuplicateEntity("User", *update.Username)
		}
		if uniqueViolation(err, "users_email_key") {
			return nil, models.NewDuplicateEntity("User", *update.Email)
		}
		log.Printf("Error updating user %d: %v", id, err)
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, models.NewEntityNotFound("User", id)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id int) error {
	sqlStr, args, err := psql.
		Delete("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error deleting user %d: %v", id, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return models.NewEntityNotFound("User", id)
	}
	return nil
}

func (s *Store) ListUserChats(ctx context.Context, userID int) ([]models.Chat, error) {
	sqlStr, args, err := psql.
		Select("c.id", "c.name", "c.owner_id", "c.created_at",
			"u.id", "u.username", "u.email", "u.created_at").
		From("chats c").
		Join("user_chat_links l ON c.id = l.chat_id").
		Join("users u ON c.owner_id = u.id").
		Where(squirrel.Eq{"l.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error listing chats for user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	return scanChats(rows)
}
