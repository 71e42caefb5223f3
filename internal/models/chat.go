package models

import (
	"time"
)

type Chat struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   int       `json:"-" db:"owner_id"`
	Owner     *User     `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserChatLink is a row of the many-to-many membership relation.
// The (user_id, chat_id) pair is the primary key.
type UserChatLink struct {
	UserID int `json:"user_id" db:"user_id"`
	ChatID int `json:"chat_id" db:"chat_id"`
}
