package models

import (
	"time"
)

type Message struct {
	ID        int       `json:"id" db:"id"`
	ChatID    int       `json:"chat_id" db:"chat_id"`
	UserID    int       `json:"-" db:"user_id"`
	User      *User     `json:"user,omitempty"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
