package models

import (
	"time"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"hashed_password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserUpdate carries the self-service profile fields. Nil means "leave as is".
type UserUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}
