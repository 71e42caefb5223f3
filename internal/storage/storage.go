package storage

import (
	"context"

	"PonyExpress/server/internal/models"
)

// Storage is the data-access layer over the relational schema. Single-entity
// lookups return *models.EntityNotFoundError when no row matches; CreateUser
// returns *models.DuplicateEntityError on a username/email conflict;
// InsertMessage returns models.ErrDuplicateMessageID when the chosen message
// id is already taken. Any other failure propagates unchanged.
type Storage interface {
	// Users
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id int, update models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	// ListUserChats returns the chats the user is currently a member of,
	// owners embedded. It does not check that the user exists.
	ListUserChats(ctx context.Context, userID int) ([]models.Chat, error)

	// Chats
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, id int) (*models.Chat, error)
	UpdateChat(ctx context.Context, id int, name string) (*models.Chat, error)
	DeleteChat(ctx context.Context, id int) error
	GetChatMemberIDs(ctx context.Context, chatID int) ([]int, error)
	ListChatUsers(ctx context.Context, chatID int) ([]models.User, error)

	// Messages
	ListChatMessages(ctx context.Context, chatID int) ([]models.Message, error)
	// InsertMessage persists the message with its caller-chosen id and, in the
	// same transaction, adds the author to the chat's membership if absent.
	InsertMessage(ctx context.Context, msg *models.Message) error
	// GetMessage is scoped to a chat: a message with the right id but a
	// different chat_id is reported as not found.
	GetMessage(ctx context.Context, chatID, messageID int) (*models.Message, error)
	UpdateMessage(ctx context.Context, chatID, messageID int, text string) (*models.Message, error)
	DeleteMessage(ctx context.Context, chatID, messageID int) error
}
