package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"PonyExpress/server/internal/models"
	"PonyExpress/server/internal/storage"
	"PonyExpress/server/internal/utils"

	"github.com/jonboulle/clockwork"
)

// ErrInvalidCredentials is returned by Authenticate for a wrong password or
// an unknown email. Callers must not reveal which of the two it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService struct {
	storage storage.Storage
	clock   clockwork.Clock
}

func NewUserService(st storage.Storage, clock clockwork.Clock) *UserService {
	return &UserService{storage: st, clock: clock}
}

// Now exposes the service clock so callers stamp tokens and entities off the
// same source of time.
func (us *UserService) Now() time.Time {
	return us.clock.Now()
}

func (us *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password for %s: %v", username, err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    us.clock.Now(),
	}
	if err := us.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (us *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := us.storage.GetUserByEmail(ctx, email)
	if err != nil {
		var notFound *models.EntityNotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := utils.CheckPasswordHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ListUsers returns all users sorted by id.
func (us *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := us.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (us *UserService) GetUserById(ctx context.Context, id int) (*models.User, error) {
	return us.storage.GetUser(ctx, id)
}

func (us *UserService) UpdateUser(ctx context.Context, id int, update models.UserUpdate) (*models.User, error) {
	return us.storage.UpdateUser(ctx, id, update)
}

func (us *UserService) DeleteUser(ctx context.Context, id int) error {
	return us.storage.DeleteUser(ctx, id)
}

// GetUserChats returns the chats the user is a member of, sorted by name.
// The user is resolved first so an unknown id reports not-found.
func (us *UserService) GetUserChats(ctx context.Context, userID int) ([]models.Chat, error) {
	if _, err := us.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	chats, err := us.storage.ListUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].Name < chats[j].Name })
	return chats, nil
}
