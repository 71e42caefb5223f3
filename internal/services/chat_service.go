package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"PonyExpress/server/internal/models"
	"PonyExpress/server/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/sethvargo/go-retry"
)

const (
	// messageIDSpace is the range message ids are drawn from (1..1e8). Wide
	// enough that collisions are rare; the store enforces uniqueness anyway.
	messageIDSpace = 100_000_000

	// maxIDRetries caps the collision retry loop. At any realistic message
	// volume the cap is unreachable; hitting it surfaces as an internal error.
	maxIDRetries = 50
)

type ChatService struct {
	storage storage.Storage
	clock   clockwork.Clock

	// newMessageID draws a candidate message id. Swapped out in tests to
	// force collisions.
	newMessageID func() int
}

func NewChatService(st storage.Storage, clock clockwork.Clock) *ChatService {
	return &ChatService{
		storage: st,
		clock:   clock,
		newMessageID: func() int {
			return rand.Intn(messageIDSpace) + 1
		},
	}
}

// ListUserChats returns the caller's chats sorted by name.
func (cs *ChatService) ListUserChats(ctx context.Context, userID int) ([]models.Chat, error) {
	chats, err := cs.storage.ListUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].Name < chats[j].Name })
	return chats, nil
}

func (cs *ChatService) CreateChat(ctx context.Context, name string, owner *models.User) (*models.Chat, error) {
	chat := &models.Chat{
		Name:      name,
		OwnerID:   owner.ID,
		CreatedAt: cs.clock.Now(),
	}
	if err := cs.storage.CreateChat(ctx, chat); err != nil {
		return nil, err
	}
	chat.Owner = owner
	return chat, nil
}

// GetChatResponse resolves the chat, checks membership and assembles the
// single-chat envelope, embedding messages and users when asked for.
func (cs *ChatService) GetChatResponse(ctx context.Context, chatID int, user *models.User, includeMessages, includeUsers bool) (*models.ChatResponse, error) {
	chat, memberIDs, err := cs.memberChat(ctx, chatID, user, "view chat")
	if err != nil {
		return nil, err
	}

	messages, err := cs.storage.ListChatMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	resp := &models.ChatResponse{
		Meta: models.ChatMetadata{
			MessageCount: len(messages),
			UserCount:    len(memberIDs),
		},
		Chat: *chat,
	}
	if includeMessages {
		resp.Messages = messages
	}
	if includeUsers {
		users, err := cs.ListChatUsers(ctx, chatID, user)
		if err != nil {
			return nil, err
		}
		resp.Users = users
	}
	return resp, nil
}

func (cs *ChatService) UpdateChat(ctx context.Context, chatID int, user *models.User, name string) (*models.Chat, error) {
	chat, err := cs.storage.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !IsChatOwner(chat, user.ID) {
		return nil, models.NewPermissionDenied("edit chat")
	}
	return cs.storage.UpdateChat(ctx, chatID, name)
}

func (cs *ChatService) DeleteChat(ctx context.Context, chatID int, user *models.User) error {
	chat, err := cs.storage.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !IsChatOwner(chat, user.ID) {
		return models.NewPermissionDenied("delete chat")
	}
	return cs.storage.DeleteChat(ctx, chatID)
}

// ListChatMessages returns the chat's messages in insertion order. The caller
// must be a member.
func (cs *ChatService) ListChatMessages(ctx context.Context, chatID int, user *models.User) ([]models.Message, error) {
	if _, _, err := cs.memberChat(ctx, chatID, user, "view chat"); err != nil {
		return nil, err
	}
	return cs.storage.ListChatMessages(ctx, chatID)
}

// ListChatUsers returns the chat's members sorted by id. The caller must be a
// member.
func (cs *ChatService) ListChatUsers(ctx context.Context, chatID int, user *models.User) ([]models.User, error) {
	if _, _, err := cs.memberChat(ctx, chatID, user, "view chat"); err != nil {
		return nil, err
	}
	users, err := cs.storage.ListChatUsers(ctx, chatID)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// CreateMessage persists a new message for a member of the chat, drawing
// random ids until one lands. Only the specific duplicate-id conflict is
// retried; the chat is re-fetched fresh on every attempt so a concurrently
// deleted chat turns into not-found instead of an endless loop.
func (cs *ChatService) CreateMessage(ctx context.Context, chatID int, author *models.User, text string) (*models.Message, error) {
	if _, _, err := cs.memberChat(ctx, chatID, author, "post to chat"); err != nil {
		return nil, err
	}

	var msg *models.Message
	backoff := retry.WithMaxRetries(maxIDRetries, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		chat, err := cs.storage.GetChat(ctx, chatID)
		if err != nil {
			return err
		}

		candidate := &models.Message{
			ID:        cs.newMessageID(),
			ChatID:    chat.ID,
			UserID:    author.ID,
			Text:      text,
			CreatedAt: cs.clock.Now(),
		}
		if err := cs.storage.InsertMessage(ctx, candidate); err != nil {
			if errors.Is(err, models.ErrDuplicateMessageID) {
				log.Printf("Message id %d already taken, redrawing", candidate.ID)
				return retry.RetryableError(err)
			}
			return err
		}
		msg = candidate
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateMessageID) {
			return nil, fmt.Errorf("exhausted %d message id draws: %w", maxIDRetries, err)
		}
		return nil, err
	}

	msg.User = author
	return msg, nil
}

// GetMessage resolves a message within a chat; an id that exists under a
// different chat reports not-found.
func (cs *ChatService) GetMessage(ctx context.Context, chatID, messageID int) (*models.Message, error) {
	return cs.storage.GetMessage(ctx, chatID, messageID)
}

func (cs *ChatService) UpdateMessage(ctx context.Context, chatID, messageID int, user *models.User, text string) (*models.Message, error) {
	msg, err := cs.storage.GetMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if !IsMessageAuthor(msg, user.ID) {
		return nil, models.NewPermissionDenied("edit message")
	}
	return cs.storage.UpdateMessage(ctx, chatID, messageID, text)
}

func (cs *ChatService) DeleteMessage(ctx context.Context, chatID, messageID int, user *models.User) error {
	msg, err := cs.storage.GetMessage(ctx, chatID, messageID)
	if err != nil {
		return err
	}
	if !IsMessageAuthor(msg, user.ID) {
		return models.NewPermissionDenied("delete message")
	}
	return cs.storage.DeleteMessage(ctx, chatID, messageID)
}

// memberChat resolves the chat and its membership, then applies the
// membership guard. Resolution comes first so a missing chat is not-found,
// not forbidden.
func (cs *ChatService) memberChat(ctx context.Context, chatID int, user *models.User, action string) (*models.Chat, []int, error) {
	chat, err := cs.storage.GetChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	memberIDs, err := cs.storage.GetChatMemberIDs(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !IsChatMember(memberIDs, user.ID) {
		return nil, nil, models.NewPermissionDenied(action)
	}
	return chat, memberIDs, nil
}
