// Package memory provides an in-memory storage.Storage implementation with
// the same semantics as the postgres store. It backs the unit and handler
// tests and is safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"

	"PonyExpress/server/internal/models"
)

type Store struct {
	mu sync.RWMutex

	users    map[int]*models.User
	chats    map[int]*models.Chat
	messages map[int]*models.Message
	// members maps chat id to its membership set.
	members map[int]map[int]bool
	// order keeps per-chat message ids in insertion order.
	order map[int][]int

	nextUserID int
	nextChatID int
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int]*models.User),
		chats:    make(map[int]*models.Chat),
		messages: make(map[int]*models.Message),
		members:  make(map[int]map[int]bool),
		order:    make(map[int][]int),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (s *Store) copyChat(c *models.Chat) *models.Chat {
	chat := *c
	if owner, ok := s.users[c.OwnerID]; ok {
		chat.Owner = copyUser(owner)
	}
	return &chat
}

func (s *Store) copyMessage(m *models.Message) *models.Message {
	msg := *m
	if author, ok := s.users[m.UserID]; ok {
		msg.User = copyUser(author)
	}
	return &msg
}

//   -------- users --------   //

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, *s.users[id])
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return models.NewDuplicateEntity("User", user.Username)
		}
		if existing.Email == user.Email {
			return models.NewDuplicateEntity("User", user.Email)
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, models.NewEntityNotFound("User", id)
	}
	return copyUser(user), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, models.NewEntityNotFound("User", email)
}

func (s *Store) UpdateUser(ctx context.Context, id int, update models.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, models.NewEntityNotFound("User", id)
	}

	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if update.Username != nil && other.Username == *update.Username {
			return nil, models.NewDuplicateEntity("User", *update.Username)
		}
		if update.Email != nil && other.Email == *update.Email {
			return nil, models.NewDuplicateEntity("User", *update.Email)
		}
	}

	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	return copyUser(user), nil
}

func (s *Store) DeleteUser(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return models.NewEntityNotFound("User", id)
	}
	delete(s.users, id)

	// Cascade: memberships, authored messages and owned chats go with the
	// user, matching the schema's ON DELETE CASCADE.
	for chatID := range s.members {
		delete(s.members[chatID], id)
	}
	for msgID, msg := range s.messages {
		if msg.UserID == id {
			s.dropMessage(msgID, msg.ChatID)
		}
	}
	for chatID, chat := range s.chats {
		if chat.OwnerID == id {
			delete(s.chats, chatID)
			delete(s.members, chatID)
			for _, msgID := range s.order[chatID] {
				delete(s.messages, msgID)
			}
			delete(s.order, chatID)
		}
	}
	return nil
}

func (s *Store) ListUserChats(ctx context.Context, userID int) ([]models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chats []models.Chat
	for chatID, memberSet := range s.members {
		if memberSet[userID] {
			chats = append(chats, *s.copyChat(s.chats[chatID]))
		}
	}
	return chats, nil
}

//   -------- chats --------   //

func (s *Store) CreateChat(ctx context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[chat.OwnerID]; !ok {
		return models.NewEntityNotFound("User", chat.OwnerID)
	}

	s.nextChatID++
	chat.ID = s.nextChatID
	stored := *chat
	stored.Owner = nil
	s.chats[chat.ID] = &stored
	s.members[chat.ID] = make(map[int]bool)
	return nil
}

func (s *Store) GetChat(ctx context.Context, id int) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, models.NewEntityNotFound("Chat", id)
	}
	return s.copyChat(chat), nil
}

func (s *Store) UpdateChat(ctx context.Context, id int, name string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, models.NewEntityNotFound("Chat", id)
	}
	chat.Name = name
	return s.copyChat(chat), nil
}

func (s *Store) DeleteChat(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return models.NewEntityNotFound("Chat", id)
	}
	delete(s.chats, id)
	delete(s.members, id)

	// Cascade: the chat's messages go with it.
	for _, msgID := range s.order[id] {
		delete(s.messages, msgID)
	}
	delete(s.order, id)
	return nil
}

func (s *Store) GetChatMemberIDs(ctx context.Context, chatID int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int
	for id := range s.members[chatID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *Store) ListChatUsers(ctx context.Context, chatID int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int
	for id := range s.members[chatID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var users []models.User
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

//   -------- messages --------   //

func (s *Store) ListChatMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var messages []models.Message
	for _, msgID := range s.order[chatID] {
		messages = append(messages, *s.copyMessage(s.messages[msgID]))
	}
	return messages, nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[msg.ChatID]; !ok {
		return models.NewEntityNotFound("Chat", msg.ChatID)
	}
	if _, taken := s.messages[msg.ID]; taken {
		return models.ErrDuplicateMessageID
	}

	stored := *msg
	stored.User = nil
	s.messages[msg.ID] = &stored
	s.order[msg.ChatID] = append(s.order[msg.ChatID], msg.ID)
	s.members[msg.ChatID][msg.UserID] = true
	return nil
}

func (s *Store) GetMessage(ctx context.Context, chatID, messageID int) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageID]
	if !ok || msg.ChatID != chatID {
		return nil, models.NewEntityNotFound("Message", messageID)
	}
	return s.copyMessage(msg), nil
}

func (s *Store) UpdateMessage(ctx context.Context, chatID, messageID int, text string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok || msg.ChatID != chatID {
		return nil, models.NewEntityNotFound("Message", messageID)
	}
	msg.Text = text
	return s.copyMessage(msg), nil
}

func (s *Store) DeleteMessage(ctx context.Context, chatID, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok || msg.ChatID != chatID {
		return models.NewEntityNotFound("Message", messageID)
	}
	s.dropMessage(messageID, msg.ChatID)
	return nil
}

// dropMessage removes a message row and its slot in the chat's insertion
// order. Caller holds the write lock.
func (s *Store) dropMessage(messageID, chatID int) {
	delete(s.messages, messageID)
	ids := s.order[chatID]
	for i, id := range ids {
		if id == messageID {
			s.order[chatID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}
