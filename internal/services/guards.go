package services

import (
	"PonyExpress/server/internal/models"
)

// Permission guards. All three are pure predicates; the caller resolves the
// target entity first so that a missing entity reports not-found rather than
// no-permission.

// IsChatMember reports whether the user is in the chat's membership set.
func IsChatMember(memberIDs []int, userID int) bool {
	for _, id := range memberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatOwner reports whether the user owns the chat.
func IsChatOwner(chat *models.Chat, userID int) bool {
	return chat.OwnerID == userID
}

// IsMessageAuthor reports whether the user authored the message.
func IsMessageAuthor(msg *models.Message, userID int) bool {
	return msg.UserID == userID
}
