package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"PonyExpress/server/internal/models"
)

// includeFlags parses ?include=messages,users (repeated params or
// comma-separated).
func includeFlags(r *http.Request) (messages, users bool) {
	for _, raw := range r.URL.Query()["include"] {
		for _, part := range strings.Split(raw, ",") {
			switch strings.TrimSpace(part) {
			case "messages":
				messages = true
			case "users":
				users = true
			}
		}
	}
	return messages, users
}

func (h *Handlers) GetChats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	chats, err := h.chats.ListUserChats(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	respondJSON(w, http.StatusOK, models.ChatCollection{
		Meta:  models.Metadata{Count: len(chats)},
		Chats: chats,
	})
}

func (h *Handlers) GetChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}

	withMessages, withUsers := includeFlags(r)
	resp, err := h.chats.GetChatResponse(r.Context(), chatID, user, withMessages, withUsers)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) UpdateChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		log.Printf("Invalid chat update request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	chat, err := h.chats.UpdateChat(r.Context(), chatID, user, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"chat": chat})
}

func (h *Handlers) DeleteChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}

	if err := h.chats.DeleteChat(r.Context(), chatID, user); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}

	messages, err := h.chats.ListChatMessages(r.Context(), chatID, user)
	if err != nil {
		respondError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	respondJSON(w, http.StatusOK, models.MessageCollection{
		Meta:     models.Metadata{Count: len(messages)},
		Messages: messages,
	})
}

func (h *Handlers) GetChatUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}

	users, err := h.chats.ListChatUsers(r.Context(), chatID, user)
	if err != nil {
		respondError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respondJSON(w, http.StatusOK, models.UserCollection{
		Meta:  models.Metadata{Count: len(users)},
		Users: users,
	})
}

func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		log.Printf("Invalid message request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.chats.CreateMessage(r.Context(), chatID, user, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (h *Handlers) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}
	messageID, ok := pathID(w, r, "message_id", "Message")
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		log.Printf("Invalid message update request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.chats.UpdateMessage(r.Context(), chatID, messageID, user, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "chat_id", "Chat")
	if !ok {
		return
	}
	messageID, ok := pathID(w, r, "message_id", "Message")
	if !ok {
		return
	}

	if err := h.chats.DeleteMessage(r.Context(), chatID, messageID, user); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
