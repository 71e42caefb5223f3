package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"PonyExpress/server/internal/models"
)

func (h *Handlers) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
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

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id", "User")
	if !ok {
		return
	}

	user, err := h.users.GetUserById(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handlers) GetSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handlers) UpdateSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var update models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("Error decoding request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), user.ID, update)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": updated})
}

func (h *Handlers) DeleteSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetUserChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id", "User")
	if !ok {
		return
	}

	chats, err := h.users.GetUserChats(r.Context(), userID)
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
