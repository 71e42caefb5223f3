package handlers

import (
	"net/http"
	"strconv"
	"time"

	"PonyExpress/server/internal/appMiddleware"
	"PonyExpress/server/internal/models"
	"PonyExpress/server/internal/services"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	users     *services.UserService
	chats     *services.ChatService
	jwtSecret []byte
	tokenTTL  time.Duration
}

func New(users *services.UserService, chats *services.ChatService, jwtSecret []byte, tokenTTL time.Duration) *Handlers {
	return &Handlers{
		users:     users,
		chats:     chats,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// currentUser resolves the authenticated caller from the request context.
// A missing or stale token subject is an authentication failure, not a 404.
func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	user, err := h.users.GetUserById(r.Context(), userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

// pathID parses an integer id from the route. A malformed id behaves like an
// id that matches nothing: entity_not_found with the raw value.
func pathID(w http.ResponseWriter, r *http.Request, param, entityName string) (int, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		respondError(w, models.NewEntityNotFound(entityName, raw))
		return 0, false
	}
	return id, true
}
