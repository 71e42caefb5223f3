package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"PonyExpress/server/internal/services"

	"github.com/golang-jwt/jwt/v4"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondJSON(w, http.StatusUnauthorized, map[string]string{
				"message": "Invalid email or password",
			})
			return
		}
		respondError(w, err)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      h.users.Now().Add(h.tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		log.Printf("Error creating token for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}
