package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"PonyExpress/server/internal/models"
)

type entityErrorDetail struct {
	Type       string `json:"type"`
	EntityName string `json:"entity_name"`
	EntityID   any    `json:"entity_id"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError maps the error taxonomy to the public contract: not-found and
// duplicate carry the entity detail payload, permission failures carry the
// no_permission payload, everything else is an opaque 500.
func respondError(w http.ResponseWriter, err error) {
	var notFound *models.EntityNotFoundError
	if errors.As(err, &notFound) {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"detail": entityErrorDetail{
				Type:       "entity_not_found",
				EntityName: notFound.EntityName,
				EntityID:   notFound.EntityID,
			},
		})
		return
	}

	var duplicate *models.DuplicateEntityError
	if errors.As(err, &duplicate) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": entityErrorDetail{
				Type:       "duplicate_entity",
				EntityName: duplicate.EntityName,
				EntityID:   duplicate.EntityID,
			},
		})
		return
	}

	var denied *models.PermissionDeniedError
	if errors.As(err, &denied) {
		respondJSON(w, http.StatusForbidden, map[string]any{
			"error":             "no_permission",
			"error_description": denied.Error(),
		})
		return
	}

	log.Printf("Internal error: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
