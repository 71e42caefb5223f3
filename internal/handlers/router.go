package handlers

import (
	"PonyExpress/server/internal/appMiddleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router assembles the public route table. Registration, login and the public
// user reads skip authentication; everything else requires a bearer token.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(appMiddleware.CorsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Get("/users", h.GetUsers)
	r.Get("/users/{user_id}", h.GetUser)
	r.Get("/users/{user_id}/chats", h.GetUserChats)

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.AuthMiddleware(h.jwtSecret))

		r.Get("/users/me", h.GetSelf)
		r.Put("/users/me", h.UpdateSelf)
		r.Delete("/users/me", h.DeleteSelf)

		r.Get("/chats", h.GetChats)
		r.Get("/chats/{chat_id}", h.GetChat)
		r.Put("/chats/{chat_id}", h.UpdateChat)
		r.Delete("/chats/{chat_id}", h.DeleteChat)

		r.Get("/chats/{chat_id}/messages", h.GetChatMessages)
		r.Get("/chats/{chat_id}/users", h.GetChatUsers)
		r.Post("/chats/{chat_id}/messages", h.CreateMessage)
		r.Put("/chats/{chat_id}/messages/{message_id}", h.UpdateMessage)
		r.Delete("/chats/{chat_id}/messages/{message_id}", h.DeleteMessage)
	})

	return r
}
