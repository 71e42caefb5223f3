package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"PonyExpress/server/internal/config"
	"PonyExpress/server/internal/db"
	"PonyExpress/server/internal/handlers"
	"PonyExpress/server/internal/services"
	"PonyExpress/server/internal/storage/postgres"

	"github.com/jonboulle/clockwork"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %s\n", err)
	}
	defer pool.Close()

	clock := clockwork.NewRealClock()
	store := postgres.NewStore(pool)
	userService := services.NewUserService(store, clock)
	chatService := services.NewChatService(store, clock)

	h := handlers.New(userService, chatService, []byte(cfg.JWTSecret), cfg.TokenTTL)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      h.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server started on %s\n", cfg.ServerAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %s\n", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Println("Stopping the server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %s\n", err)
	}
	log.Println("Server has been successfully stopped")
}
