package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/clubsite/club-api/internal/auth"
	"github.com/clubsite/club-api/internal/config"
	"github.com/clubsite/club-api/internal/database"
	"github.com/clubsite/club-api/internal/handlers"
	"github.com/clubsite/club-api/internal/mailer"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Discord session is used to read guild roles at login. Without a bot
	// token the server still runs; board status then has to be set manually.
	var session *discordgo.Session
	if cfg.DiscordBotToken != "" {
		var err error
		session, err = discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord session not initialized: %v", err)
		}
	}

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db, session)
	eventHandler := handlers.NewEventHandler(db, authHandler)
	rsvpHandler := handlers.NewRSVPHandler(db, authHandler)
	carpoolHandler := handlers.NewCarpoolHandler(db, mailer.NewHTTPMailer(cfg), authHandler, cfg.MailConcurrency)
	apiKeyHandler := handlers.NewAPIKeyHandler(db, authHandler)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, eventHandler, rsvpHandler, carpoolHandler, apiKeyHandler)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
