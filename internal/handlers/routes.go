package handlers

import (
	"net/http"

	"github.com/clubsite/club-api/internal/auth"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(
	r *chi.Mux,
	authHandler *auth.AuthHandler,
	eventHandler *EventHandler,
	rsvpHandler *RSVPHandler,
	carpoolHandler *CarpoolHandler,
	apiKeyHandler *APIKeyHandler,
) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(authHandler.SessionRenewal)

	// Initialize Huma API
	config := huma.DefaultConfig("Club API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes (plain OAuth redirects, outside the OpenAPI surface)
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	withCookieAuth := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	}

	huma.Get(api, "/me", authHandler.HandleMe, withCookieAuth)

	// Events
	huma.Post(api, "/events", eventHandler.HandleCreateEvent, withCookieAuth)
	huma.Get(api, "/events", eventHandler.HandleListEvents)
	huma.Get(api, "/events/{slug}", eventHandler.HandleGetEvent)
	huma.Delete(api, "/events/{eventId}", eventHandler.HandleDeleteEvent, withCookieAuth)

	// RSVPs
	huma.Put(api, "/events/{eventId}/rsvp", rsvpHandler.HandleUpsertRSVP, withCookieAuth)
	huma.Delete(api, "/events/{eventId}/rsvp", rsvpHandler.HandleDeleteRSVP, withCookieAuth)
	huma.Get(api, "/events/{eventId}/rsvps", rsvpHandler.HandleListRSVPs, withCookieAuth)

	// Carpools (board)
	huma.Post(api, "/events/{eventId}/carpools/generate", carpoolHandler.HandleGenerateCarpools, withCookieAuth)
	huma.Get(api, "/events/{eventId}/carpools", carpoolHandler.HandleGetCarpools, withCookieAuth)
	huma.Patch(api, "/carpools/{carpoolId}/members", carpoolHandler.HandleUpdateAssignment, withCookieAuth)
	huma.Post(api, "/events/{eventId}/carpools/reassign", carpoolHandler.HandleReassignRider, withCookieAuth)
	huma.Post(api, "/events/{eventId}/carpools/finalize", carpoolHandler.HandleFinalizeCarpools, withCookieAuth)
	huma.Post(api, "/events/{eventId}/carpools/emails", carpoolHandler.HandleSendCarpoolEmails, withCookieAuth)

	// API keys (board tooling)
	huma.Post(api, "/api-keys", apiKeyHandler.HandleCreate, withCookieAuth)
	huma.Get(api, "/api-keys", apiKeyHandler.HandleList, withCookieAuth)
	huma.Delete(api, "/api-keys/{id}", apiKeyHandler.HandleDelete, withCookieAuth)
}
