package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mrheathv/mtg-deck-builder/internal/api/handlers"
	"github.com/mrheathv/mtg-deck-builder/internal/api/response"
	"github.com/mrheathv/mtg-deck-builder/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Catalog routes
		catalogHandler := handlers.NewCatalogHandler(s.builder)
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/cards", catalogHandler.ListCards)
			r.Get("/search", catalogHandler.SearchCards)
			r.Get("/cards/{name}", catalogHandler.GetCard)
			r.Get("/prompt", catalogHandler.GetPrompt)
		})

		// Session routes
		sessionHandler := handlers.NewSessionHandler(s.builder)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/{sessionID}", sessionHandler.GetSession)
			r.Delete("/{sessionID}", sessionHandler.DeleteSession)
			r.Post("/{sessionID}/messages", sessionHandler.SendMessage)
		})

		// Event stream (WebSocket). ?session=<id> limits it to one session.
		r.Get("/events", s.hub.ServeWs)

		// System routes
		systemHandler := handlers.NewSystemHandler(s.builder)
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", systemHandler.GetStatus)
			r.Get("/metrics", systemHandler.GetMetrics)
			r.Post("/metrics/reset", systemHandler.ResetMetrics)
		})

		// Deck text routes
		deckHandler := handlers.NewDeckHandler(s.builder)
		r.Route("/decks", func(r chi.Router) {
			r.Post("/parse", deckHandler.ParseDeck)
			r.Post("/import", deckHandler.ImportDeck)
			r.Post("/export", deckHandler.ExportDeck)
			r.Post("/stats", deckHandler.GetStats)
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	status := "healthy"
	cardCount := 0
	if catalog := s.builder.Catalog(); catalog != nil {
		cardCount = catalog.Len()
	} else {
		status = "degraded"
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"service": "mtg-deck-builder-api",
		"version": version.String(),
		"cards":   cardCount,
	})
}
