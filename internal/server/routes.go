package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, store Store, registry *Registry, claimRatePerHour int) {
	broadcaster := NewBroadcaster(registry, logger)
	coordinator := NewClaimCoordinator(store, broadcaster, logger)
	codegen := NewCodeGenerator(store)
	limiter := newClaimLimiter(claimRatePerHour)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Cache Quest API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// The live channel authenticates via query parameter, outside the
	// header-based middleware.
	r.Get("/api/live", handleLive(logger, store, registry))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(store))

		r.Get("/spots", handleListSpots(store))
		r.Post("/spots/claim", handleClaim(coordinator, limiter))
		r.Get("/spots/updates", handleSpotUpdates(store))
		r.Get("/spots/{id}/clue", handleClue(store))
		r.Get("/spots/{id}/finds", handleSpotFinds(store))
		r.Get("/users/me", handleMe())
		r.Get("/users/me/finds", handleMyFinds(store))

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireOperator)

			r.Get("/spots", handleAdminListSpots(store))
			r.Post("/spots", handleAdminCreateSpot(store, codegen))
			r.Patch("/spots/{id}", handleAdminUpdateSpot(store))
			r.Post("/spots/{id}/deactivate", handleAdminDeactivateSpot(store))
			r.Delete("/spots/{id}", handleAdminDeleteSpot(store))

			r.Get("/participants", handleAdminListParticipants(store))
			r.Post("/participants", handleAdminCreateParticipant(store))
			r.Get("/participants/{id}", handleAdminGetParticipant(store))
			r.Patch("/participants/{id}", handleAdminUpdateParticipant(store))
			r.Delete("/participants/{id}", handleAdminDeleteParticipant(store))
		})
	})
}
