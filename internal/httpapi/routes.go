package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/card-duel-backend/internal/catalog"
	"github.com/DoyleJ11/card-duel-backend/internal/hub"
	"github.com/DoyleJ11/card-duel-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, cards *catalog.Catalog, wsOpts ws.Options, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, wsOpts, log))

	r.Route("/api", func(r chi.Router) {
		r.Use(requestLogger(log))
		r.Get("/rooms", ListRooms(h))
		r.Get("/cards", ListCards(cards))
		r.Get("/cards/{id}", GetCard(cards))
	})
	return r
}
