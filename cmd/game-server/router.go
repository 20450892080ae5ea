package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"chess-arena/internal/app/arena"
	"chess-arena/internal/app/channels"
	"chess-arena/internal/store"
)

func newRouter(st store.Store, svc *arena.Service, chanSvc *channels.Service) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Use(bodyCaptureMiddleware(4096))
		r.Post("/game/action", actionHandler(svc))
		r.Get("/game/status", statusHandler(svc))
		r.Post("/pusher/auth", pusherAuthHandler(chanSvc))
	})
	return r
}

func healthHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			writeHTTPError(w, http.StatusServiceUnavailable, "store_unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
