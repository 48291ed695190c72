package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/broadcast"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/session"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/store"
)

func newRouter(mgr *session.Manager, bus *broadcast.Broadcaster, st *store.Store) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Use(bodyCaptureMiddleware())
		r.Post("/games", createGameHandler(mgr))
		r.Get("/games", listGamesHandler(mgr))
		r.Get("/games/{game_id}", getGameHandler(mgr))
		r.Get("/games/{game_id}/events", eventsHandler(mgr, bus))
		if st != nil {
			r.Get("/games/history", historyHandler(st))
		}
	})

	return r
}

func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if st != nil {
			if err := st.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "off"})
	}
}

func logRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
