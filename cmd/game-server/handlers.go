package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/session"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/store"
)

type createGameRequest struct {
	Models []struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
	} `json:"models"`
	SecretWord string `json:"secret_word"`
	Verbose    bool   `json:"verbose"`
}

// createGameHandler registers a session and starts it immediately. The
// response carries the initial snapshot; progress arrives over the
// session's event stream.
func createGameHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}

		specs := make([]game.ModelSpec, len(body.Models))
		for i, m := range body.Models {
			specs[i] = game.ModelSpec{Provider: m.Provider, Model: m.Model}
		}

		snap, err := mgr.Create(specs, session.Options{
			Secret:  body.SecretWord,
			Verbose: body.Verbose,
		})
		if err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := mgr.Run(snap.ID); err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

func getGameHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := mgr.Get(chi.URLParam(r, "game_id"))
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				writeHTTPError(w, http.StatusNotFound, "session_not_found")
				return
			}
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func listGamesHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": mgr.List()})
	}
}

func historyHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := st.RecentGames(r.Context(), 50)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
	}
}
