package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/agent"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/broadcast"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/config"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/logging"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/session"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/store"
)

func main() {
	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if c := logging.Init(app.Log); c != nil {
		defer c.Close()
	}
	cfg := app.Server

	// Results persistence is optional; without a DSN games are kept in
	// memory for the lifetime of the process.
	var st *store.Store
	if cfg.PostgresDSN != "" {
		st, err = store.New(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("store init failed")
		}
		defer st.Close()
		if err := st.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("db ping failed")
		}
		if err := st.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ensure schema failed")
		}
	}

	var clientOpts []agent.Option
	if cfg.OllamaURL != "" {
		clientOpts = append(clientOpts, agent.WithOllamaURL(cfg.OllamaURL))
	}
	client := agent.NewClient(clientOpts...)

	bus := broadcast.New()
	mgrCfg := session.Config{
		MinPlayers:    cfg.MinPlayers,
		MaxPlayers:    cfg.MaxPlayers,
		MaxConcurrent: cfg.MaxConcurrentGames,
	}
	if st != nil {
		mgrCfg.Recorder = st
	}
	mgr := session.NewManager(client, bus, mgrCfg)

	r := newRouter(mgr, bus, st)
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
