package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/agent"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/config"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/export"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/logging"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/store"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/tournament"
)

// Plays a fixed batch of games between the configured models, exports
// the CSV file set and, with a DSN, persists every result.
func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if c := logging.Init(logCfg); c != nil {
		defer c.Close()
	}

	cfg, err := config.LoadTournament()
	if err != nil {
		log.Fatal().Err(err).Msg("load tournament config failed")
	}
	specs, err := config.ParseModelList(cfg.Models)
	if err != nil {
		log.Fatal().Err(err).Msg("bad TOURNAMENT_MODELS")
	}

	ctx := context.Background()
	runnerCfg := tournament.Config{Rounds: cfg.Rounds, Verbose: cfg.Verbose}

	var st *store.Store
	if cfg.PostgresDSN != "" {
		st, err = store.New(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("store init failed")
		}
		defer st.Close()
		if err := st.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure schema failed")
		}
		runnerCfg.Recorder = st
	}

	var clientOpts []agent.Option
	if cfg.OllamaURL != "" {
		clientOpts = append(clientOpts, agent.WithOllamaURL(cfg.OllamaURL))
	}
	client := agent.NewClient(clientOpts...)

	runner := tournament.NewRunner(client, runnerCfg)
	rep, err := runner.Run(ctx, cfg.Games, specs)
	if err != nil {
		log.Fatal().Err(err).Msg("tournament setup failed")
	}

	sum := rep.Summary()
	base, err := export.NewCSV(cfg.OutputDir).WriteReport(rep, len(specs))
	if err != nil {
		log.Fatal().Err(err).Msg("csv export failed")
	}
	log.Info().Str("base", base).Str("dir", cfg.OutputDir).Msg("csv files written")

	if st != nil {
		if err := st.RecordSummary(ctx, base, sum); err != nil {
			log.Error().Err(err).Msg("record summary failed")
		}
	}

	for key, model := range sum.PerModel {
		log.Info().Str("model", key).
			Int("games", model.GamesPlayed).
			Float64("win_rate", model.WinRate).
			Float64("deceiver_win_rate", model.DeceiverWinRate).
			Float64("survival_rate", model.SurvivalRate).
			Msg("model stats")
	}
	evt := log.Info()
	if sum.FailedGame > 0 {
		evt = log.Warn().Int("failed_game", sum.FailedGame).Str("error", rep.FailedErr)
	}
	evt.Int("planned", sum.Planned).Int("completed", sum.Completed).
		Int("defender_wins", sum.DefenderWins).Int("deceiver_wins", sum.DeceiverWins).
		Msg("tournament summary")
}
