// Package tournament runs batches of games back to back and aggregates
// per-model statistics. Batches are deliberately sequential: one game at a
// time keeps seeding, stats and partial-failure bookkeeping exactly
// reproducible, trading throughput for replayability.
package tournament

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
)

// Recorder receives each completed game for durable recording, so work
// done before a mid-batch failure is never lost.
type Recorder interface {
	RecordGame(ctx context.Context, res *game.Result) error
}

// Config tunes a runner. Zero values fall back to defaults.
type Config struct {
	Names  []string
	Words  []string
	Rounds int
	// Recorder is optional.
	Recorder Recorder
	// Verbose logs every game result as it lands.
	Verbose bool
}

type Runner struct {
	gen game.Generator
	cfg Config
}

func NewRunner(gen game.Generator, cfg Config) *Runner {
	if len(cfg.Names) == 0 {
		cfg.Names = game.DefaultNames
	}
	if len(cfg.Words) == 0 {
		cfg.Words = game.DefaultWords
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = game.DefaultDiscussionRounds
	}
	return &Runner{gen: gen, cfg: cfg}
}

// Report is the full outcome of a batch, including partial outcomes when
// the batch stopped early. FailedGame is 0 when every game completed.
type Report struct {
	Results    []*game.Result         `json:"results"`
	Stats      map[string]*ModelStats `json:"model_stats"`
	Planned    int                    `json:"planned_games"`
	Completed  int                    `json:"completed_games"`
	FailedGame int                    `json:"failed_game,omitempty"`
	FailedErr  string                 `json:"failed_error,omitempty"`
}

// Run plays numGames sequential games. Game i is seeded from its index,
// so any game can be replayed exactly, and the deceiver seat rotates as
// (i-1) mod players so every model serves as deceiver equally often over
// a full rotation. On the first failure the batch stops: prior results
// and their stats are kept, the failing index is recorded, and the report
// says how far it got.
func (r *Runner) Run(ctx context.Context, numGames int, specs []game.ModelSpec) (*Report, error) {
	if numGames <= 0 {
		return nil, fmt.Errorf("numGames must be positive, got %d", numGames)
	}
	if len(specs) < 2 {
		return nil, fmt.Errorf("need at least 2 models, got %d", len(specs))
	}

	report := &Report{
		Stats:   map[string]*ModelStats{},
		Planned: numGames,
	}
	log.Info().Int("games", numGames).Int("players", len(specs)).Msg("tournament started")

	for i := 1; i <= numGames; i++ {
		res, err := r.playGame(ctx, i, specs)
		if err != nil {
			report.FailedGame = i
			report.FailedErr = err.Error()
			log.Error().Err(err).Int("game", i).Int("completed", report.Completed).
				Msg("tournament stopped early")
			return report, nil
		}

		report.Results = append(report.Results, res)
		report.Completed = i
		for _, p := range res.Players {
			key := game.ModelSpec{Provider: p.Provider, Model: p.Model}.Key()
			stats := report.Stats[key]
			if stats == nil {
				stats = &ModelStats{}
				report.Stats[key] = stats
			}
			stats.observe(p, res.WinnerSide)
		}

		if r.cfg.Verbose {
			log.Info().Int("game", i).Str("winner", res.WinnerSide).
				Str("secret", res.Secret).Str("eliminated", res.EliminatedName).
				Msg("game finished")
		}
		if r.cfg.Recorder != nil {
			if err := r.cfg.Recorder.RecordGame(ctx, res); err != nil {
				log.Error().Err(err).Int("game", i).Msg("record game failed")
			}
		}
	}

	log.Info().Int("completed", report.Completed).Msg("tournament finished")
	return report, nil
}

func (r *Runner) playGame(ctx context.Context, index int, specs []game.ModelSpec) (*game.Result, error) {
	eng := game.NewEngine(r.gen, int64(index-1))
	for i, spec := range specs {
		if _, err := eng.AddParticipant(r.cfg.Names[i], spec.Provider, spec.Model); err != nil {
			return nil, err
		}
	}
	eng.PickSecret(r.cfg.Words)

	deceiver := (index - 1) % len(specs)
	if err := eng.Start(deceiver); err != nil {
		return nil, err
	}
	if err := eng.RunCluePhase(ctx); err != nil {
		return nil, err
	}
	if err := eng.RunDiscussionPhase(ctx, r.cfg.Rounds); err != nil {
		return nil, err
	}
	if err := eng.RunVotingPhase(ctx); err != nil {
		return nil, err
	}

	res, err := eng.ComputeResult(fmt.Sprintf("game-%d", index))
	if err != nil {
		return nil, err
	}
	res.GameIndex = index
	return res, nil
}

// Summary reports derived metrics for the whole batch.
type Summary struct {
	PerModel     map[string]ModelSummary `json:"model_stats"`
	Planned      int                     `json:"planned_games"`
	Completed    int                     `json:"completed_games"`
	FailedGame   int                     `json:"failed_game,omitempty"`
	SuccessRate  float64                 `json:"success_rate"`
	DefenderWins int                     `json:"defender_wins"`
	DeceiverWins int                     `json:"deceiver_wins"`
}

func (r *Report) Summary() Summary {
	s := Summary{
		PerModel:   make(map[string]ModelSummary, len(r.Stats)),
		Planned:    r.Planned,
		Completed:  r.Completed,
		FailedGame: r.FailedGame,
	}
	if r.Planned > 0 {
		s.SuccessRate = float64(r.Completed) / float64(r.Planned)
	}
	for key, stats := range r.Stats {
		s.PerModel[key] = stats.summarize()
	}
	for _, res := range r.Results {
		if res.WinnerSide == game.WinnerDefenders {
			s.DefenderWins++
		} else {
			s.DeceiverWins++
		}
	}
	return s
}
