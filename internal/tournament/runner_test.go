package tournament

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
)

// batchGen plays scripted games: every voter names the configured target,
// and game number failAt (counted by engine construction order) fails on
// its first generation call.
type batchGen struct {
	vote    string
	failAt  int
	game    int
	started bool
}

func (g *batchGen) Generate(_ context.Context, _ game.ModelSpec, userPrompt, systemPrompt string) (string, error) {
	if g.failAt > 0 && g.game == g.failAt {
		return "", errors.New("provider down")
	}
	if strings.Contains(systemPrompt, "FINAL VOTE") {
		return g.vote, nil
	}
	return "word", nil
}

func run(t *testing.T, gen *batchGen, numGames int, specs []game.ModelSpec, cfg Config) *Report {
	t.Helper()
	r := NewRunner(&countingGen{inner: gen}, cfg)
	// countingGen bumps gen.game at each game boundary via the runner's
	// sequential, single-threaded execution.
	rep, err := r.Run(context.Background(), numGames, specs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return rep
}

// countingGen detects game boundaries: clue phases always open with a
// defender prompt, and the runner plays games strictly in order, so the
// first call after a voting call belongs to the next game.
type countingGen struct {
	inner    *batchGen
	inVoting bool
}

func (c *countingGen) Generate(ctx context.Context, spec game.ModelSpec, userPrompt, systemPrompt string) (string, error) {
	voting := strings.Contains(systemPrompt, "FINAL VOTE")
	if !c.inner.started || (c.inVoting && !voting) {
		c.inner.game++
		c.inner.started = true
	}
	c.inVoting = voting
	return c.inner.Generate(ctx, spec, userPrompt, systemPrompt)
}

func fourSpecs() []game.ModelSpec {
	return []game.ModelSpec{
		{Provider: "openai", Model: "m0"},
		{Provider: "openai", Model: "m1"},
		{Provider: "mistral", Model: "m2"},
		{Provider: "anthropic", Model: "m3"},
	}
}

func TestDeceiverRotatesEvenly(t *testing.T) {
	specs := fourSpecs()
	rep := run(t, &batchGen{vote: "nobody"}, 2*len(specs), specs, Config{})

	if rep.Completed != 8 || rep.FailedGame != 0 {
		t.Fatalf("completed=%d failed=%d", rep.Completed, rep.FailedGame)
	}
	turns := map[string]int{}
	for _, res := range rep.Results {
		turns[res.DeceiverModel.Key()]++
	}
	for _, spec := range specs {
		if turns[spec.Key()] != 2 {
			t.Fatalf("model %s was deceiver %d times, want 2 (all: %v)",
				spec.Key(), turns[spec.Key()], turns)
		}
	}
	for key, stats := range rep.Stats {
		if stats.GamesAsDeceiver != 2 || stats.GamesPlayed != 8 {
			t.Fatalf("%s stats: %+v", key, stats)
		}
	}
}

func TestBatchIsReproducible(t *testing.T) {
	specs := fourSpecs()
	a := run(t, &batchGen{vote: "Alice"}, 3, specs, Config{})
	b := run(t, &batchGen{vote: "Alice"}, 3, specs, Config{})

	for i := range a.Results {
		if a.Results[i].Secret != b.Results[i].Secret {
			t.Fatalf("game %d secrets differ: %q vs %q", i+1, a.Results[i].Secret, b.Results[i].Secret)
		}
		if !reflect.DeepEqual(a.Results[i].Messages, b.Results[i].Messages) {
			t.Fatalf("game %d transcripts differ", i+1)
		}
	}
}

func TestPartialFailureKeepsCompletedWork(t *testing.T) {
	specs := fourSpecs()
	rec := &memRecorder{}
	rep := run(t, &batchGen{vote: "nobody", failAt: 3}, 5, specs, Config{Recorder: rec})

	if rep.Completed != 2 {
		t.Fatalf("completed = %d, want 2", rep.Completed)
	}
	if rep.FailedGame != 3 {
		t.Fatalf("failed_game = %d, want 3", rep.FailedGame)
	}
	if rep.FailedErr == "" {
		t.Fatal("failure reason not recorded")
	}
	if len(rep.Results) != 2 {
		t.Fatalf("kept %d results, want 2", len(rep.Results))
	}
	for _, stats := range rep.Stats {
		if stats.GamesPlayed != 2 {
			t.Fatalf("stats reflect %d games, want 2", stats.GamesPlayed)
		}
	}
	if len(rec.seen) != 2 {
		t.Fatalf("recorder saw %d games, want 2", len(rec.seen))
	}

	sum := rep.Summary()
	if sum.Completed != 2 || sum.Planned != 5 || sum.FailedGame != 3 {
		t.Fatalf("summary: %+v", sum)
	}
	if sum.SuccessRate != 0.4 {
		t.Fatalf("success rate = %v, want 0.4", sum.SuccessRate)
	}
}

func TestSummaryDerivedRates(t *testing.T) {
	specs := fourSpecs()
	// Everyone votes "Alice": Alice is eliminated every game. Rotation
	// makes Alice the deceiver only in game 1, so defenders win that one
	// and the deceiver wins the rest.
	rep := run(t, &batchGen{vote: "Alice"}, 4, specs, Config{})
	sum := rep.Summary()

	if sum.DefenderWins != 1 || sum.DeceiverWins != 3 {
		t.Fatalf("wins: defenders=%d deceiver=%d", sum.DefenderWins, sum.DeceiverWins)
	}

	alice := sum.PerModel["openai_m0"]
	if alice.SurvivalRate != 0 {
		t.Fatalf("eliminated-every-game model has survival rate %v", alice.SurvivalRate)
	}
	if alice.AvgVotes != 4 {
		t.Fatalf("avg votes = %v, want 4", alice.AvgVotes)
	}
	if alice.DeceiverWinRate != 0 {
		t.Fatalf("deceiver win rate = %v, want 0", alice.DeceiverWinRate)
	}

	other := sum.PerModel["openai_m1"]
	// m1 is deceiver in game 2 and survives it (Alice eliminated).
	if other.DeceiverWinRate != 1 {
		t.Fatalf("m1 deceiver win rate = %v, want 1", other.DeceiverWinRate)
	}
	if other.SurvivalRate != 1 {
		t.Fatalf("m1 survival rate = %v, want 1", other.SurvivalRate)
	}
}

func TestRunValidation(t *testing.T) {
	r := NewRunner(&batchGen{}, Config{})
	if _, err := r.Run(context.Background(), 0, fourSpecs()); err == nil {
		t.Fatal("expected error for zero games")
	}
	if _, err := r.Run(context.Background(), 1, fourSpecs()[:1]); err == nil {
		t.Fatal("expected error for one model")
	}
}

type memRecorder struct {
	seen []*game.Result
}

func (r *memRecorder) RecordGame(_ context.Context, res *game.Result) error {
	r.seen = append(r.seen, res)
	return nil
}
