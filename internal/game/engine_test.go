package game

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// scriptGen is a deterministic Generator: clues echo the seat's model,
// discussion is canned, and votes come from a per-name script.
type scriptGen struct {
	votes map[string]string
	calls int
}

func (g *scriptGen) Generate(_ context.Context, spec ModelSpec, userPrompt, systemPrompt string) (string, error) {
	g.calls++
	switch {
	case strings.Contains(systemPrompt, "FINAL VOTE"):
		name := systemPrompt[len("ROLE: "):]
		name = name[:strings.Index(name, ".")]
		if v, ok := g.votes[name]; ok {
			return v, nil
		}
		return "Alice", nil
	case strings.Contains(userPrompt, "clue word") || strings.Contains(userPrompt, "ONLY the word"):
		return "clue-" + spec.Model, nil
	default:
		return "someone here is bluffing", nil
	}
}

type failingGen struct {
	after int
	calls int
}

func (g *failingGen) Generate(context.Context, ModelSpec, string, string) (string, error) {
	g.calls++
	if g.calls > g.after {
		return "", errors.New("provider unavailable")
	}
	return "ok", nil
}

func newTestEngine(t *testing.T, gen Generator, n int) *Engine {
	t.Helper()
	e := NewEngine(gen, 7)
	for i := 0; i < n; i++ {
		name := DefaultNames[i]
		if _, err := e.AddParticipant(name, "openai", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	e.SetSecret("pizza")
	return e
}

func TestStartAssignsExactlyOneDeceiver(t *testing.T) {
	for n := 2; n <= 10; n++ {
		e := newTestEngine(t, &scriptGen{}, n)
		if err := e.Start(-1); err != nil {
			t.Fatalf("start with %d players: %v", n, err)
		}
		deceivers := 0
		for _, p := range e.Participants() {
			if p.IsDeceiver() {
				deceivers++
				if p.Word != "" {
					t.Fatalf("deceiver has word %q", p.Word)
				}
			} else if p.Word != "pizza" {
				t.Fatalf("defender word = %q, want pizza", p.Word)
			}
		}
		if deceivers != 1 {
			t.Fatalf("%d players: got %d deceivers", n, deceivers)
		}
	}
}

func TestStartWithExplicitIndex(t *testing.T) {
	e := newTestEngine(t, &scriptGen{}, 4)
	if err := e.Start(2); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := e.Deceiver().Name; got != "Charlie" {
		t.Fatalf("deceiver = %s, want Charlie", got)
	}
}

func TestStartValidation(t *testing.T) {
	e := NewEngine(&scriptGen{}, 1)
	e.SetSecret("pizza")
	if err := e.Start(-1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("start with no participants: %v", err)
	}

	e = newTestEngine(t, &scriptGen{}, 3)
	if err := e.Start(3); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("out-of-range index: %v", err)
	}

	e = newTestEngine(t, &scriptGen{}, 3)
	e.secret = ""
	if err := e.Start(0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("missing secret: %v", err)
	}
}

func TestAddParticipantRejectsDuplicates(t *testing.T) {
	e := NewEngine(&scriptGen{}, 1)
	if _, err := e.AddParticipant("Alice", "openai", "m"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := e.AddParticipant("  alice ", "mistral", "m2"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate add: %v", err)
	}
}

func TestPhaseOrderEnforced(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &scriptGen{}, 3)

	if err := e.RunCluePhase(ctx); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("clue before start: %v", err)
	}
	if err := e.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.RunVotingPhase(ctx); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("voting during clue: %v", err)
	}
	if _, err := e.ComputeResult("s"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("result during clue: %v", err)
	}
	if err := e.RunCluePhase(ctx); err != nil {
		t.Fatalf("clue: %v", err)
	}
	if err := e.RunCluePhase(ctx); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("clue re-entry: %v", err)
	}
	if _, err := e.AddParticipant("Zoe", "openai", "m"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("add after start: %v", err)
	}
}

func TestDeceiverSpeaksLastInCluePhase(t *testing.T) {
	e := newTestEngine(t, &scriptGen{}, 4)
	if err := e.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.RunCluePhase(context.Background()); err != nil {
		t.Fatalf("clue: %v", err)
	}
	msgs := e.Messages()
	if len(msgs) != 4 {
		t.Fatalf("got %d clue messages, want 4", len(msgs))
	}
	if msgs[3].Player != "Bob" {
		t.Fatalf("last clue by %s, want deceiver Bob", msgs[3].Player)
	}
	wantOrder := []string{"Alice", "Charlie", "Diana", "Bob"}
	for i, m := range msgs {
		if m.Player != wantOrder[i] {
			t.Fatalf("clue %d by %s, want %s", i, m.Player, wantOrder[i])
		}
		if m.Type != MessageClue || m.Round != 0 {
			t.Fatalf("clue %d: type=%s round=%d", i, m.Type, m.Round)
		}
	}
}

func TestDiscussionTagsRoundsAndExcludesVotes(t *testing.T) {
	e := newTestEngine(t, &scriptGen{}, 3)
	if err := e.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx := context.Background()
	if err := e.RunCluePhase(ctx); err != nil {
		t.Fatalf("clue: %v", err)
	}
	if err := e.RunDiscussionPhase(ctx, 2); err != nil {
		t.Fatalf("discussion: %v", err)
	}
	var rounds []int
	for _, m := range e.Messages() {
		if m.Type == MessageDiscussion {
			rounds = append(rounds, m.Round)
		}
	}
	if want := []int{1, 1, 1, 2, 2, 2}; !reflect.DeepEqual(rounds, want) {
		t.Fatalf("discussion rounds = %v, want %v", rounds, want)
	}
	// Discussion context only ever includes clues and discussion.
	if got := e.transcript(MessageClue, MessageDiscussion); strings.Contains(got, "vote") {
		t.Fatalf("discussion context leaked votes: %q", got)
	}
}

func TestFullGameDeterministicReplay(t *testing.T) {
	play := func() *Result {
		gen := &scriptGen{votes: map[string]string{
			"Alice": "Charlie", "Bob": "Alice", "Charlie": "Alice", "Diana": "Alice",
		}}
		e := newTestEngine(t, gen, 4)
		if err := e.Start(0); err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := e.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		res, err := e.ComputeResult("replay")
		if err != nil {
			t.Fatalf("result: %v", err)
		}
		return res
	}

	a, b := play(), play()
	if !reflect.DeepEqual(a.Messages, b.Messages) {
		t.Fatalf("replay produced a different transcript")
	}
	if a.WinnerSide != b.WinnerSide || a.EliminatedName != b.EliminatedName ||
		!reflect.DeepEqual(a.VoteCounts, b.VoteCounts) {
		t.Fatalf("replay produced a different result: %+v vs %+v", a, b)
	}
}

func TestGenerationFailureAbortsPhase(t *testing.T) {
	e := newTestEngine(t, &failingGen{after: 1}, 3)
	if err := e.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := e.RunCluePhase(context.Background())
	if err == nil {
		t.Fatal("expected clue phase to fail")
	}
	if !strings.Contains(err.Error(), "phase clue") {
		t.Fatalf("error lacks phase context: %v", err)
	}
	// The partial transcript survives the failure.
	if len(e.Messages()) != 1 {
		t.Fatalf("got %d messages, want 1", len(e.Messages()))
	}
}

func TestHooksFireInTranscriptOrder(t *testing.T) {
	gen := &scriptGen{}
	e := newTestEngine(t, gen, 3)
	var seen []Message
	var phases []Phase
	var roundEvents []int
	e.SetHooks(Hooks{
		OnMessage: func(m Message) { seen = append(seen, m) },
		OnPhase:   func(p Phase) { phases = append(phases, p) },
		OnRound:   func(n int) { roundEvents = append(roundEvents, n) },
	})
	if err := e.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(seen, e.Messages()) {
		t.Fatalf("hook order differs from transcript")
	}
	wantPhases := []Phase{PhaseClue, PhaseDiscussion, PhaseVoting, PhaseResults}
	if !reflect.DeepEqual(phases, wantPhases) {
		t.Fatalf("phases = %v, want %v", phases, wantPhases)
	}
	if !reflect.DeepEqual(roundEvents, []int{1, 2}) {
		t.Fatalf("round events = %v", roundEvents)
	}
}

func TestPickSecretIsSeedStable(t *testing.T) {
	a := NewEngine(&scriptGen{}, 42)
	b := NewEngine(&scriptGen{}, 42)
	if wa, wb := a.PickSecret(DefaultWords), b.PickSecret(DefaultWords); wa != wb {
		t.Fatalf("same seed picked %q and %q", wa, wb)
	}
}
