package game

// Phase is the engine's position in the fixed phase sequence. Transitions
// only move forward; every phase method checks it is running in the phase
// it belongs to.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseClue       Phase = "clue"
	PhaseDiscussion Phase = "discussion"
	PhaseVoting     Phase = "voting"
	PhaseResults    Phase = "results"
)

// Vote pairs a voter with the raw, trimmed text it produced. The target is
// free-form model output; it is never validated against the roster.
type Vote struct {
	Voter  string `json:"voter"`
	Target string `json:"target"`
}

// Hooks let an owner observe engine progress as it happens. All callbacks
// run synchronously on the goroutine driving the phases; nil fields are
// skipped.
type Hooks struct {
	OnPhase   func(Phase)
	OnRound   func(round int)
	OnMessage func(Message)
}

func (h Hooks) phase(p Phase) {
	if h.OnPhase != nil {
		h.OnPhase(p)
	}
}

func (h Hooks) round(n int) {
	if h.OnRound != nil {
		h.OnRound(n)
	}
}

func (h Hooks) message(m Message) {
	if h.OnMessage != nil {
		h.OnMessage(m)
	}
}
