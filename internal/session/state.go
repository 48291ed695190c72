package session

import (
	"sync"
	"time"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Options tune one session at creation time.
type Options struct {
	// Secret pins the secret word; empty means one is drawn at random.
	Secret string
	// Verbose logs every message as it is produced.
	Verbose bool
}

// PlayerView is the roster entry exposed over the query surface. Role,
// word and outcome stay nil until the session completes: spectators must
// not learn the deceiver mid-game.
type PlayerView struct {
	Name          string  `json:"name"`
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	IsDeceiver    *bool   `json:"is_deceiver,omitempty"`
	Word          *string `json:"word,omitempty"`
	Survived      *bool   `json:"survived,omitempty"`
	VotesReceived *int    `json:"votes_received,omitempty"`
}

// Snapshot is a consistent, caller-owned copy of a session's state.
type Snapshot struct {
	ID         string           `json:"session_id"`
	Status     Status           `json:"status"`
	Phase      game.Phase       `json:"phase"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Models     []game.ModelSpec `json:"models"`
	Players    []PlayerView     `json:"players"`
	Messages   []game.Message   `json:"messages"`
	Result     *game.Result     `json:"result,omitempty"`
	WinnerSide string           `json:"winner_side,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// state is the manager-owned record of one session. Mutation happens only
// on the session's worker goroutine (plus the create/run transitions),
// always under mu; readers copy under the same lock.
type state struct {
	mu        sync.Mutex
	id        string
	specs     []game.ModelSpec
	opts      Options
	status    Status
	phase     game.Phase
	createdAt time.Time
	updatedAt time.Time
	players   []PlayerView
	messages  []game.Message
	result    *game.Result
	errMsg    string
}

func newState(id string, specs []game.ModelSpec, opts Options) *state {
	now := time.Now()
	players := make([]PlayerView, len(specs))
	for i, spec := range specs {
		players[i] = PlayerView{
			Name:     game.DefaultNames[i],
			Provider: spec.Provider,
			Model:    spec.Model,
		}
	}
	return &state{
		id:        id,
		specs:     specs,
		opts:      opts,
		status:    StatusPending,
		phase:     game.PhaseSetup,
		createdAt: now,
		updatedAt: now,
		players:   players,
	}
}

func (s *state) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	specs := make([]game.ModelSpec, len(s.specs))
	copy(specs, s.specs)
	players := make([]PlayerView, len(s.players))
	copy(players, s.players)
	messages := make([]game.Message, len(s.messages))
	copy(messages, s.messages)

	snap := Snapshot{
		ID:        s.id,
		Status:    s.status,
		Phase:     s.phase,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Models:    specs,
		Players:   players,
		Messages:  messages,
		Result:    s.result, // immutable once set
		Error:     s.errMsg,
	}
	if s.result != nil {
		snap.WinnerSide = s.result.WinnerSide
	}
	return snap
}

func (s *state) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *state) setPhase(phase game.Phase) {
	s.mu.Lock()
	s.phase = phase
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *state) appendMessage(m game.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *state) complete(res *game.Result) {
	players := make([]PlayerView, len(res.Players))
	for i, p := range res.Players {
		p := p
		players[i] = PlayerView{
			Name:          p.Name,
			Provider:      p.Provider,
			Model:         p.Model,
			IsDeceiver:    &p.IsDeceiver,
			Word:          &p.Word,
			Survived:      &p.Survived,
			VotesReceived: &p.VotesReceived,
		}
	}

	s.mu.Lock()
	s.status = StatusCompleted
	s.result = res
	s.players = players
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *state) fail(err error) {
	s.mu.Lock()
	s.status = StatusFailed
	s.errMsg = err.Error()
	s.updatedAt = time.Now()
	s.mu.Unlock()
}
