// Package session owns the registry of live games. Each session runs to
// completion on its own worker; readers get copy-on-read snapshots and
// live progress flows out through the broadcaster.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/broadcast"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
)

// Recorder persists one completed game. Implementations must tolerate
// being called from concurrent session workers.
type Recorder interface {
	RecordGame(ctx context.Context, res *game.Result) error
}

// Config bounds the manager. Zero values fall back to sane defaults.
type Config struct {
	MinPlayers    int
	MaxPlayers    int
	MaxConcurrent int
	Names         []string
	Words         []string
	// Recorder is optional; nil means completed games are not persisted.
	Recorder Recorder
}

func (c Config) withDefaults() Config {
	if c.MinPlayers <= 0 {
		c.MinPlayers = 3
	}
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = 10
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if len(c.Names) == 0 {
		c.Names = game.DefaultNames
	}
	if len(c.Words) == 0 {
		c.Words = game.DefaultWords
	}
	return c
}

// Manager registers sessions by generated id and runs each on an isolated
// worker from a bounded pool, so one slow model call never stalls another
// session or a reader.
type Manager struct {
	gen game.Generator
	bus *broadcast.Broadcaster
	cfg Config
	sem chan struct{}

	seedMu sync.Mutex
	seeds  *rand.Rand

	mu       sync.RWMutex
	sessions map[string]*state
}

func NewManager(gen game.Generator, bus *broadcast.Broadcaster, cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		gen:      gen,
		bus:      bus,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		seeds:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions: map[string]*state{},
	}
}

// Create registers a new pending session and returns its initial
// snapshot. Execution does not begin until Run.
func (m *Manager) Create(specs []game.ModelSpec, opts Options) (Snapshot, error) {
	if len(specs) < m.cfg.MinPlayers || len(specs) > m.cfg.MaxPlayers {
		return Snapshot{}, fmt.Errorf("%w: %d models, want %d..%d",
			ErrInvalidRequest, len(specs), m.cfg.MinPlayers, m.cfg.MaxPlayers)
	}
	for _, spec := range specs {
		if spec.Provider == "" || spec.Model == "" {
			return Snapshot{}, fmt.Errorf("%w: provider and model are required", ErrInvalidRequest)
		}
	}

	st := newState(NewID(), specs, opts)

	m.mu.Lock()
	m.sessions[st.id] = st
	m.mu.Unlock()

	log.Info().Str("session_id", st.id).Int("players", len(specs)).Msg("session created")
	return st.snapshot(), nil
}

// Run dispatches the session to a worker and returns immediately. Only a
// pending session can be run; there is no automatic retry after failure.
func (m *Manager) Run(id string) error {
	st, err := m.lookup(id)
	if err != nil {
		return err
	}

	st.mu.Lock()
	if st.status != StatusPending {
		status := st.status
		st.mu.Unlock()
		return fmt.Errorf("%w: session is %s", ErrAlreadyStarted, status)
	}
	st.status = StatusRunning
	st.updatedAt = time.Now()
	st.mu.Unlock()

	m.bus.Publish(id, "status_change", map[string]any{
		"status":  StatusRunning,
		"message": "Game started",
	})

	go m.execute(st)
	return nil
}

// Get returns a consistent snapshot of one session.
func (m *Manager) Get(id string) (Snapshot, error) {
	st, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return st.snapshot(), nil
}

// List returns snapshots of all sessions, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	states := make([]*state, 0, len(m.sessions))
	for _, st := range m.sessions {
		states = append(states, st)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, len(states))
	for i, st := range states {
		out[i] = st.snapshot()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Manager) lookup(id string) (*state, error) {
	m.mu.RLock()
	st := m.sessions[id]
	m.mu.RUnlock()
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return st, nil
}

// execute runs the full phase sequence on its own goroutine. A failure is
// confined to this session: state flips to failed, the partial transcript
// stays readable, and everyone else keeps playing.
func (m *Manager) execute(st *state) {
	m.sem <- struct{}{}
	defer func() { <-m.sem }()

	defer func() {
		if r := recover(); r != nil {
			m.fail(st, fmt.Errorf("session panic: %v", r))
		}
	}()

	res, err := m.play(st)
	if err != nil {
		m.fail(st, err)
		return
	}

	st.complete(res)
	m.bus.Publish(st.id, "game_complete", map[string]any{
		"winner_side":       res.WinnerSide,
		"secret_word":       res.Secret,
		"deceiver_player":   res.DeceiverName,
		"eliminated_player": res.EliminatedName,
		"vote_counts":       res.VoteCounts,
	})
	log.Info().Str("session_id", st.id).Str("winner", res.WinnerSide).Msg("session completed")

	if m.cfg.Recorder != nil {
		if err := m.cfg.Recorder.RecordGame(context.Background(), res); err != nil {
			log.Error().Err(err).Str("session_id", st.id).Msg("record game failed")
		}
	}
}

func (m *Manager) play(st *state) (*game.Result, error) {
	eng := game.NewEngine(m.gen, m.nextSeed())
	eng.SetHooks(game.Hooks{
		OnPhase: func(p game.Phase) {
			st.setPhase(p)
			m.bus.Publish(st.id, "phase_change", map[string]any{"phase": p})
		},
		OnRound: func(round int) {
			m.bus.Publish(st.id, "discussion_round", map[string]any{
				"round":   round,
				"message": fmt.Sprintf("Discussion round %d", round),
			})
		},
		OnMessage: func(msg game.Message) {
			st.appendMessage(msg)
			m.bus.Publish(st.id, "message", msg)
			if st.opts.Verbose {
				log.Info().Str("session_id", st.id).Str("player", msg.Player).
					Str("type", string(msg.Type)).Str("content", msg.Content).Msg("table talk")
			}
		},
	})

	for i, spec := range st.specs {
		if _, err := eng.AddParticipant(m.cfg.Names[i], spec.Provider, spec.Model); err != nil {
			return nil, err
		}
	}
	if st.opts.Secret != "" {
		eng.SetSecret(st.opts.Secret)
	} else {
		eng.PickSecret(m.cfg.Words)
	}

	m.bus.Publish(st.id, "phase_change", map[string]any{
		"phase":   game.PhaseSetup,
		"message": fmt.Sprintf("Game initialized with %d players", len(st.specs)),
	})

	if err := eng.Start(-1); err != nil {
		return nil, err
	}
	// Generation calls are the only suspension points; there is no
	// per-call cancellation in the current design.
	if err := eng.Run(context.Background()); err != nil {
		return nil, err
	}
	return eng.ComputeResult(st.id)
}

func (m *Manager) fail(st *state, err error) {
	st.fail(err)
	snap := st.snapshot()
	m.bus.Publish(st.id, "error", map[string]any{
		"message":    err.Error(),
		"phase":      snap.Phase,
		"session_id": st.id,
	})
	log.Error().Err(err).Str("session_id", st.id).Str("phase", string(snap.Phase)).Msg("session failed")
}

func (m *Manager) nextSeed() int64 {
	m.seedMu.Lock()
	defer m.seedMu.Unlock()
	return m.seeds.Int63()
}
