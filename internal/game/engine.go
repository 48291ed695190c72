package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

// Generator is the external text-generation capability. Calls may be slow
// and may fail; the engine treats any error as fatal to the current phase.
type Generator interface {
	Generate(ctx context.Context, spec ModelSpec, userPrompt, systemPrompt string) (string, error)
}

// DefaultDiscussionRounds matches the table rules: two rounds of open
// discussion between clues and the vote.
const DefaultDiscussionRounds = 2

// Engine drives one game through its phases and owns the transcript.
// It is not safe for concurrent use; one goroutine runs a game start to
// finish and readers get state through the owner's snapshots.
type Engine struct {
	gen          Generator
	rng          *rand.Rand
	participants []*Participant
	secret       string
	phase        Phase
	messages     []Message
	votes        []Vote
	deceiver     int
	hooks        Hooks
}

func NewEngine(gen Generator, seed int64) *Engine {
	return &Engine{
		gen:      gen,
		rng:      rand.New(rand.NewSource(seed)),
		phase:    PhaseSetup,
		deceiver: -1,
	}
}

// SetHooks installs progress callbacks. Must be called before Start.
func (e *Engine) SetHooks(h Hooks) {
	e.hooks = h
}

func (e *Engine) Phase() Phase   { return e.phase }
func (e *Engine) Secret() string { return e.secret }

func (e *Engine) Participants() []*Participant {
	out := make([]*Participant, len(e.participants))
	copy(out, e.participants)
	return out
}

func (e *Engine) Messages() []Message {
	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Deceiver returns the deceiver seat, or nil before roles are assigned.
func (e *Engine) Deceiver() *Participant {
	if e.deceiver < 0 || e.deceiver >= len(e.participants) {
		return nil
	}
	return e.participants[e.deceiver]
}

// AddParticipant seats a new participant with no role. Names are unique
// per session after trimming, ignoring case.
func (e *Engine) AddParticipant(name, provider, model string) (*Participant, error) {
	if e.phase != PhaseSetup {
		return nil, fmt.Errorf("%w: add_participant in phase %s", ErrWrongPhase, e.phase)
	}
	name = strings.TrimSpace(name)
	for _, p := range e.participants {
		if sameName(p.Name, name) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}
	p := &Participant{Name: name, Provider: provider, Model: model}
	e.participants = append(e.participants, p)
	return p, nil
}

func (e *Engine) SetSecret(word string) {
	e.secret = strings.TrimSpace(word)
}

// PickSecret draws a secret from words using the engine's seeded RNG and
// stores it, so the same seed reproduces the same word choice.
func (e *Engine) PickSecret(words []string) string {
	word := words[e.rng.Intn(len(words))]
	e.SetSecret(word)
	return word
}

// Start assigns roles and enters the clue phase. A non-negative
// deceiverIndex pins the deceiver seat (used for even rotation across a
// batch); pass a negative index to draw one from the seeded RNG.
func (e *Engine) Start(deceiverIndex int) error {
	if e.phase != PhaseSetup {
		return fmt.Errorf("%w: start in phase %s", ErrWrongPhase, e.phase)
	}
	if len(e.participants) == 0 {
		return fmt.Errorf("%w: no participants", ErrInvalidState)
	}
	if e.secret == "" {
		return fmt.Errorf("%w: secret not set", ErrInvalidState)
	}
	if deceiverIndex >= len(e.participants) {
		return fmt.Errorf("%w: deceiver index %d out of range", ErrInvalidState, deceiverIndex)
	}
	if deceiverIndex < 0 {
		deceiverIndex = e.rng.Intn(len(e.participants))
	}

	e.deceiver = deceiverIndex
	for i, p := range e.participants {
		if i == deceiverIndex {
			p.Role = RoleDeceiver
			p.Word = ""
		} else {
			p.Role = RoleDefender
			p.Word = e.secret
		}
	}
	e.setPhase(PhaseClue)
	return nil
}

// RunCluePhase collects one clue per participant. Defenders speak first in
// seat order; the deceiver always speaks last so its bluff can build on
// every clue it has seen.
func (e *Engine) RunCluePhase(ctx context.Context) error {
	if e.phase != PhaseClue {
		return fmt.Errorf("%w: clue phase in phase %s", ErrWrongPhase, e.phase)
	}

	for _, p := range e.participants {
		if p.IsDeceiver() {
			continue
		}
		clue, err := e.ask(ctx, p, "")
		if err != nil {
			return err
		}
		e.appendMessage(Message{Player: p.Name, Type: MessageClue, Content: clue, Round: 0, Phase: PhaseClue})
	}

	deceiver := e.Deceiver()
	previous := e.transcript(MessageClue)
	clue, err := e.ask(ctx, deceiver, previous)
	if err != nil {
		return err
	}
	e.appendMessage(Message{Player: deceiver.Name, Type: MessageClue, Content: clue, Round: 0, Phase: PhaseClue})

	e.setPhase(PhaseDiscussion)
	return nil
}

// RunDiscussionPhase runs the given number of accusation rounds. Each
// round walks the seats in order; context contains all clue and discussion
// messages so far, never votes.
func (e *Engine) RunDiscussionPhase(ctx context.Context, rounds int) error {
	if e.phase != PhaseDiscussion {
		return fmt.Errorf("%w: discussion phase in phase %s", ErrWrongPhase, e.phase)
	}
	if rounds <= 0 {
		rounds = DefaultDiscussionRounds
	}

	for round := 1; round <= rounds; round++ {
		e.hooks.round(round)
		for _, p := range e.participants {
			talk := e.transcript(MessageClue, MessageDiscussion)
			system, user := p.Role.prompter().discussion(p.Name, p.Word, talk)
			reply, err := e.generate(ctx, p, user, system)
			if err != nil {
				return err
			}
			e.appendMessage(Message{Player: p.Name, Type: MessageDiscussion, Content: reply, Round: round, Phase: PhaseDiscussion})
		}
	}

	e.setPhase(PhaseVoting)
	return nil
}

// RunVotingPhase asks every participant for one name. The transcript each
// voter sees is shuffled so no one can key off speaking order. Votes are
// recorded verbatim after trimming; nothing checks them against the
// roster.
func (e *Engine) RunVotingPhase(ctx context.Context) error {
	if e.phase != PhaseVoting {
		return fmt.Errorf("%w: voting phase in phase %s", ErrWrongPhase, e.phase)
	}

	lines := make([]string, len(e.messages))
	for i, m := range e.messages {
		lines[i] = m.line()
	}
	e.rng.Shuffle(len(lines), func(i, j int) {
		lines[i], lines[j] = lines[j], lines[i]
	})
	shuffled := strings.Join(lines, "\n")
	roster := e.roster()

	for _, p := range e.participants {
		system, user := p.Role.prompter().vote(p.Name, p.Word, roster, shuffled)
		target, err := e.generate(ctx, p, user, system)
		if err != nil {
			return err
		}
		target = strings.TrimSpace(target)
		e.appendMessage(Message{Player: p.Name, Type: MessageVote, Content: target, Round: 1, Phase: PhaseVoting})
		e.votes = append(e.votes, Vote{Voter: p.Name, Target: target})
	}

	e.setPhase(PhaseResults)
	return nil
}

// Run drives all phases after Start, in order.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.RunCluePhase(ctx); err != nil {
		return err
	}
	if err := e.RunDiscussionPhase(ctx, DefaultDiscussionRounds); err != nil {
		return err
	}
	return e.RunVotingPhase(ctx)
}

func (e *Engine) ask(ctx context.Context, p *Participant, previousClues string) (string, error) {
	system, user := p.Role.prompter().clue(p.Word, previousClues)
	return e.generate(ctx, p, user, system)
}

func (e *Engine) generate(ctx context.Context, p *Participant, userPrompt, systemPrompt string) (string, error) {
	text, err := e.gen.Generate(ctx, p.Spec(), userPrompt, systemPrompt)
	if err != nil {
		return "", fmt.Errorf("generate for %s in phase %s: %w", p.Name, e.phase, err)
	}
	return strings.TrimSpace(text), nil
}

// transcript joins messages of the given types, in log order.
func (e *Engine) transcript(types ...MessageType) string {
	want := map[MessageType]bool{}
	for _, t := range types {
		want[t] = true
	}
	var lines []string
	for _, m := range e.messages {
		if want[m.Type] {
			lines = append(lines, m.line())
		}
	}
	return strings.Join(lines, "\n")
}

func (e *Engine) roster() string {
	names := make([]string, len(e.participants))
	for i, p := range e.participants {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func (e *Engine) appendMessage(m Message) {
	e.messages = append(e.messages, m)
	e.hooks.message(m)
}

func (e *Engine) setPhase(p Phase) {
	e.phase = p
	e.hooks.phase(p)
}
