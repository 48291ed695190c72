package game

import (
	"fmt"
	"strings"
	"time"
)

const (
	WinnerDefenders = "defenders"
	WinnerDeceiver  = "deceiver"
)

// unknownModel marks an eliminated name that matched no participant, which
// can happen because votes are never validated against the roster.
var unknownModel = ModelSpec{Provider: "unknown", Model: "unknown"}

// PlayerOutcome is one participant's line in the final result.
type PlayerOutcome struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	IsDeceiver    bool   `json:"is_deceiver"`
	Word          string `json:"word,omitempty"`
	Survived      bool   `json:"survived"`
	VotesReceived int    `json:"votes_received"`
}

// Result is the immutable record of a finished game.
type Result struct {
	SessionID       string          `json:"session_id"`
	GameIndex       int             `json:"game_index,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	WinnerSide      string          `json:"winner_side"`
	DeceiverName    string          `json:"deceiver_player"`
	DeceiverModel   ModelSpec       `json:"deceiver_model"`
	EliminatedName  string          `json:"eliminated_player"`
	EliminatedModel ModelSpec       `json:"eliminated_model"`
	Secret          string          `json:"secret_word"`
	VoteCounts      map[string]int  `json:"vote_counts"`
	Players         []PlayerOutcome `json:"players"`
	Messages        []Message       `json:"messages"`
}

// TallyVotes counts votes per raw target text and picks the eliminated
// name: highest count, ties broken by the lexicographically smallest key.
// Keys are case-sensitive, so a vote for a misspelled or invented name
// accrues to a key no participant can match. An empty vote list yields an
// empty eliminated name.
func TallyVotes(votes []Vote) (map[string]int, string) {
	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.Target]++
	}
	eliminated := ""
	best := 0
	for target, n := range counts {
		if n > best || (n == best && target < eliminated) {
			eliminated = target
			best = n
		}
	}
	return counts, eliminated
}

// ComputeResult tallies the vote and freezes the game into a Result. The
// defenders win only when the eliminated name resolves to the deceiver; a
// phantom name or an empty tally counts as a deceiver win.
func (e *Engine) ComputeResult(sessionID string) (*Result, error) {
	if e.phase != PhaseResults {
		return nil, fmt.Errorf("%w: compute_result in phase %s", ErrWrongPhase, e.phase)
	}

	counts, eliminated := TallyVotes(e.votes)

	var eliminatedSeat *Participant
	for _, p := range e.participants {
		if strings.EqualFold(p.Name, eliminated) {
			eliminatedSeat = p
			break
		}
	}

	winner := WinnerDeceiver
	if eliminatedSeat != nil && eliminatedSeat.IsDeceiver() {
		winner = WinnerDefenders
	}

	eliminatedModel := unknownModel
	if eliminatedSeat != nil {
		eliminatedModel = eliminatedSeat.Spec()
	}

	players := make([]PlayerOutcome, len(e.participants))
	for i, p := range e.participants {
		players[i] = PlayerOutcome{
			Name:          p.Name,
			Provider:      p.Provider,
			Model:         p.Model,
			IsDeceiver:    p.IsDeceiver(),
			Word:          p.Word,
			Survived:      p != eliminatedSeat,
			VotesReceived: counts[p.Name],
		}
	}

	deceiver := e.Deceiver()
	return &Result{
		SessionID:       sessionID,
		Timestamp:       time.Now(),
		WinnerSide:      winner,
		DeceiverName:    deceiver.Name,
		DeceiverModel:   deceiver.Spec(),
		EliminatedName:  eliminated,
		EliminatedModel: eliminatedModel,
		Secret:          e.secret,
		VoteCounts:      counts,
		Players:         players,
		Messages:        e.Messages(),
	}, nil
}
