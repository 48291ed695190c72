package game

import "strings"

// Role is assigned exactly once, when a session starts.
type Role string

const (
	RoleDeceiver Role = "deceiver"
	RoleDefender Role = "defender"
)

// ModelSpec identifies the language model backing one participant.
type ModelSpec struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (s ModelSpec) Key() string {
	return s.Provider + "_" + s.Model
}

// Participant is one seat at the table. Defenders carry the session secret
// in Word; the deceiver's Word stays empty.
type Participant struct {
	Name     string
	Provider string
	Model    string
	Role     Role
	Word     string
}

func (p *Participant) Spec() ModelSpec {
	return ModelSpec{Provider: p.Provider, Model: p.Model}
}

func (p *Participant) IsDeceiver() bool {
	return p.Role == RoleDeceiver
}

// View is the line shown to a human operator when verbose mode is on.
func (p *Participant) View() string {
	if p.IsDeceiver() {
		return "You are the deceiver. You do NOT know the secret word."
	}
	return "Your secret word is: " + p.Word
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
