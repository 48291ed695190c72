package game

// MessageType distinguishes the three kinds of table talk.
type MessageType string

const (
	MessageClue       MessageType = "clue"
	MessageDiscussion MessageType = "discussion"
	MessageVote       MessageType = "vote"
)

// Message is one transcript entry. The log is append-only and its order is
// the canonical record of who spoke when.
type Message struct {
	Player  string      `json:"player"`
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
	Round   int         `json:"round"`
	Phase   Phase       `json:"phase"`
}

func (m Message) line() string {
	return m.Player + ": " + m.Content
}
