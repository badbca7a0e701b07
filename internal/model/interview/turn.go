package interview

import "time"

// Speaker labels who produced a conversation turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn records a single utterance for audit and to let the canned
// responses reference the previous user line.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
