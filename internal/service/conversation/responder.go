package conversation

import (
	"context"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
)

// Responder generates the acknowledgment text for a normal interview turn.
// The scripted implementation below is a stand-in for real dialogue
// generation; an LLM-backed implementation can be injected in its place.
type Responder interface {
	Respond(ctx context.Context, phase interview.Phase, ic *interview.Context, history []interview.Turn, userText string) (string, error)
}

// ScriptedResponder answers every turn with the canned acknowledgment.
type ScriptedResponder struct{}

// NewScriptedResponder returns the default canned responder.
func NewScriptedResponder() *ScriptedResponder {
	return &ScriptedResponder{}
}

func (r *ScriptedResponder) Respond(_ context.Context, _ interview.Phase, _ *interview.Context, _ []interview.Turn, _ string) (string, error) {
	return acknowledgeText, nil
}
