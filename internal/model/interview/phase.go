package interview

// Phase tracks where a session is in the scripted conversation flow.
type Phase string

const (
	PhaseGreeting  Phase = "greeting"
	PhaseInterview Phase = "interview"
	PhaseClosing   Phase = "closing"
)
