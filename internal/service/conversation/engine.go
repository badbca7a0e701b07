package conversation

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
	"github.com/careersim/interview-skill/backend/internal/service/session"
)

// startInterviewPattern matches the trigger phrase as whole words, so
// "please start the interview" does not trip it but "please START INTERVIEW
// now" does.
var startInterviewPattern = regexp.MustCompile(`(?i)\b(start|begin) interview\b`)

// Reply is a message intent produced by the engine. The engine performs no
// socket I/O itself; transports deliver replies in order, honoring Delay.
type Reply struct {
	Text            string
	Delay           time.Duration
	EndConversation bool
}

// Payload is the conversation message body shared by both transports.
type Payload struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Meta      Meta   `json:"meta"`
}

// Meta flags conversation-level signals for the client.
type Meta struct {
	EndConversation bool `json:"endConversation"`
}

// Engine is the per-message state machine: it classifies inbound text,
// moves the session between phases and decides which scripted replies to
// emit.
type Engine struct {
	sessions      *session.Manager
	responder     Responder
	questionDelay time.Duration
}

// NewEngine builds the engine on a session manager and a response
// generator. questionDelay spaces the greeting and the first question so
// the client renders them in order.
func NewEngine(sessions *session.Manager, responder Responder, questionDelay time.Duration) *Engine {
	if responder == nil {
		responder = NewScriptedResponder()
	}
	return &Engine{
		sessions:      sessions,
		responder:     responder,
		questionDelay: questionDelay,
	}
}

// HandleMessage processes one inbound conversational turn and returns the
// ordered replies to deliver. A missing session id fails before any state
// is touched; every other path produces at least one reply.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, text string) ([]Reply, error) {
	if sessionID == "" {
		return nil, session.ErrMissingSessionID
	}

	trimmed := strings.TrimSpace(text)
	phase := e.sessions.Phase(sessionID)
	ic, hasContext := e.sessions.Context(sessionID)
	isStartInterview := startInterviewPattern.MatchString(trimmed)

	e.sessions.AppendTurn(sessionID, interview.SpeakerUser, trimmed)

	var replies []Reply
	switch {
	case phase == interview.PhaseGreeting && isStartInterview && hasContext:
		e.sessions.SetPhase(sessionID, interview.PhaseInterview)
		e.sessions.MarkQuestionAsked(sessionID)
		question := ic.InitialQuestion
		if question == "" {
			question = fallbackQuestionText
		}
		replies = []Reply{
			{Text: composeGreeting(ic)},
			{Text: question, Delay: e.questionDelay},
		}

	case phase == interview.PhaseGreeting && isStartInterview:
		replies = []Reply{{Text: noContextText}}

	case phase == interview.PhaseInterview:
		replies = []Reply{{Text: e.interviewReply(ctx, sessionID, ic, hasContext, trimmed)}}

	default:
		replies = []Reply{{Text: sayStartText}}
	}

	for _, reply := range replies {
		e.sessions.AppendTurn(sessionID, interview.SpeakerAssistant, reply.Text)
	}
	return replies, nil
}

// interviewReply answers a normal turn. If the scripted initial question was
// never delivered it is offered once here; afterwards the response generator
// takes over. Generator failures degrade to the canned acknowledgment so a
// turn is never left unanswered.
func (e *Engine) interviewReply(ctx context.Context, sessionID string, ic interview.Context, hasContext bool, userText string) string {
	if hasContext && ic.InitialQuestion != "" {
		if already := e.sessions.MarkQuestionAsked(sessionID); !already {
			return ic.InitialQuestion
		}
	}

	var icRef *interview.Context
	if hasContext {
		icRef = &ic
	}
	text, err := e.responder.Respond(ctx, interview.PhaseInterview, icRef, e.sessions.Turns(sessionID), userText)
	if err != nil {
		log.Printf("[engine] responder failed session=%s: %v", sessionID, err)
		return acknowledgeText
	}
	return text
}

// OnSessionStart registers the transport for a session and greets it: the
// fixed welcome when a context is attached, an explicit no-context notice
// otherwise. Pending context is consumed by the registration.
func (e *Engine) OnSessionStart(sessionID string, conn session.Conn) error {
	_, hasContext, err := e.sessions.RegisterTransport(sessionID, conn)
	if err != nil {
		return err
	}
	text := welcomeText
	if !hasContext {
		text = noContextText
	}
	return conn.Send(session.MsgConversation, Payload{SessionID: sessionID, Text: text})
}

// AttachTransport registers a transport outside of an explicit session-start
// message (query-string connects, conversation messages that carry a session
// id). It greets only when a context is already attached; with no context it
// stays silent so the caller can supply context later.
func (e *Engine) AttachTransport(sessionID string, conn session.Conn) error {
	_, hasContext, err := e.sessions.RegisterTransport(sessionID, conn)
	if err != nil {
		return err
	}
	if !hasContext {
		return nil
	}
	return conn.Send(session.MsgConversation, Payload{SessionID: sessionID, Text: welcomeText})
}

// OnSessionEnd moves the session to closing and returns the farewell reply.
// The session stays in closing until the caller has delivered the farewell
// and releases it with ReleaseSession; ending an unknown or already-ended
// session still produces the farewell.
func (e *Engine) OnSessionEnd(sessionID string) (Reply, error) {
	if sessionID == "" {
		return Reply{}, session.ErrMissingSessionID
	}
	e.sessions.SetPhase(sessionID, interview.PhaseClosing)
	return Reply{Text: farewellText, EndConversation: true}, nil
}

// ReleaseSession drops every resource held for a session once its farewell
// has gone out. Safe to call repeatedly.
func (e *Engine) ReleaseSession(sessionID string) {
	e.sessions.EndSession(sessionID)
}
