package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/careersim/interview-skill/backend/internal/config"
	"github.com/careersim/interview-skill/backend/internal/model/interview"
)

// Responder generates interview acknowledgments with an Ark chat model. It
// replaces the canned script when credentials are configured; the engine
// falls back to the script if a generation fails.
type Responder struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewResponder compiles the prompt chain against the configured model.
func NewResponder(ctx context.Context, cfg config.AIConfig) (*Responder, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Responder{chain: runnable}, nil
}

// Respond produces a short interviewer acknowledgment for the user's turn.
func (r *Responder) Respond(ctx context.Context, phase interview.Phase, ic *interview.Context, history []interview.Turn, userText string) (string, error) {
	input := map[string]any{
		"system":  buildSystemPrompt(phase, ic),
		"history": buildHistoryMessages(history),
		"query":   userText,
	}

	response, err := r.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run response chain: %w", err)
	}

	log.Printf("[ai] generated acknowledgment phase=%s length=%d", phase, len(response.Content))
	return response.Content, nil
}

func buildSystemPrompt(phase interview.Phase, ic *interview.Context) string {
	var b strings.Builder
	b.WriteString("You are a professional mock interviewer. Acknowledge the candidate's answer briefly and stay in character.")
	b.WriteString(" Do not ask a new scripted question; question delivery is handled elsewhere.")
	fmt.Fprintf(&b, " The conversation is in the %s phase.", phase)

	if ic == nil {
		return b.String()
	}

	fmt.Fprintf(&b, " The candidate is %s, interviewing for the %s position at %s.", ic.Name, ic.JobTitle, ic.Company)
	fmt.Fprintf(&b, " This is a %s interview at %s difficulty.", ic.Stage, ic.Difficulty)
	if ic.Notes != "" {
		fmt.Fprintf(&b, " Interviewer notes: %s", ic.Notes)
	}
	return b.String()
}

func buildHistoryMessages(turns []interview.Turn) []*schema.Message {
	const historyLimit = 10

	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Speaker {
		case interview.SpeakerUser:
			history = append(history, schema.UserMessage(turn.Text))
		case interview.SpeakerAssistant:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}

	return history
}
