package conversation

import (
	"fmt"
	"strings"

	"github.com/careersim/interview-skill/backend/internal/model/interview"
)

// Fixed dialogue used by the scripted flow. The avatar platform renders
// these verbatim, so the wording is part of the client-facing contract only
// insofar as ordering and stage gating go.
const (
	welcomeText = "Welcome to your mock interview session! When you're ready, please say 'start interview' to begin."

	noContextText = "I don't have your interview context yet. Please make sure the context was properly sent before starting the session."

	sayStartText = "Please say 'start interview' to begin your mock interview session."

	fallbackQuestionText = "Let's begin! Please introduce yourself."

	acknowledgeText = "I understand your response. Let me think about that..."

	farewellText = "Thank you for the interview! We'll review your responses and follow up with feedback soon. Have a great day!"
)

var stageLines = map[interview.Stage]string{
	interview.StageIntro:       "This is an initial screening call to get to know you better.",
	interview.StageBehavioral:  "I'll be asking you about your past experiences and how you've handled different situations.",
	interview.StageTechnical:   "I'll be asking you technical questions to assess your knowledge and problem-solving abilities.",
	interview.StageSituational: "I'll be presenting you with hypothetical scenarios to understand how you would handle them.",
	interview.StageCulture:     "I'll be asking questions to understand how well you align with our company culture.",
}

var difficultyLines = map[interview.Difficulty]string{
	interview.DifficultyBeginner:     "I'll keep the questions at a beginner level to help you get comfortable with the interview process.",
	interview.DifficultyIntermediate: "I'll ask questions at an intermediate level to challenge you appropriately.",
	interview.DifficultyAdvanced:     "I'll ask advanced questions to thoroughly assess your expertise.",
}

// composeGreeting builds the interview-opening message from the stored
// context: a personalized intro, a stage line, a difficulty line and an
// optional location clause. Unknown stages fall back to the culture-fit
// framing, unknown difficulties to advanced.
func composeGreeting(ctx interview.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s! I'll be conducting your %s interview for the %s position at %s. ",
		ctx.Name, ctx.Stage, ctx.JobTitle, ctx.Company)

	stageLine, ok := stageLines[ctx.Stage]
	if !ok {
		stageLine = stageLines[interview.StageCulture]
	}
	b.WriteString(stageLine)
	b.WriteString(" ")

	difficultyLine, ok := difficultyLines[ctx.Difficulty]
	if !ok {
		difficultyLine = difficultyLines[interview.DifficultyAdvanced]
	}
	b.WriteString(difficultyLine)

	if ctx.Location != "" {
		fmt.Fprintf(&b, " I see you're interested in the %s location.", ctx.Location)
	}

	return b.String()
}
