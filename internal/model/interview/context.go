package interview

// Stage identifies the interview round a context was authored for.
type Stage string

const (
	StageIntro       Stage = "intro"
	StageBehavioral  Stage = "behavioral"
	StageTechnical   Stage = "technical"
	StageSituational Stage = "situational"
	StageCulture     Stage = "culture"
)

// Difficulty scales how demanding the scripted questions should be.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Context carries the interview parameters supplied by the caller for a
// session. It is stored as-is and may be overwritten by a later store call.
type Context struct {
	Name            string     `json:"name"`
	JobTitle        string     `json:"jobTitle"`
	Company         string     `json:"company"`
	Location        string     `json:"location,omitempty"`
	Stage           Stage      `json:"stage"`
	Difficulty      Difficulty `json:"difficulty"`
	Notes           string     `json:"notes,omitempty"`
	InitialQuestion string     `json:"initialQuestion,omitempty"`
}
