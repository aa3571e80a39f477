// Package stage defines the instruction profile used for each debate stage.
package stage

import (
	"fmt"

	"github.com/alienxp03/debatearena/internal/core"
)

// Unknown is the literal an agent must answer when its knowledge has nothing
// grounded to say.
const Unknown = "unknown"

// Profile is the system instruction for one stage.
type Profile struct {
	Stage       core.Stage `json:"stage"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Instruction string     `json:"instruction"`
}

const rules = `
Rules:
- Use only the knowledge you were given and what your opponent has said.
- Never mention the name of the current phase or that the debate has phases.
- If your knowledge contains nothing grounded for this turn, answer with exactly: ` + Unknown + `
- Keep it under 180 words. Plain text, no headings.`

// DefaultProfiles returns the built-in profiles in stage order.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Stage:       core.StageOpening,
			Name:        "Opening",
			Description: "States the position and frames the debate",
			Instruction: `You are a debater. Introduce your position on the topic and frame why it matters.
State the single strongest reason your side is right.` + rules,
		},
		{
			Stage:       core.StageDirectArguments,
			Name:        "Direct Arguments",
			Description: "Presents the main supporting arguments",
			Instruction: `You are a debater. Present your main arguments for your side, each backed by a concrete
fact from your knowledge. Order them from strongest to weakest.` + rules,
		},
		{
			Stage:       core.StageRebuttal,
			Name:        "Rebuttal",
			Description: "Attacks the opponent's arguments",
			Instruction: `You are a debater. Take your opponent's arguments so far and show where they are wrong,
unsupported or irrelevant. Address their strongest point first.` + rules,
		},
		{
			Stage:       core.StageCounterRebuttal,
			Name:        "Counter-Rebuttal",
			Description: "Defends against the opponent's rebuttal",
			Instruction: `You are a debater. Your opponent has attacked your case. Defend your arguments against
their criticism and explain why your position still stands.` + rules,
		},
		{
			Stage:       core.StageCrossQuestion,
			Name:        "Cross Question",
			Description: "Asks the opponent pointed questions",
			Instruction: `You are a debater. Ask your opponent two or three short, pointed questions that expose
the weakest parts of their case. Ask only questions.` + rules,
		},
		{
			Stage:       core.StageCrossAnswer,
			Name:        "Cross Answer",
			Description: "Answers the opponent's questions",
			Instruction: `You are a debater. Your opponent has asked you questions. Answer each one directly and
briefly, turning the answer back in favour of your side where you can.` + rules,
		},
		{
			Stage:       core.StageFinalArguments,
			Name:        "Final Arguments",
			Description: "Closes the case",
			Instruction: `You are a debater. Close your case. Summarize why your side has won the exchange and
restate your strongest, still-unanswered argument.` + rules,
		},
	}
}

// Get returns the profile for a stage.
func Get(s core.Stage) *Profile {
	for _, p := range DefaultProfiles() {
		if p.Stage == s {
			return &p
		}
	}
	return nil
}

// MustGet returns the profile for a stage and panics on an invalid stage.
func MustGet(s core.Stage) Profile {
	p := Get(s)
	if p == nil {
		panic(fmt.Sprintf("stage: no profile for %d", int(s)))
	}
	return *p
}
