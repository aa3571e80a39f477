// Package persona defines the judge personas that score debates.
package persona

// Persona represents a judge's evaluation outlook.
type Persona struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
}

// DefaultPersonas returns the built-in judge personas.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			ID:          "logician",
			Name:        "Logician",
			Description: "Weighs argument structure and fallacies above all",
			SystemPrompt: `You are a strict logic judge. Your approach:
- Check whether every conclusion follows from its premises
- Penalize fallacies, circular reasoning and unsupported leaps
- Ignore rhetoric that carries no argument`,
		},
		{
			ID:          "fact_checker",
			Name:        "Fact Checker",
			Description: "Rewards verifiable, accurate claims",
			SystemPrompt: `You are a fact-focused judge. Your approach:
- Reward specific, checkable claims
- Penalize vague or inaccurate statements
- Prefer a side that says "unknown" over one that invents facts`,
		},
		{
			ID:          "moderator",
			Name:        "Moderator",
			Description: "Scores responsiveness to the opponent",
			SystemPrompt: `You are a debate moderator acting as judge. Your approach:
- Reward sides that answer what the opponent actually said
- Penalize evasion, topic changes and ignored questions
- Value efficient, targeted rebuttals`,
		},
		{
			ID:          "audience",
			Name:        "Audience",
			Description: "Judges overall persuasiveness for a general listener",
			SystemPrompt: `You are an informed member of the audience acting as judge. Your approach:
- Ask which side changed your mind more
- Value clarity and a strong closing position
- Still penalize claims you can tell are false`,
		},
	}
}

// Get returns a persona by ID (builtins only).
func Get(id string) *Persona {
	for _, p := range DefaultPersonas() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// List returns all built-in persona IDs.
func List() []string {
	personas := DefaultPersonas()
	ids := make([]string, len(personas))
	for i, p := range personas {
		ids[i] = p.ID
	}
	return ids
}

// Valid checks if a persona ID is a built-in.
func Valid(id string) bool {
	return Get(id) != nil
}

// Resolve returns a persona by ID, checking custom personas after the builtins.
func Resolve(id string, custom []Persona) *Persona {
	if p := Get(id); p != nil {
		return p
	}
	for _, p := range custom {
		if p.ID == id {
			return &p
		}
	}
	return nil
}
