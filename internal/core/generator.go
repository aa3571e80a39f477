package core

import "context"

// Generator produces text from a system instruction and a user prompt.
// Implementations may block for a long time and may fail; callers treat a
// failure as fatal for the operation in progress.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, system, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}
