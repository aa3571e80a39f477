// Package provider wraps command-line AI tools behind one interface so
// debaters and judges can be backed by any installed CLI.
package provider

import (
	"context"
	"strings"
	"time"
)

// Provider defines the interface for AI CLI providers.
type Provider interface {
	// Name returns the provider's unique identifier (e.g., "claude", "gemini").
	Name() string

	// Available checks if the provider's CLI tool is installed and accessible.
	Available() bool

	// Execute sends a request to the provider and returns a structured response.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// HealthChecker is implemented by providers that can run a live probe.
type HealthChecker interface {
	HealthCheck(ctx context.Context) HealthStatus
}

// Request represents a generation request to an AI provider.
type Request struct {
	// System is the role instruction. Providers without a system flag
	// prepend it to the prompt.
	System string

	// Prompt is the input text to send to the AI.
	Prompt string

	// Model is the specific model to use. Empty means the provider default.
	Model string

	// WorkingDir is the directory to execute the CLI command in.
	WorkingDir string

	// Args are additional command-line arguments to pass to the provider.
	Args []string
}

// FullPrompt returns the prompt with the system instruction prepended.
func (r *Request) FullPrompt() string {
	system := strings.TrimSpace(r.System)
	if system == "" {
		return r.Prompt
	}
	return system + "\n\n" + r.Prompt
}

// Response represents a provider's response with metadata.
type Response struct {
	Content  string    `json:"content"`
	Model    string    `json:"model,omitempty"`
	Provider string    `json:"provider,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`

	// Raw is the unprocessed output from the CLI tool (for debugging).
	Raw string `json:"-"`
}

// Metadata contains usage statistics and additional response information.
type Metadata struct {
	InputTokens  int           `json:"input_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	TotalTokens  int           `json:"total_tokens,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	StopReason   string        `json:"stop_reason,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
}

// HealthStatus is the result of a provider probe.
type HealthStatus struct {
	Available    bool          `json:"available"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
}

// Config holds configuration for creating a provider.
type Config struct {
	// Name is the unique identifier for this provider (e.g., "claude").
	Name string

	// DisplayName is a human-friendly name. If empty, Name is used.
	DisplayName string

	// Command is the CLI executable name (e.g., "claude", "gemini").
	Command string

	// Args are default arguments to pass to the CLI command.
	Args []string

	DefaultModel string
	Models       []string

	// Timeout is the maximum duration for a request.
	// Default: 5 minutes.
	Timeout time.Duration

	// MaxRetries is the number of retries after a retriable failure.
	// Negative means the default of 2.
	MaxRetries int
}
