package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned by the registry for unregistered names.
var ErrUnknownProvider = errors.New("unknown provider")

// FailureKind classifies a CLI failure.
type FailureKind int

const (
	// FailureExit means the command ran and exited non-zero.
	FailureExit FailureKind = iota
	// FailureMissing means the executable is not on PATH.
	FailureMissing
	// FailureTimeout means the per-request timeout expired.
	FailureTimeout
	// FailureOutput means the command succeeded but its output was unusable.
	FailureOutput
)

// CLIError is a failed provider invocation.
type CLIError struct {
	Provider string
	Kind     FailureKind
	Message  string
	Err      error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// Temporary reports whether another attempt may succeed.
func (e *CLIError) Temporary() bool {
	switch e.Kind {
	case FailureTimeout:
		return true
	case FailureMissing, FailureOutput:
		return false
	}
	msg := strings.ToLower(e.Message)
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

var transientHints = []string{"timeout", "connection", "network", "temporary", "unavailable", "rate limit", "overloaded"}

// isRetriable reports whether err is worth another attempt. A cancelled
// caller never is.
func isRetriable(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var cliErr *CLIError
	return errors.As(err, &cliErr) && cliErr.Temporary()
}
