package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// HealthCheckPrompt is the prompt sent to providers for health checks.
	// A healthy provider answers "2".
	HealthCheckPrompt = "1+1? One digit answer only"

	// HealthCheckTimeout bounds a single probe.
	HealthCheckTimeout = 30 * time.Second
)

// ExecuteFunc runs one request against a provider.
type ExecuteFunc func(context.Context, *Request) (*Response, error)

// HealthCheckWithExecute probes a provider through exec and validates the answer.
func HealthCheckWithExecute(ctx context.Context, model string, exec ExecuteFunc) HealthStatus {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	resp, err := exec(ctx, &Request{Prompt: HealthCheckPrompt, Model: model})
	elapsed := time.Since(start)
	switch {
	case err != nil:
		return unhealthy(elapsed, err.Error())
	case resp == nil:
		return unhealthy(elapsed, "empty response")
	}
	if err := validateHealthResponse(resp.Content); err != nil {
		return unhealthy(elapsed, err.Error())
	}
	return HealthStatus{Available: true, ResponseTime: elapsed, CheckedAt: time.Now()}
}

func unhealthy(elapsed time.Duration, msg string) HealthStatus {
	return HealthStatus{
		Available:    false,
		ResponseTime: elapsed,
		Error:        msg,
		CheckedAt:    time.Now(),
	}
}

func validateHealthResponse(content string) error {
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.TrimRight(trimmed, ".") == "2":
		return nil
	case trimmed == "":
		return fmt.Errorf("unexpected response: empty")
	}
	if len(trimmed) > 120 {
		trimmed = trimmed[:120] + "..."
	}
	return fmt.Errorf("unexpected response: %q", trimmed)
}
