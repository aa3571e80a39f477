package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	// MaxOutputSize caps captured stdout and stderr (10MB each).
	MaxOutputSize = 10 * 1024 * 1024

	// DefaultTimeout bounds one CLI invocation.
	DefaultTimeout = 5 * time.Minute

	// DefaultMaxRetries applies when Config.MaxRetries is negative.
	DefaultMaxRetries = 2
)

// BaseProvider runs a CLI command with output limits, timeouts and retries.
// Concrete providers embed it and only decide the argument layout and how
// output is parsed.
type BaseProvider struct {
	name         string
	displayName  string
	command      string
	args         []string
	defaultModel string
	models       []string
	timeout      time.Duration
	maxRetries   int

	// backoff returns the wait before the given retry attempt (1-based).
	backoff func(attempt int) time.Duration
}

// NewBaseProvider creates a base provider from configuration.
func NewBaseProvider(cfg Config) BaseProvider {
	p := BaseProvider{
		name:         cfg.Name,
		displayName:  cfg.DisplayName,
		command:      cfg.Command,
		args:         cfg.Args,
		defaultModel: cfg.DefaultModel,
		models:       cfg.Models,
		timeout:      cfg.Timeout,
		maxRetries:   cfg.MaxRetries,
		backoff:      exponentialBackoff,
	}
	if p.displayName == "" {
		p.displayName = cfg.Name
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.maxRetries < 0 {
		p.maxRetries = DefaultMaxRetries
	}
	return p
}

// exponentialBackoff waits 2s, 4s, 8s...
func exponentialBackoff(attempt int) time.Duration {
	return time.Second << attempt
}

func (p *BaseProvider) Name() string        { return p.name }
func (p *BaseProvider) DisplayName() string { return p.displayName }
func (p *BaseProvider) Models() []string    { return p.models }
func (p *BaseProvider) DefaultModel() string {
	return p.defaultModel
}

// Timeout returns the per-invocation timeout.
func (p *BaseProvider) Timeout() time.Duration {
	return p.timeout
}

// Available reports whether the CLI is on PATH.
func (p *BaseProvider) Available() bool {
	_, err := exec.LookPath(p.command)
	return err == nil
}

func (p *BaseProvider) lookPath() (string, error) {
	path, err := exec.LookPath(p.command)
	if err != nil || path == "" {
		return "", &CLIError{
			Provider: p.name,
			Kind:     FailureMissing,
			Message:  fmt.Sprintf("executable '%s' not found in PATH", p.command),
			Err:      err,
		}
	}
	return path, nil
}

// limitedWriter keeps the first limit bytes and silently drops the rest.
type limitedWriter struct {
	w       io.Writer
	n       int64
	limit   int64
	limited bool
}

func newLimitedWriter(w io.Writer, limit int64) *limitedWriter {
	return &limitedWriter{w: w, limit: limit}
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if remaining := l.limit - l.n; int64(total) > remaining {
		p = p[:max(remaining, 0)]
		l.limited = true
	}
	if len(p) == 0 {
		return total, nil
	}
	n, err := l.w.Write(p)
	l.n += int64(n)
	if err != nil {
		return n, err
	}
	return total, nil
}

// executeOnce runs the command a single time.
func (p *BaseProvider) executeOnce(ctx context.Context, req *Request) (string, error) {
	path, err := p.lookPath()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string{}, p.args...), req.Args...)
	slog.Debug("Executing CLI command",
		"provider", p.name,
		"command", p.command,
		"args_count", len(args),
		"dir", req.WorkingDir,
		"prompt_len", len(req.Prompt),
	)

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = req.WorkingDir

	var stdout, stderr bytes.Buffer
	outW := newLimitedWriter(&stdout, MaxOutputSize)
	errW := newLimitedWriter(&stderr, MaxOutputSize)
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Run(); err != nil {
		slog.Error("CLI command failed", "provider", p.name, "error", err, "stderr", stderr.String())
		return "", p.failure(ctx, err, stderr.String(), errW.limited)
	}

	result := strings.TrimSpace(stdout.String())
	slog.Debug("CLI command successful", "provider", p.name, "output_len", len(result))
	if outW.limited {
		result += "\n... (output truncated at 10MB)"
	}
	return result, nil
}

func (p *BaseProvider) failure(ctx context.Context, err error, stderr string, truncated bool) *CLIError {
	if ctx.Err() == context.DeadlineExceeded {
		return &CLIError{Provider: p.name, Kind: FailureTimeout, Message: "command timed out", Err: ctx.Err()}
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = "command failed"
	} else if truncated {
		msg += "\n... (output truncated)"
	}
	return &CLIError{Provider: p.name, Kind: FailureExit, Message: msg, Err: err}
}

// ExecuteCommand runs the command, retrying transient failures with
// exponential backoff.
func (p *BaseProvider) ExecuteCommand(ctx context.Context, req *Request) (string, error) {
	attempts := p.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := p.backoff(attempt)
			slog.Info("Retrying command after backoff",
				"provider", p.name,
				"attempt", attempt+1,
				"max_attempts", attempts,
				"backoff", wait,
			)
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			}
		}

		result, err := p.executeOnce(ctx, req)
		if err == nil {
			if attempt > 0 {
				slog.Info("Command succeeded after retry", "provider", p.name, "attempt", attempt+1)
			}
			return result, nil
		}
		if !isRetriable(err) {
			return "", err
		}
		lastErr = err
		slog.Warn("Command failed, will retry", "provider", p.name, "attempt", attempt+1, "error", err)
	}

	slog.Error("Command failed after all retries", "provider", p.name, "attempts", attempts, "error", lastErr)
	return "", fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// ModelFor returns the request's model or the provider default.
func (p *BaseProvider) ModelFor(req *Request) string {
	if req.Model != "" {
		return req.Model
	}
	return p.defaultModel
}

// Invoke runs the CLI with a provider-specific argument list built from req
// and reports how long the call took, retries included.
func (p *BaseProvider) Invoke(ctx context.Context, req *Request, args []string) (string, time.Duration, error) {
	start := time.Now()
	raw, err := p.ExecuteCommand(ctx, &Request{
		Prompt:     req.Prompt,
		Model:      p.ModelFor(req),
		WorkingDir: req.WorkingDir,
		Args:       args,
	})
	return raw, time.Since(start), err
}

// HealthCheck runs the health prompt once without retries. Only the exit
// status is checked since raw output formats differ between CLIs.
func (p *BaseProvider) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	req := &Request{
		Prompt: HealthCheckPrompt,
		Model:  p.defaultModel,
		Args:   []string{HealthCheckPrompt},
	}
	if _, err := p.executeOnce(ctx, req); err != nil {
		return unhealthy(time.Since(start), err.Error())
	}
	return HealthStatus{Available: true, ResponseTime: time.Since(start), CheckedAt: time.Now()}
}
