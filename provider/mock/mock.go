// Package mock provides an offline provider that answers without any CLI.
// Output is a deterministic function of the request, so demos and tests
// replay identically.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/alienxp03/debatearena/provider"
)

// jsonMarker is how judge instructions ask for structured output.
const jsonMarker = "Return ONLY valid JSON"

var (
	topicRe = regexp.MustCompile(`(?m)^Topic:\s*(.+)$`)
	sideRe  = regexp.MustCompile(`(?m)^Your side:\s*(\w+)`)
)

var openers = []string{
	"The evidence points one way.",
	"Consider what actually happens in practice.",
	"Start from the people affected.",
	"History gives a clear answer here.",
	"The numbers tell the story.",
}

// Provider is a deterministic in-process provider.
type Provider struct {
	name  string
	model string
	delay time.Duration
}

// New creates a mock provider. A configured timeout is ignored.
func New(cfg provider.Config) *Provider {
	name := cfg.Name
	if name == "" {
		name = "mock"
	}
	return &Provider{name: name, model: cfg.DefaultModel}
}

// WithDelay makes every call take d, which is useful to observe streaming.
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.delay = d
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return p.name }

// Available is always true.
func (p *Provider) Available() bool { return true }

func (p *Provider) DefaultModel() string { return p.model }
func (p *Provider) Models() []string     { return []string{p.model} }

// Execute answers the request.
func (p *Provider) Execute(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var content string
	switch {
	case req.Prompt == provider.HealthCheckPrompt:
		content = "2"
	case strings.Contains(req.System, jsonMarker) || strings.Contains(req.Prompt, jsonMarker):
		content = verdict(req.Prompt)
	default:
		content = argument(req.System, req.Prompt)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	return &provider.Response{
		Content:  content,
		Model:    model,
		Provider: p.name,
		Metadata: &provider.Metadata{
			InputTokens:  len(strings.Fields(req.FullPrompt())),
			OutputTokens: len(strings.Fields(content)),
			TotalTokens:  len(strings.Fields(req.FullPrompt())) + len(strings.Fields(content)),
			StopReason:   "end_turn",
		},
		Raw: content,
	}, nil
}

// HealthCheck always succeeds.
func (p *Provider) HealthCheck(ctx context.Context) provider.HealthStatus {
	return provider.HealthCheckWithExecute(ctx, p.model, p.Execute)
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func argument(system, prompt string) string {
	topic := "the motion"
	if m := topicRe.FindStringSubmatch(prompt); m != nil {
		topic = strings.TrimSpace(m[1])
	}
	side := "my side"
	if m := sideRe.FindStringSubmatch(prompt); m != nil {
		side = m[1]
	}

	h := hash(system + prompt)
	stance := "support"
	if side == "cons" {
		stance = "oppose"
	}
	return fmt.Sprintf("%s I %s %q. My knowledge gives %d concrete reasons, and the strongest is that the costs fall on those least able to bear them. Point %d stands unanswered.",
		openers[h%uint32(len(openers))], stance, topic, 2+h%3, 1+h%4)
}

func verdict(prompt string) string {
	h := hash(prompt)
	a := 0.35 + float64(h%31)/100
	return fmt.Sprintf(`{"overall": {"a": %.2f, "b": %.2f}}`, a, 1-a)
}
