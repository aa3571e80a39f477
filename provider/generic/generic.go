// Package generic provides a provider for any CLI that takes a prompt as its
// last argument and prints plain text.
package generic

import (
	"context"

	"github.com/alienxp03/debatearena/provider"
)

// Provider wraps a configurable command whose stdout is the answer.
type Provider struct {
	provider.BaseProvider
}

func New(cfg provider.Config) *Provider {
	return &Provider{BaseProvider: provider.NewBaseProvider(cfg)}
}

// Args places --model first when one is set and the full prompt last.
func (p *Provider) Args(req *provider.Request) []string {
	var args []string
	if model := p.ModelFor(req); model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, req.Args...)
	return append(args, req.FullPrompt())
}

// Execute returns stdout verbatim as the content.
func (p *Provider) Execute(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	content, elapsed, err := p.Invoke(ctx, req, p.Args(req))
	if err != nil {
		return nil, err
	}
	return &provider.Response{
		Content:  content,
		Model:    p.ModelFor(req),
		Provider: p.Name(),
		Metadata: &provider.Metadata{Duration: elapsed},
		Raw:      content,
	}, nil
}

func (p *Provider) HealthCheck(ctx context.Context) provider.HealthStatus {
	return provider.HealthCheckWithExecute(ctx, p.DefaultModel(), p.Execute)
}
