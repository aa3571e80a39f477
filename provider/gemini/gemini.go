// Package gemini provides a Gemini CLI provider implementation.
package gemini

import (
	"context"

	"github.com/alienxp03/debatearena/provider"
)

// Provider runs the gemini CLI with JSON output.
type Provider struct {
	provider.BaseProvider
}

func New(cfg provider.Config) *Provider {
	return &Provider{BaseProvider: provider.NewBaseProvider(cfg)}
}

// Args builds the argument list. The CLI has no system flag, so the system
// instruction is folded into the prompt.
func (p *Provider) Args(req *provider.Request) []string {
	args := []string{"--output-format", "json"}
	if model := p.ModelFor(req); model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, req.FullPrompt())
	return append(args, req.Args...)
}

func (p *Provider) Execute(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	raw, elapsed, err := p.Invoke(ctx, req, p.Args(req))
	if err != nil {
		return nil, err
	}
	resp, err := ParseJSON(raw, elapsed)
	if err != nil {
		return nil, err
	}
	resp.Provider = p.Name()
	if resp.Model == "" {
		resp.Model = p.ModelFor(req)
	}
	return resp, nil
}

func (p *Provider) HealthCheck(ctx context.Context) provider.HealthStatus {
	return provider.HealthCheckWithExecute(ctx, p.DefaultModel(), p.Execute)
}
