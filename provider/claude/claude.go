// Package claude provides the Claude Code CLI provider.
package claude

import (
	"context"

	"github.com/alienxp03/debatearena/provider"
)

// Provider runs the claude CLI in print mode with JSON output.
type Provider struct {
	provider.BaseProvider
}

func New(cfg provider.Config) *Provider {
	return &Provider{BaseProvider: provider.NewBaseProvider(cfg)}
}

// Args builds the argument list for a request. The system instruction is
// passed through the CLI's own flag.
func (p *Provider) Args(req *provider.Request) []string {
	args := []string{"--output-format", "json"}
	if model := p.ModelFor(req); model != "" {
		args = append(args, "--model", model)
	}
	if req.System != "" {
		args = append(args, "--system-prompt", req.System)
	}
	args = append(args, req.Args...)
	return append(args, req.Prompt)
}

// Execute runs the CLI and parses its JSON result envelope.
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

// HealthCheck probes through Execute so the JSON envelope is validated too.
func (p *Provider) HealthCheck(ctx context.Context) provider.HealthStatus {
	return provider.HealthCheckWithExecute(ctx, p.DefaultModel(), p.Execute)
}
