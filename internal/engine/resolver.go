package engine

import (
	"context"
	"fmt"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/persona"
	"github.com/alienxp03/debatearena/internal/scoring"
	"github.com/alienxp03/debatearena/provider"
)

// Resolver maps a provider name and model to a generator.
type Resolver interface {
	Generator(providerName, model string) (core.Generator, error)
}

// RegistryResolver resolves generators from a provider registry. Empty names
// fall back to the configured defaults.
type RegistryResolver struct {
	Registry        *provider.Registry
	DefaultProvider string
	DefaultModel    string
}

// Generator returns a generator backed by the named provider.
func (r *RegistryResolver) Generator(providerName, model string) (core.Generator, error) {
	if providerName == "" {
		providerName = r.DefaultProvider
		if model == "" {
			model = r.DefaultModel
		}
	}
	p, err := r.Registry.Get(providerName)
	if err != nil {
		return nil, core.Preconditionf("resolve provider", "%v", err)
	}
	if !p.Available() {
		return nil, core.Preconditionf("resolve provider", "provider %s is not available (CLI not found)", providerName)
	}
	return ProviderGenerator(p, model), nil
}

// ProviderGenerator adapts a provider to core.Generator.
func ProviderGenerator(p provider.Provider, model string) core.Generator {
	return core.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		resp, err := p.Execute(ctx, &provider.Request{
			System: system,
			Prompt: prompt,
			Model:  model,
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	})
}

// JudgeProfile configures one judge of the panel.
type JudgeProfile struct {
	ID       string
	Persona  string
	Provider string
	Model    string
}

// BuildPanel resolves every judge profile into a scoring panel.
func BuildPanel(r Resolver, profiles []JudgeProfile, custom []persona.Persona) (*scoring.Panel, error) {
	if len(profiles) != core.JudgeCount {
		return nil, fmt.Errorf("%d judge profiles configured, need exactly %d", len(profiles), core.JudgeCount)
	}
	judges := make([]scoring.Judge, 0, len(profiles))
	for _, jp := range profiles {
		p := persona.Resolve(jp.Persona, custom)
		if p == nil {
			return nil, fmt.Errorf("judge %s: unknown persona %q", jp.ID, jp.Persona)
		}
		gen, err := r.Generator(jp.Provider, jp.Model)
		if err != nil {
			return nil, fmt.Errorf("judge %s: %w", jp.ID, err)
		}
		id := jp.ID
		if id == "" {
			id = p.ID
		}
		judges = append(judges, scoring.Judge{ID: id, Persona: *p, Gen: gen})
	}
	return scoring.NewPanel(judges...), nil
}
