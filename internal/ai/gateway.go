package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Request is one generation call.
type Request struct {
	Prompt    string
	Model     string
	Operation string // labels the usage record, e.g. "rss_telegram"
	JSON      bool   // ask the provider for a JSON object response
}

// Result is a successful generation.
type Result struct {
	Text         string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Provider is one AI backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

// UsageRecorder persists one row per generation attempt.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, provider, model, operation string, inputTokens, outputTokens int, cost float64, succeeded bool, errKind string)
}

// Gateway routes generation calls to a default provider with a single
// fallback hop. Every attempt is recorded whether it succeeds or not.
type Gateway struct {
	providers map[string]Provider
	usage     UsageRecorder
}

func NewGateway(usage UsageRecorder, providers ...Provider) *Gateway {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p != nil {
			m[p.Name()] = p
		}
	}
	return &Gateway{providers: m, usage: usage}
}

// Has reports whether a provider with the given name is registered.
func (g *Gateway) Has(name string) bool {
	_, ok := g.providers[name]
	return ok
}

// Generate calls the default provider and, on failure, the fallback provider
// exactly once. It never loops back: if the fallback also fails, both errors
// are returned together.
func (g *Gateway) Generate(ctx context.Context, defaultProvider, fallbackProvider string, req Request) (*Result, error) {
	primary, ok := g.providers[defaultProvider]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q not configured", ErrProviderUnavailable, defaultProvider)
	}

	res, primaryErr := g.attempt(ctx, primary, req)
	if primaryErr == nil {
		return res, nil
	}

	if fallbackProvider == "" || fallbackProvider == defaultProvider {
		return nil, primaryErr
	}
	fallback, ok := g.providers[fallbackProvider]
	if !ok {
		slog.Warn("Fallback provider not configured", "provider", fallbackProvider)
		return nil, primaryErr
	}

	slog.Info("Primary provider failed, trying fallback", "primary", defaultProvider, "fallback", fallbackProvider, "error", primaryErr)
	res, fallbackErr := g.attempt(ctx, fallback, req)
	if fallbackErr == nil {
		return res, nil
	}
	return nil, fmt.Errorf("primary %s: %v; fallback %s: %w", defaultProvider, primaryErr, fallbackProvider, fallbackErr)
}

func (g *Gateway) attempt(ctx context.Context, p Provider, req Request) (*Result, error) {
	res, err := p.Generate(ctx, req)
	if err != nil {
		inputTokens := EstimateTokens(req.Prompt)
		g.record(ctx, p.Name(), req.Model, req.Operation, inputTokens, 0, 0, false, errorKind(err))
		return nil, err
	}
	g.record(ctx, res.Provider, res.Model, req.Operation, res.InputTokens, res.OutputTokens, res.CostUSD, true, "")
	return res, nil
}

func (g *Gateway) record(ctx context.Context, provider, model, operation string, in, out int, cost float64, ok bool, kind string) {
	if g.usage == nil {
		return
	}
	g.usage.RecordUsage(ctx, provider, model, operation, in, out, cost, ok, kind)
}

// StripFences removes a markdown code fence wrapper from model output so
// downstream JSON or HTML parsing sees the bare payload.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
