package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NewProvider creates a model-routing Provider from configuration.
// Every call is recorded through sink when it is non-nil.
func NewProvider(ctx context.Context, cfg Config, sink EventSink) (Provider, error) {
	router, err := NewRouter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return router, nil
	}
	return WithLogging(router, sink), nil
}

// Router dispatches each request to the provider that serves its model.
type Router struct {
	providers map[string]Provider
	mock      Provider
	timeout   time.Duration
}

// NewRouter initializes a provider for every configured API key.
// Providers without a key are left out; requests for their models fail
// with ErrNotConfigured.
func NewRouter(ctx context.Context, cfg Config) (*Router, error) {
	r := &Router{
		providers: make(map[string]Provider),
		timeout:   cfg.Timeout,
	}

	if cfg.Mock {
		r.mock = NewEchoProvider()
	}

	if cfg.OpenAI.APIKey != "" {
		p, err := NewOpenAIProvider(cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("initializing %s provider: %w", ProviderOpenAI, err)
		}
		r.providers[ProviderOpenAI] = p
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := NewAnthropicProvider(cfg.Anthropic)
		if err != nil {
			return nil, fmt.Errorf("initializing %s provider: %w", ProviderAnthropic, err)
		}
		r.providers[ProviderAnthropic] = p
	}
	if cfg.Gemini.APIKey != "" {
		p, err := NewGeminiProvider(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("initializing %s provider: %w", ProviderGemini, err)
		}
		r.providers[ProviderGemini] = p
	}
	if cfg.OpenRouter.APIKey != "" {
		p, err := NewOpenRouterProvider(cfg.OpenRouter)
		if err != nil {
			return nil, fmt.Errorf("initializing %s provider: %w", ProviderOpenRouter, err)
		}
		r.providers[ProviderOpenRouter] = p
	}

	return r, nil
}

// Register installs p as the provider for name, replacing any existing one.
func (r *Router) Register(name string, p Provider) {
	r.providers[name] = p
}

func (r *Router) Generate(ctx context.Context, req Request) (*Response, error) {
	p, err := r.providerFor(req.Model)
	if err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	return p.Generate(ctx, req)
}

// Name returns "router".
func (r *Router) Name() string {
	return "router"
}

// ProviderFor returns the name of the provider that would serve model.
func (r *Router) ProviderFor(model string) string {
	if r.mock != nil {
		return ProviderMock
	}
	return RouteModel(model)
}

func (r *Router) providerFor(model string) (Provider, error) {
	if r.mock != nil {
		return r.mock, nil
	}
	name := RouteModel(model)
	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrNotConfigured{Provider: name, Model: model}
	}
	return p, nil
}

// RouteModel maps a model ID to the provider that serves it:
// "vendor/model" IDs go to OpenRouter, claude-* to Anthropic, gemini-* to
// Gemini, and everything else to OpenAI.
func RouteModel(model string) string {
	switch {
	case strings.Contains(model, "/"):
		return ProviderOpenRouter
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	default:
		return ProviderOpenAI
	}
}
