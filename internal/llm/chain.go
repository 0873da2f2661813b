package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/config"
	"github.com/sells-group/constituent-twin/internal/monitoring"
	"github.com/sells-group/constituent-twin/internal/resilience"
	"github.com/sells-group/constituent-twin/pkg/anthropic"
	"github.com/sells-group/constituent-twin/pkg/groq"
)

var (
	// ErrNoProviders is returned by Run when the chain is empty.
	ErrNoProviders = eris.New("llm: no providers configured")
	// ErrExhausted is returned by Run when every provider failed.
	ErrExhausted = eris.New("llm: all providers failed")
)

// ChainOptions configures how a Chain calls each provider.
type ChainOptions struct {
	// Retry is applied per provider. Use resilience.RateLimitRetryConfig to
	// retry only HTTP 429 responses.
	Retry resilience.RetryConfig
	// Timeout bounds each individual provider call. Zero means no timeout.
	Timeout time.Duration
	// Breakers guards providers by name. Nil disables circuit breaking.
	Breakers *resilience.Breakers
}

// Outcome describes which provider produced an accepted response.
type Outcome struct {
	Provider string
	// Attempts counts provider calls across all providers, retries included.
	Attempts int
}

// Chain tries providers in order until one returns an accepted response.
type Chain struct {
	providers []Provider
	opts      ChainOptions
	log       *zap.Logger
}

// NewChain creates a chain over providers in priority order.
func NewChain(providers []Provider, opts ChainOptions) *Chain {
	return &Chain{
		providers: providers,
		opts:      opts,
		log:       zap.L().With(zap.String("component", "llm")),
	}
}

// Names returns provider names in priority order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Empty reports whether the chain has no providers.
func (c *Chain) Empty() bool {
	return c == nil || len(c.providers) == 0
}

// Run sends req to each provider in turn. accept parses and validates the
// response text; a non-nil error from accept moves on to the next provider
// without retrying. The returned error wraps the last provider failure.
func (c *Chain) Run(ctx context.Context, req Request, accept func(text string) error) (Outcome, error) {
	var out Outcome
	if c.Empty() {
		return out, ErrNoProviders
	}

	var lastErr error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrap(err, "llm: run")
		}

		text, err := c.call(ctx, p, req, &out.Attempts)
		if err == nil {
			err = accept(text)
		}
		if err == nil {
			out.Provider = p.Name()
			return out, nil
		}

		lastErr = err
		c.log.Warn("provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.String("operation", req.Operation),
			zap.Int("status", resilience.StatusCode(err)),
			zap.Error(err),
		)
	}
	return out, eris.Wrapf(ErrExhausted, "%s: %v", req.Operation, lastErr)
}

func (c *Chain) call(ctx context.Context, p Provider, req Request, attempts *int) (string, error) {
	retry := c.opts.Retry
	retry.OnRetry = resilience.RetryLogger(p.Name(), req.Operation)

	attempt := func(ctx context.Context) (string, error) {
		*attempts++
		if c.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
			defer cancel()
		}
		started := time.Now()
		text, err := p.Complete(ctx, req)
		monitoring.ObserveLLM(p.Name(), req.Operation, started, err)
		return text, err
	}

	withRetry := func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, retry, attempt)
	}
	if c.opts.Breakers == nil {
		return withRetry(ctx)
	}
	return resilience.ExecuteVal(ctx, c.opts.Breakers.Get(p.Name()), withRetry)
}

// ProvidersFromConfig builds the providers named in cfg.Generator.Providers,
// in order, skipping any whose API key is unset.
func ProvidersFromConfig(cfg *config.Config) []Provider {
	log := zap.L().With(zap.String("component", "llm"))

	var out []Provider
	for _, name := range cfg.Generator.Providers {
		switch name {
		case ProviderAnthropic:
			if cfg.Anthropic.Key == "" {
				log.Info("anthropic key not set, provider disabled")
				continue
			}
			var opts []anthropic.ClientOption
			if cfg.Anthropic.BaseURL != "" {
				opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
			}
			out = append(out, NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key, opts...), cfg.Anthropic.Model))
		case ProviderGroq:
			if cfg.Groq.Key == "" {
				log.Info("groq key not set, provider disabled")
				continue
			}
			out = append(out, NewGroq(groq.NewClient(cfg.Groq.Key, cfg.Groq.BaseURL), cfg.Groq.Model))
		default:
			log.Warn("unknown provider ignored", zap.String("provider", name))
		}
	}
	return out
}

// ChainOptionsFromConfig maps generator settings to ChainOptions. The
// breakers report state changes to the breaker gauge.
func ChainOptionsFromConfig(g config.GeneratorConfig) ChainOptions {
	bcfg := resilience.NewCircuitBreakerConfig(g.BreakerFailures, time.Duration(g.BreakerResetSecs)*time.Second)
	bcfg.OnStateChange = func(name string, _, to resilience.CircuitState) {
		monitoring.ObserveBreaker(name, to != resilience.CircuitClosed)
	}
	return ChainOptions{
		Retry: resilience.RateLimitRetryConfig(
			g.RetryAttempts,
			time.Duration(g.InitialBackoffMs)*time.Millisecond,
			time.Duration(g.MaxBackoffMs)*time.Millisecond,
		),
		Timeout:  time.Duration(g.TimeoutSecs) * time.Second,
		Breakers: resilience.NewBreakers(bcfg),
	}
}
