package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/census"
	"github.com/sells-group/constituent-twin/internal/chat"
	"github.com/sells-group/constituent-twin/internal/config"
	"github.com/sells-group/constituent-twin/internal/fetcher"
	"github.com/sells-group/constituent-twin/internal/generator"
	"github.com/sells-group/constituent-twin/internal/llm"
	"github.com/sells-group/constituent-twin/internal/persona"
	"github.com/sells-group/constituent-twin/internal/policy"
	"github.com/sells-group/constituent-twin/internal/resilience"
	"github.com/sells-group/constituent-twin/internal/store"
	"github.com/sells-group/constituent-twin/internal/twin"
)

// appEnv holds the initialized service and the resources it owns.
type appEnv struct {
	Store    store.Store // may be nil
	Service  *twin.Service
	Breakers *resilience.Breakers // nil when offline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// appOptions adjusts wiring for a single command invocation.
type appOptions struct {
	// Offline skips every LLM provider.
	Offline bool
	// Seed overrides generator.seed when non-zero.
	Seed uint64
	// RequireStore fails instead of running without a cache.
	RequireStore bool
}

// initApp builds the census client, normalizer, LLM chain and twin service
// from cfg. Callers should defer env.Close().
func initApp(ctx context.Context, c *config.Config, opts appOptions) (*appEnv, error) {
	st, err := initStore(ctx, c.Store)
	if err != nil {
		if opts.RequireStore {
			return nil, err
		}
		zap.L().Warn("result cache unavailable, continuing without it", zap.Error(err))
		st = nil
	}

	seed := c.Generator.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	normalizer, err := initNormalizer(c.Census, seed)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}

	var (
		chain    *llm.Chain
		breakers *resilience.Breakers
	)
	if opts.Offline {
		zap.L().Info("offline mode, personas come from the sampler")
	} else {
		chainOpts := llm.ChainOptionsFromConfig(c.Generator)
		chain = llm.NewChain(llm.ProvidersFromConfig(c), chainOpts)
		if chain.Empty() {
			zap.L().Warn("no LLM provider configured, personas come from the sampler")
		} else {
			breakers = chainOpts.Breakers
			zap.L().Info("llm providers enabled", zap.Strings("providers", chain.Names()))
		}
	}

	gen := generator.New(chain, persona.NewSampler(seed),
		generator.WithMaxTokens(c.Generator.MaxTokens),
		generator.WithTemperature(c.Generator.Temperature),
	)

	svc := twin.New(normalizer, gen, policy.NewSummarizer(chain), chat.NewResponder(chain), twin.Options{
		Store:       st,
		CacheTTL:    time.Duration(c.Store.CacheTTLHours) * time.Hour,
		MaxPersonas: c.Generator.MaxPersonas,
	})

	return &appEnv{Store: st, Service: svc, Breakers: breakers}, nil
}

// initStore opens and migrates the configured result cache.
func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	dsn := sc.DatabaseURL
	if sc.Driver == "sqlite" && dsn == "" {
		dsn = "twin.db"
	}
	st, err := store.Open(ctx, sc.Driver, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// initNormalizer builds the Census fetcher, client and normalizer.
func initNormalizer(cc config.CensusConfig, seed uint64) (*census.Normalizer, error) {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  "constituent-twin/1.0",
		Timeout:    time.Duration(cc.TimeoutSecs) * time.Second,
		MaxRetries: cc.MaxRetries,
	})
	client := census.NewClient(f, census.ClientOptions{
		BaseURL: cc.BaseURL,
		Year:    cc.Year,
		Dataset: cc.Dataset,
		APIKey:  cc.APIKey,
	})

	opts := []census.Option{
		census.WithMinMedianIncome(cc.MinMedianIncome),
		census.WithTTL(time.Duration(cc.CacheTTLMinutes) * time.Minute),
		census.WithMaxConcurrentZIPs(cc.MaxConcurrentZIPs),
	}
	if seed != 0 {
		opts = append(opts, census.WithSeed(seed))
	}
	if cc.DistrictZIPFile != "" {
		districts, err := census.LoadDistrictZIPs(cc.DistrictZIPFile)
		if err != nil {
			return nil, eris.Wrap(err, "load district zip map")
		}
		opts = append(opts, census.WithDistrictZIPs(districts))
	}

	return census.NewNormalizer(client, opts...), nil
}
