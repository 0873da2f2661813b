package monitoring

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/constituent-twin/internal/resilience"
)

// MetricsSnapshot holds a point-in-time view of cache and provider health.
type MetricsSnapshot struct {
	// Unexpired cache rows per kind.
	CacheEntries map[string]int `json:"cache_entries"`
	CacheTotal   int            `json:"cache_total"`

	// Rows removed by the janitor pass that preceded this snapshot.
	ExpiredPurged int `json:"expired_purged"`

	// Circuit breaker state per LLM provider.
	Breakers     map[string]string `json:"breakers"`
	OpenBreakers []string          `json:"open_breakers"`

	CollectedAt time.Time `json:"collected_at"`
}

// CacheStatter reports cache row counts per kind.
type CacheStatter interface {
	Stats(ctx context.Context) (map[string]int, error)
}

// BreakerReporter reports circuit breaker states by provider.
type BreakerReporter interface {
	States() map[string]resilience.CircuitState
}

// Collector gathers metrics from the cache store and provider breakers.
type Collector struct {
	cache    CacheStatter
	breakers BreakerReporter
}

// NewCollector creates a new metrics collector. Either source may be nil.
func NewCollector(cache CacheStatter, breakers BreakerReporter) *Collector {
	return &Collector{cache: cache, breakers: breakers}
}

// Collect gathers a snapshot and updates the cache and breaker gauges.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		CacheEntries: map[string]int{},
		Breakers:     map[string]string{},
		CollectedAt:  time.Now().UTC(),
	}

	if c.cache != nil {
		stats, err := c.cache.Stats(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: cache stats")
		}
		for kind, n := range stats {
			snap.CacheEntries[kind] = n
			snap.CacheTotal += n
			ObserveCacheEntries(kind, n)
		}
	}

	if c.breakers != nil {
		for name, state := range c.breakers.States() {
			snap.Breakers[name] = state.String()
			open := state != resilience.CircuitClosed
			if open {
				snap.OpenBreakers = append(snap.OpenBreakers, name)
			}
			ObserveBreaker(name, open)
		}
		slices.Sort(snap.OpenBreakers)
	}

	return snap, nil
}
