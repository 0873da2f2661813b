package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// profileTotal counts normalized profiles by provenance.
	profileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_census_profiles_total",
		Help: "Demographic profiles produced by source",
	}, []string{"source"})

	// censusFetchTotal counts Census API calls by geography kind and result.
	censusFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_census_fetch_total",
		Help: "Census API requests by geography and result",
	}, []string{"geography", "result"})

	// generationTotal counts persona batches by the source that authored them.
	generationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_persona_batches_total",
		Help: "Persona batches generated by source",
	}, []string{"source"})

	// llmRequestTotal counts LLM calls by provider, operation and result.
	llmRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_llm_requests_total",
		Help: "LLM requests by provider, operation and result",
	}, []string{"provider", "operation", "result"})

	// llmRequestDuration tracks LLM latency including retries.
	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "twin_llm_request_duration_seconds",
		Help:    "LLM request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to ~32s
	}, []string{"provider", "operation"})

	// cacheLookupTotal counts result cache lookups by kind and outcome.
	cacheLookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_cache_lookups_total",
		Help: "Result cache lookups by kind and outcome",
	}, []string{"kind", "outcome"})

	// cacheEntries reports live cache rows per kind.
	cacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "twin_cache_entries",
		Help: "Unexpired result cache rows by kind",
	}, []string{"kind"})

	// breakerOpen is 1 while a provider's circuit is not closed.
	breakerOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "twin_llm_breaker_open",
		Help: "1 when the provider circuit breaker is open or half-open",
	}, []string{"provider"})
)

// ObserveProfile records a profile produced with the given source tag.
func ObserveProfile(source string) {
	profileTotal.WithLabelValues(source).Inc()
}

// ObserveCensusFetch records one Census API request.
func ObserveCensusFetch(geography string, err error) {
	censusFetchTotal.WithLabelValues(geography, result(err)).Inc()
}

// ObserveGeneration records a persona batch by source.
func ObserveGeneration(source string) {
	generationTotal.WithLabelValues(source).Inc()
}

// ObserveLLM records the outcome and latency of one LLM request.
func ObserveLLM(provider, operation string, started time.Time, err error) {
	llmRequestTotal.WithLabelValues(provider, operation, result(err)).Inc()
	llmRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
}

// ObserveCacheLookup records a cache hit or miss for kind.
func ObserveCacheLookup(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookupTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveBreaker records whether a provider's circuit breaker is open.
func ObserveBreaker(provider string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	breakerOpen.WithLabelValues(provider).Set(v)
}

// ObserveCacheEntries sets the live row count for a cache kind.
func ObserveCacheEntries(kind string, n int) {
	cacheEntries.WithLabelValues(kind).Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
