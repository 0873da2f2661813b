package monitoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/constituent-twin/internal/resilience"
)

type fakeCache struct {
	stats    map[string]int
	statsErr error
	purged   int
	purgeErr error
	purges   int
}

func (f *fakeCache) Stats(context.Context) (map[string]int, error) {
	return f.stats, f.statsErr
}

func (f *fakeCache) DeleteExpired(context.Context) (int, error) {
	f.purges++
	return f.purged, f.purgeErr
}

type fakeBreakers map[string]resilience.CircuitState

func (f fakeBreakers) States() map[string]resilience.CircuitState { return f }

func TestCollector_Collect(t *testing.T) {
	cache := &fakeCache{stats: map[string]int{"personas": 4, "summary": 2}}
	breakers := fakeBreakers{
		"groq":      resilience.CircuitOpen,
		"anthropic": resilience.CircuitClosed,
	}

	snap, err := NewCollector(cache, breakers).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, snap.CacheTotal)
	assert.Equal(t, map[string]int{"personas": 4, "summary": 2}, snap.CacheEntries)
	assert.Equal(t, map[string]string{"groq": "open", "anthropic": "closed"}, snap.Breakers)
	assert.Equal(t, []string{"groq"}, snap.OpenBreakers)
	assert.False(t, snap.CollectedAt.IsZero())

	assert.InDelta(t, 4, testutil.ToFloat64(cacheEntries.WithLabelValues("personas")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(breakerOpen.WithLabelValues("groq")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(breakerOpen.WithLabelValues("anthropic")), 0)
}

func TestCollector_NilSources(t *testing.T) {
	snap, err := NewCollector(nil, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.CacheTotal)
	assert.Empty(t, snap.OpenBreakers)
}

func TestCollector_StatsError(t *testing.T) {
	cache := &fakeCache{statsErr: fmt.Errorf("database is locked")}

	_, err := NewCollector(cache, nil).Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache stats")
}
