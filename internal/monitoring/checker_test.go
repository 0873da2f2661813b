package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/config"
	"github.com/sells-group/constituent-twin/internal/resilience"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cache := &fakeCache{stats: map[string]int{}}
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1}
	checker := NewChecker(NewCollector(cache, nil), NewAlerter(cfg), cache, cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	checker := NewChecker(NewCollector(nil, nil), NewAlerter(config.MonitoringConfig{}), nil, config.MonitoringConfig{})
	assert.NotNil(t, checker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}

func TestChecker_CheckPurgesAndAlerts(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	cache := &fakeCache{stats: map[string]int{"personas": 1}, purged: 7}
	breakers := fakeBreakers{"anthropic": resilience.CircuitOpen, "groq": resilience.CircuitClosed}
	cfg := config.MonitoringConfig{WebhookURL: ts.URL}

	snap := NewChecker(NewCollector(cache, breakers), NewAlerter(cfg), cache, cfg).Check(context.Background(), zap.NewNop())
	require.NotNil(t, snap)
	assert.Equal(t, 1, cache.purges)
	assert.Equal(t, 7, snap.ExpiredPurged)
	assert.Equal(t, int32(1), received.Load())
}

func TestChecker_CheckContinuesAfterPurgeError(t *testing.T) {
	cache := &fakeCache{stats: map[string]int{"summary": 2}, purgeErr: fmt.Errorf("locked")}
	cfg := config.MonitoringConfig{}

	snap := NewChecker(NewCollector(cache, nil), NewAlerter(cfg), cache, cfg).Check(context.Background(), zap.NewNop())
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.CacheTotal)
	assert.Zero(t, snap.ExpiredPurged)
}

func TestChecker_CheckCollectError(t *testing.T) {
	cache := &fakeCache{statsErr: fmt.Errorf("closed")}
	cfg := config.MonitoringConfig{}

	snap := NewChecker(NewCollector(cache, nil), NewAlerter(cfg), nil, cfg).Check(context.Background(), zap.NewNop())
	assert.Nil(t, snap)
}
