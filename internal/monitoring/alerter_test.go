package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/constituent-twin/internal/config"
)

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{CacheEntryThreshold: 1000})

	snap := &MetricsSnapshot{
		CacheTotal: 20,
		Breakers:   map[string]string{"anthropic": "closed", "groq": "closed"},
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_ProviderDown(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	snap := &MetricsSnapshot{
		Breakers:     map[string]string{"anthropic": "open", "groq": "closed"},
		OpenBreakers: []string{"anthropic"},
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertProviderDown, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "anthropic")
}

func TestAlerter_Evaluate_AllProvidersDown(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	snap := &MetricsSnapshot{
		Breakers:     map[string]string{"anthropic": "open", "groq": "half-open"},
		OpenBreakers: []string{"anthropic", "groq"},
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertAllProvidersDown, alerts[0].Type)
	assert.Equal(t, "critical", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "All 2")
}

func TestAlerter_Evaluate_CacheSize(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{CacheEntryThreshold: 100})

	snap := &MetricsSnapshot{
		CacheEntries: map[string]int{"personas": 90, "summary": 30},
		CacheTotal:   120,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCacheSize, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "120")
}

func TestAlerter_Evaluate_ZeroCacheThreshold(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{CacheEntryThreshold: 0})

	assert.Empty(t, a.Evaluate(&MetricsSnapshot{CacheTotal: 1_000_000}))
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var alert Alert
		err := json.NewDecoder(r.Body).Decode(&alert)
		require.NoError(t, err)
		assert.NotEmpty(t, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{
		WebhookURL: ts.URL,
	})

	alerts := []Alert{
		{Type: AlertProviderDown, Severity: "high", Message: "test alert 1"},
		{Type: AlertCacheSize, Severity: "medium", Message: "test alert 2"},
	}

	sent := a.SendAlerts(context.Background(), alerts)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_EmptyURL(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		WebhookURL: "",
	})

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertProviderDown, Message: "test"},
	})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_EmptyAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		WebhookURL: "http://example.com",
	})

	sent := a.SendAlerts(context.Background(), nil)
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{
		WebhookURL: ts.URL,
	})

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertProviderDown, Message: "test"}})
	assert.Equal(t, 0, sent)
}
