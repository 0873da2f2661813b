package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertProviderDown     AlertType = "llm_provider_down"
	AlertAllProvidersDown AlertType = "llm_all_providers_down"
	AlertCacheSize        AlertType = "cache_size"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Personas silently degrade to the sampler while breakers are open.
	switch open := len(snap.OpenBreakers); {
	case open > 0 && open == len(snap.Breakers):
		alerts = append(alerts, Alert{
			Type:     AlertAllProvidersDown,
			Severity: "critical",
			Message: fmt.Sprintf(
				"All %d LLM providers have open circuits; personas and summaries are template-only",
				open,
			),
			Details:   map[string]any{"providers": snap.OpenBreakers},
			Timestamp: now,
		})
	case open > 0:
		alerts = append(alerts, Alert{
			Type:     AlertProviderDown,
			Severity: "high",
			Message: fmt.Sprintf(
				"LLM provider circuit open: %s",
				strings.Join(snap.OpenBreakers, ", "),
			),
			Details:   map[string]any{"providers": snap.OpenBreakers, "breakers": snap.Breakers},
			Timestamp: now,
		})
	}

	if a.cfg.CacheEntryThreshold > 0 && snap.CacheTotal > a.cfg.CacheEntryThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertCacheSize,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Result cache holds %d live entries, above threshold %d",
				snap.CacheTotal, a.cfg.CacheEntryThreshold,
			),
			Details: map[string]any{
				"entries":   snap.CacheEntries,
				"threshold": a.cfg.CacheEntryThreshold,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
