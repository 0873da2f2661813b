package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/config"
)

// Purger deletes expired cache rows.
type Purger interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// Checker runs the cache janitor and alert checks in the background.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	purger    Purger
	cfg       config.MonitoringConfig
}

// NewChecker creates a background checker. purger may be nil.
func NewChecker(collector *Collector, alerter *Alerter, purger Purger, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		purger:    purger,
		cfg:       cfg,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting checker", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx, log)
		}
	}
}

// Check runs one janitor and alert pass.
func (c *Checker) Check(ctx context.Context, log *zap.Logger) *MetricsSnapshot {
	purged := 0
	if c.purger != nil {
		n, err := c.purger.DeleteExpired(ctx)
		if err != nil {
			log.Error("monitoring: failed to purge expired cache rows", zap.Error(err))
		}
		purged = n
	}

	snap, err := c.collector.Collect(ctx)
	if err != nil {
		log.Error("monitoring: failed to collect metrics", zap.Error(err))
		return nil
	}
	snap.ExpiredPurged = purged

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered", zap.Int("expired_purged", purged))
		return snap
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: alert check complete",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
	return snap
}
