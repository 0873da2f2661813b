// Package store persists generated results (persona batches, policy
// summaries) keyed by region, kind and a kind-specific key.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Cache kinds.
const (
	KindPersonas = "personas"
	KindSummary  = "summary"
)

// Entry is one cached result.
type Entry struct {
	ID        string    `json:"id"`
	Region    string    `json:"region"`
	Kind      string    `json:"kind"`
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store defines the persistence interface for the result cache.
type Store interface {
	// GetCached returns the unexpired entry for (region, kind, key), or nil
	// when there is none.
	GetCached(ctx context.Context, region, kind, key string) (*Entry, error)
	// SetCached inserts or replaces the entry for (region, kind, key).
	SetCached(ctx context.Context, region, kind, key string, data []byte, ttl time.Duration) error
	// DeleteCached removes a region's entries of kind, or of every kind when
	// kind is empty.
	DeleteCached(ctx context.Context, region, kind string) (int, error)
	DeleteExpired(ctx context.Context) (int, error)
	// Stats counts unexpired entries per kind.
	Stats(ctx context.Context) (map[string]int, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store for driver ("sqlite" or "postgres") and runs its
// migration.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
