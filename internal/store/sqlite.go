package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. Timestamps are
// stored as unix milliseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) a SQLite database at dsn.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS result_cache (
	id         TEXT PRIMARY KEY,
	region     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	cache_key  TEXT NOT NULL DEFAULT '',
	data       BLOB NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	UNIQUE (region, kind, cache_key)
);

CREATE INDEX IF NOT EXISTS idx_result_cache_expires_at ON result_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCached(ctx context.Context, region, kind, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, region, kind, cache_key, data, cached_at, expires_at FROM result_cache
		 WHERE region = ? AND kind = ? AND cache_key = ? AND expires_at > ?`,
		region, kind, key, s.now().UnixMilli(),
	)

	var e Entry
	var cachedAt, expiresAt int64
	err := row.Scan(&e.ID, &e.Region, &e.Kind, &e.Key, &e.Data, &cachedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached")
	}
	e.CachedAt = time.UnixMilli(cachedAt).UTC()
	e.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &e, nil
}

func (s *SQLiteStore) SetCached(ctx context.Context, region, kind, key string, data []byte, ttl time.Duration) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO result_cache (id, region, kind, cache_key, data, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (region, kind, cache_key) DO UPDATE SET
		   id = excluded.id, data = excluded.data,
		   cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		uuid.New().String(), region, kind, key, data, now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	return eris.Wrap(err, "sqlite: set cached")
}

func (s *SQLiteStore) DeleteCached(ctx context.Context, region, kind string) (int, error) {
	var (
		res sql.Result
		err error
	)
	if kind == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM result_cache WHERE region = ?`, region)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM result_cache WHERE region = ? AND kind = ?`, region, kind)
	}
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete cached")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM result_cache WHERE expires_at <= ?`, s.now().UnixMilli(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM result_cache WHERE expires_at > ? GROUP BY kind`,
		s.now().UnixMilli(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	defer rows.Close()
	return scanStats(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanStats(rows rowScanner) (map[string]int, error) {
	out := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, eris.Wrap(err, "scan stats")
		}
		out[kind] = n
	}
	return out, eris.Wrap(rows.Err(), "iterate stats")
}
