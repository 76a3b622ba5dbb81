// Package bandcache persists computed frequency ranges in SQLite so repeated
// runs over the same source files skip the spectral pass.
package bandcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-mixgen/catalog"
	"github.com/cwbudde/algo-mixgen/internal/logging"
	"github.com/cwbudde/algo-mixgen/spectral"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Key identifies one cached classification. A file whose size or
// modification time changes no longer matches.
type Key struct {
	Location   string
	Size       int64
	ModTimeNS  int64
	SampleRate int
}

// KeyFor stats location and builds its key.
func KeyFor(location string, sampleRate int) (Key, error) {
	fi, err := os.Stat(location)
	if err != nil {
		return Key{}, err
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return Key{}, err
	}
	return Key{
		Location:   abs,
		Size:       fi.Size(),
		ModTimeNS:  fi.ModTime().UnixNano(),
		SampleRate: sampleRate,
	}, nil
}

// Cache is a SQLite-backed band store. It is safe for concurrent use.
type Cache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Open creates or opens the cache database at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	c := &Cache{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "bandcache"),
	}
	if err := c.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) initSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS bands (
	location    TEXT    NOT NULL,
	sample_rate INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	mtime_ns    INTEGER NOT NULL,
	band        TEXT    NOT NULL,
	updated_at  TEXT    NOT NULL,
	PRIMARY KEY (location, sample_rate)
)`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init band cache schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the cached band for key, if present and current.
func (c *Cache) Get(ctx context.Context, key Key) (spectral.Band, bool, error) {
	var name string
	err := c.db.QueryRowContext(ctx,
		`SELECT band FROM bands WHERE location = ? AND sample_rate = ? AND size = ? AND mtime_ns = ?`,
		key.Location, key.SampleRate, key.Size, key.ModTimeNS,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return spectral.SubBass, false, nil
	}
	if err != nil {
		return spectral.SubBass, false, fmt.Errorf("query band cache: %w", err)
	}
	b, err := spectral.ParseBand(name)
	if err != nil {
		// Stale row from an incompatible build; treat as a miss.
		return spectral.SubBass, false, nil
	}
	return b, true, nil
}

// Put stores band for key, replacing any previous entry for the location.
func (c *Cache) Put(ctx context.Context, key Key, band spectral.Band) error {
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO bands (location, sample_rate, size, mtime_ns, band, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(location, sample_rate) DO UPDATE SET
	size = excluded.size,
	mtime_ns = excluded.mtime_ns,
	band = excluded.band,
	updated_at = excluded.updated_at`,
			key.Location, key.SampleRate, key.Size, key.ModTimeNS, band.String(),
			time.Now().UTC().Format(time.RFC3339),
		)
		return err
	})
}

// Stats returns the hit and miss counts recorded by Wrap.
func (c *Cache) Stats() (hits int64, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Wrap returns a BandFunc that consults the cache before calling fn and
// stores fresh results. Cache failures are logged and never fail a row.
func (c *Cache) Wrap(sampleRate int, fn catalog.BandFunc) catalog.BandFunc {
	return func(ctx context.Context, clip catalog.SourceClip) (spectral.Band, error) {
		key, err := KeyFor(clip.Location, sampleRate)
		if err != nil {
			// Let fn report the unreadable file.
			return fn(ctx, clip)
		}
		if b, ok, err := c.Get(ctx, key); err != nil {
			c.logger.Warn("band cache lookup failed", "path", clip.Location, "error", err)
		} else if ok {
			c.hits.Add(1)
			return b, nil
		}
		c.misses.Add(1)
		b, err := fn(ctx, clip)
		if err != nil {
			return b, err
		}
		if err := c.Put(ctx, key, b); err != nil {
			c.logger.Warn("band cache store failed", "path", clip.Location, "error", err)
		}
		return b, nil
	}
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
