// Package pgcache is a PostgreSQL-backed cache.PersistentCache. It is
// grounded in bartekus-stagecraft's use of github.com/jackc/pgx/v5 for its
// own persistence layer; here the pool serves the same role a
// migration-applier's database connection does there, except the rows are
// step results instead of migration state.
//
// Serialized result bytes live in Postgres so a cache can be shared across
// hosts; each step's work directory, however, is still local disk (work
// directories are scratch space for a single run, not the cached artifact
// itself), rooted under workRoot and keyed by unique_id so it survives
// restarts on the same host.
package pgcache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/steperrors"
)

const schema = `
CREATE TABLE IF NOT EXISTS stepforge_results (
	unique_id  TEXT PRIMARY KEY,
	payload    BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Cache stores results in a stepforge_results table and work directories
// under a local root.
type Cache struct {
	pool     *pgxpool.Pool
	workRoot string
}

var (
	_ cache.StepCache       = (*Cache)(nil)
	_ cache.PersistentCache = (*Cache)(nil)
)

// New connects to dsn, ensures the results table exists, and roots local
// work directories under workRoot.
func New(ctx context.Context, dsn, workRoot string) (*Cache, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "pgcache: connecting")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pgcache: ensuring schema")
	}
	if err := os.MkdirAll(workRoot, 0o755); err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "pgcache: creating work root %s", workRoot)
	}
	return &Cache{pool: pool, workRoot: workRoot}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() { c.pool.Close() }

func (c *Cache) Contains(s cache.Entry) bool {
	var exists bool
	err := c.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM stepforge_results WHERE unique_id = $1)`,
		s.UniqueID(),
	).Scan(&exists)
	return err == nil && exists
}

func (c *Cache) Read(s cache.Entry) (any, error) {
	formatted, ok := s.(cache.Formatted)
	if !ok {
		return nil, steperrors.WrapCache("read", s.UniqueID(),
			errors.New("pgcache requires a cache.Formatted entry"))
	}

	var payload []byte
	err := c.pool.QueryRow(context.Background(),
		`SELECT payload FROM stepforge_results WHERE unique_id = $1`,
		s.UniqueID(),
	).Scan(&payload)
	if err != nil {
		return nil, steperrors.WrapCache("read", s.UniqueID(), err)
	}

	var value any
	if err := formatted.Format().Read(bytes.NewReader(payload), &value); err != nil {
		return nil, steperrors.WrapCache("read", s.UniqueID(), err)
	}
	return value, nil
}

func (c *Cache) Write(s cache.Entry, value any) error {
	formatted, ok := s.(cache.Formatted)
	if !ok {
		return steperrors.WrapCache("write", s.UniqueID(),
			errors.New("pgcache requires a cache.Formatted entry"))
	}
	value = cache.DrainLazy(value)

	var buf bytes.Buffer
	if err := formatted.Format().Write(&buf, value); err != nil {
		return steperrors.WrapCache("write", s.UniqueID(), err)
	}

	_, err := c.pool.Exec(context.Background(),
		`INSERT INTO stepforge_results (unique_id, payload) VALUES ($1, $2)
		 ON CONFLICT (unique_id) DO UPDATE SET payload = EXCLUDED.payload, created_at = now()`,
		s.UniqueID(), buf.Bytes(),
	)
	if err != nil {
		return steperrors.WrapCache("write", s.UniqueID(), err)
	}
	return nil
}

func (c *Cache) StepDir(s cache.Entry) (string, bool) {
	return filepath.Join(c.workRoot, s.UniqueID()), true
}
