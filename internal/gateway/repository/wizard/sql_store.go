package wizard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"annotator/internal/annotate/projector"
)

type dialect struct {
	driver string
	// bind renders the n-th (1-based) placeholder.
	bind func(n int) string
}

var (
	postgresDialect = dialect{driver: "pgx", bind: func(n int) string { return fmt.Sprintf("$%d", n) }}
	sqliteDialect   = dialect{driver: "sqlite", bind: func(int) string { return "?" }}
)

// SQLStore persists configs in a wizard_configs table. It runs on postgres
// (pgx) or an embedded sqlite file and keeps recently read rows in an LRU.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	cache *lru.Cache[string, []byte]
}

func NewPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	return openSQL(ctx, postgresDialect, strings.TrimSpace(dsn), 0)
}

// NewSQLite opens path with modernc's pure-Go driver. ":memory:" works for
// tests but is per-connection, so the pool is pinned to one connection.
func NewSQLite(ctx context.Context, path string) (*SQLStore, error) {
	return openSQL(ctx, sqliteDialect, strings.TrimSpace(path), 1)
}

// openSQL connects and creates the table before returning, so request
// contexts never carry schema setup.
func openSQL(ctx context.Context, d dialect, dsn string, maxConns int) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn is required", d.driver)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	setupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(setupCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if err := ensureSchema(setupCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("wizard schema: %w", err)
	}
	cache, err := lru.New[string, []byte](512)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, dialect: d, cache: cache}, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS wizard_configs (
  draft_id TEXT PRIMARY KEY,
  config TEXT NOT NULL,
  updated_at BIGINT NOT NULL
)`)
	return err
}

func (s *SQLStore) Get(ctx context.Context, draftID string) (projector.Config, error) {
	id, err := normalizeID(draftID)
	if err != nil {
		return nil, err
	}
	if raw, ok := s.cache.Get(id); ok {
		return decode(raw)
	}
	var raw string
	q := `SELECT config FROM wizard_configs WHERE draft_id = ` + s.dialect.bind(1)
	err = s.db.QueryRowContext(ctx, q, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select wizard config: %w", err)
	}
	s.cache.Add(id, []byte(raw))
	return decode([]byte(raw))
}

func (s *SQLStore) Put(ctx context.Context, draftID string, cfg projector.Config) error {
	id, err := normalizeID(draftID)
	if err != nil {
		return err
	}
	raw, err := encode(cfg)
	if err != nil {
		return err
	}
	b := s.dialect.bind
	q := fmt.Sprintf(`
INSERT INTO wizard_configs (draft_id, config, updated_at)
VALUES (%s, %s, %s)
ON CONFLICT (draft_id)
DO UPDATE SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`, b(1), b(2), b(3))
	if _, err := s.db.ExecContext(ctx, q, id, string(raw), time.Now().UnixMilli()); err != nil {
		s.cache.Remove(id)
		return fmt.Errorf("upsert wizard config: %w", err)
	}
	s.cache.Add(id, raw)
	return nil
}
