// Package sqlite persists coverings to a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/model"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS coverings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		precision INTEGER NOT NULL,
		mode TEXT NOT NULL,
		geohash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source, precision, mode, geohash)
	);
	CREATE INDEX IF NOT EXISTS idx_coverings_geohash ON coverings(geohash);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func mode(inner bool) string {
	if inner {
		return "inner"
	}
	return "outer"
}

// Save replaces the stored covering of source at precision and mode with
// cells and returns the number of rows written.
func (s *Store) Save(ctx context.Context, source string, precision int, inner bool, cells model.Cells) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM coverings WHERE source = ? AND precision = ? AND mode = ?`,
		source, precision, mode(inner)); err != nil {
		return 0, fmt.Errorf("clearing previous covering: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO coverings (source, precision, mode, geohash) VALUES (?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range cells {
		res, err := stmt.ExecContext(ctx, source, precision, mode(inner), c)
		if err != nil {
			return 0, fmt.Errorf("inserting %q: %w", c, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}
	return inserted, nil
}

// Load returns the stored covering, sorted.
func (s *Store) Load(ctx context.Context, source string, precision int, inner bool) (model.Cells, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT geohash FROM coverings WHERE source = ? AND precision = ? AND mode = ? ORDER BY geohash`,
		source, precision, mode(inner))
	if err != nil {
		return nil, fmt.Errorf("querying covering: %w", err)
	}
	defer rows.Close()

	cells := model.Cells{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning geohash: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// Sources lists the sources that cover geohash at its own precision.
func (s *Store) Sources(ctx context.Context, geohash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source FROM coverings WHERE geohash = ? ORDER BY source`, geohash)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM coverings").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
