// Package export persists scoring runs to a SQLite database.
package export

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/clsprobe/internal/score"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	candidate TEXT NOT NULL,
	matcher TEXT NOT NULL,
	created INTEGER NOT NULL,
	matched INTEGER NOT NULL,
	total INTEGER NOT NULL,
	accuracy REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS category_scores (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	category TEXT NOT NULL,
	matched INTEGER NOT NULL,
	total INTEGER NOT NULL,
	accuracy REAL NOT NULL,
	PRIMARY KEY (run_id, position)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS diff_units (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	category TEXT NOT NULL,
	field TEXT NOT NULL,
	matched INTEGER NOT NULL,
	path JSON NOT NULL,
	PRIMARY KEY (run_id, position)
) WITHOUT ROWID;
`

// Writer appends scoring runs to a SQLite file. Each run is written in its
// own transaction.
type Writer struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewWriter opens (or creates) the database at dbPath and ensures the schema.
func NewWriter(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// a single connection serializes writers on the file
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Writer{db: db, now: time.Now}, nil
}

// WriteRun stores one scored candidate and returns the generated run id.
func (w *Writer) WriteRun(candidate, matcher string, rep *score.Report) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runID := uuid.NewString()
	tx, err := w.db.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, candidate, matcher, created, matched, total, accuracy) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, candidate, matcher, w.now().UnixNano(),
		rep.Overall.Matched, rep.Overall.Total, rep.Overall.Percent(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmtCat, err := tx.Prepare(`
		INSERT INTO category_scores (run_id, position, category, matched, total, accuracy)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer func() { _ = stmtCat.Close() }()
	for i, c := range rep.Categories {
		if _, err := stmtCat.Exec(runID, i, c.Name, c.Matched, c.Total, c.Percent()); err != nil {
			return "", fmt.Errorf("insert category %q: %w", c.Name, err)
		}
	}

	stmtUnit, err := tx.Prepare(`
		INSERT INTO diff_units (run_id, position, category, field, matched, path)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer func() { _ = stmtUnit.Close() }()
	for i, u := range rep.Units {
		path := make([]any, len(u.Path))
		for j, p := range u.Path {
			path[j] = p
		}
		matched := 0
		if u.Matched {
			matched = 1
		}
		if _, err := stmtUnit.Exec(runID, i, u.Category(), u.Field, matched, oj.JSON(path)); err != nil {
			return "", fmt.Errorf("insert unit %s: %w", u.Field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// Close releases the database.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.db.Close()
}
