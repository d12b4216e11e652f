package export

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/clsprobe/internal/diff"
	"github.com/agentic-research/clsprobe/internal/score"
)

func report(t *testing.T) *score.Report {
	t.Helper()
	rep, err := score.Aggregate(diff.Result{
		{Path: []string{"A", "B"}, Field: "db1-t1-f1", Matched: true},
		{Path: []string{"A", "C"}, Field: "db1-t1-f2"},
		{Field: "db1-t1-f3", Matched: true},
	})
	require.NoError(t, err)
	return rep
}

func TestWriteRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	w, err := NewWriter(dbPath)
	require.NoError(t, err)
	fixed := time.Unix(1700000000, 0)
	w.now = func() time.Time { return fixed }

	runID, err := w.WriteRun("cand.xlsx", diff.MatcherPresence, report(t))
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err)

	second, err := w.WriteRun("other.xlsx", diff.MatcherPath, report(t))
	require.NoError(t, err)
	assert.NotEqual(t, runID, second)
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }() // safe to ignore

	var (
		candidate, matcher string
		created            int64
		matched, total     int
		accuracy           float64
	)
	err = db.QueryRow(`SELECT candidate, matcher, created, matched, total, accuracy FROM runs WHERE run_id = ?`, runID).
		Scan(&candidate, &matcher, &created, &matched, &total, &accuracy)
	require.NoError(t, err)
	assert.Equal(t, "cand.xlsx", candidate)
	assert.Equal(t, "presence", matcher)
	assert.Equal(t, fixed.UnixNano(), created)
	assert.Equal(t, 2, matched)
	assert.Equal(t, 3, total)
	assert.InDelta(t, 66.67, accuracy, 0.001)

	rows, err := db.Query(`SELECT category, matched, total FROM category_scores WHERE run_id = ? ORDER BY position`, runID)
	require.NoError(t, err)
	var cats []string
	for rows.Next() {
		var name string
		var m, n int
		require.NoError(t, rows.Scan(&name, &m, &n))
		cats = append(cats, name)
	}
	require.NoError(t, rows.Err())
	_ = rows.Close()
	assert.Equal(t, []string{"A", ""}, cats)

	var path string
	var unitMatched int
	err = db.QueryRow(`SELECT path, matched FROM diff_units WHERE run_id = ? AND position = 0`, runID).Scan(&path, &unitMatched)
	require.NoError(t, err)
	assert.Equal(t, 1, unitMatched)
	parsed, err := oj.ParseString(path)
	require.NoError(t, err)
	assert.Equal(t, []any{"A", "B"}, parsed)

	var units int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM diff_units`).Scan(&units))
	assert.Equal(t, 6, units)
}

func TestNewWriter_BadPath(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "missing", "dir", "runs.db"))
	require.Error(t, err)
}
