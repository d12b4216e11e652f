package ingest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agentic-research/clsprobe/internal/classtree"
)

// LevelCount returns the number of classification columns: the index of the
// marker column that starts the (database, table, field) triple.
func LevelCount(header []string, marker string) (int, error) {
	levels := -1
	for i, h := range header {
		if strings.TrimSpace(h) == marker {
			levels = i
			break
		}
	}
	switch {
	case levels < 0:
		return 0, fmt.Errorf("%w: marker column %q not found", ErrMalformedHeader, marker)
	case levels == 0:
		return 0, fmt.Errorf("%w: the number of classification levels cannot be 0", ErrMalformedHeader)
	case len(header) != levels+3:
		return 0, fmt.Errorf("%w: header has %d columns, want %d", ErrMalformedHeader, len(header), levels+3)
	}
	return levels, nil
}

// BuildTree turns table rows into a classification tree.
//
// Rows are consumed until one has a different column count than the header;
// rows with a blank first cell are skipped. A field identity seen twice fails
// with ErrDuplicateField before the second row reaches the tree.
func BuildTree(t *Table, marker string, log *zap.Logger) (*classtree.Tree, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if t == nil || len(t.Header) == 0 {
		return nil, fmt.Errorf("%w: failed to retrieve the header", ErrMalformedHeader)
	}
	levels, err := LevelCount(t.Header, marker)
	if err != nil {
		return nil, err
	}

	width := levels + 3
	tree := classtree.New()
	seen := make(map[classtree.FieldIdentity]int, len(t.Rows))
	inserted := 0
	for i, row := range t.Rows {
		line := i + 2 // header is line 1
		if len(row) != width {
			log.Debug("stopping at row with unexpected width",
				zap.Int("line", line), zap.Int("columns", len(row)), zap.Int("want", width))
			break
		}
		if strings.TrimSpace(row[0]) == "" {
			continue
		}

		field := classtree.FieldIdentity{
			Database: row[levels],
			Table:    row[levels+1],
			Field:    row[levels+2],
		}
		if prev, dup := seen[field]; dup {
			return nil, fmt.Errorf("%w: %s on lines %d and %d", ErrDuplicateField, field, prev, line)
		}
		seen[field] = line

		if err := tree.Insert(row[:levels], field); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		inserted++
	}

	log.Debug("built classification tree",
		zap.Int("levels", levels), zap.Int("rows", len(t.Rows)), zap.Int("fields", inserted))
	return tree, nil
}
