package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"github.com/agentic-research/clsprobe/internal/classtree"
)

// Options controls how tables are located inside an input.
type Options struct {
	Sheet       string // xlsx sheet name; empty selects the first sheet
	Marker      string // header label of the database column
	SQLiteTable string // table read from SQLite inputs
}

// DefaultOptions matches the layout of the classification workbooks.
func DefaultOptions() Options {
	return Options{
		Sheet:       DefaultSheet,
		Marker:      DefaultMarker,
		SQLiteTable: DefaultSQLiteTable,
	}
}

// Loader reads classification tables from a filesystem and builds trees.
type Loader struct {
	fs   billy.Filesystem
	opts Options
	log  *zap.Logger
}

func NewLoader(fs billy.Filesystem, opts Options, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.SQLiteTable == "" {
		opts.SQLiteTable = DefaultSQLiteTable
	}
	return &Loader{fs: fs, opts: opts, log: log}
}

// ReadFile returns the raw bytes of name.
func (l *Loader) ReadFile(name string) ([]byte, error) {
	return util.ReadFile(l.fs, name)
}

// ReadTable reads name in the format implied by its extension.
func (l *Loader) ReadTable(name string) (*Table, error) {
	format := FormatFor(name)
	if format == FormatSQLite {
		// The SQLite driver needs a real path, not a billy file.
		path := filepath.Join(l.fs.Root(), name)
		return ReadSQLite(path, l.opts.SQLiteTable)
	}

	data, err := l.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if format == FormatUnknown {
		format = Sniff(data)
	}
	return l.parse(name, data, format)
}

// Load reads name and builds its classification tree.
func (l *Loader) Load(name string) (*classtree.Tree, error) {
	t, err := l.ReadTable(name)
	if err != nil {
		return nil, err
	}
	return l.build(name, t)
}

// LoadBytes builds a tree from an in-memory table, e.g. a decrypted
// reference file. The format is sniffed from the content.
func (l *Loader) LoadBytes(name string, data []byte) (*classtree.Tree, error) {
	t, err := l.parse(name, data, Sniff(data))
	if err != nil {
		return nil, err
	}
	return l.build(name, t)
}

func (l *Loader) parse(name string, data []byte, format Format) (*Table, error) {
	l.log.Debug("reading table", zap.String("input", name), zap.Stringer("format", format))
	switch format {
	case FormatXLSX:
		return ReadXLSX(bytes.NewReader(data), l.opts.Sheet)
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s from %s", ErrUnsupportedFormat, format, name)
	}
}

func (l *Loader) build(name string, t *Table) (*classtree.Tree, error) {
	tree, err := BuildTree(t, l.opts.Marker, l.log.With(zap.String("input", name)))
	if err != nil {
		return nil, fmt.Errorf("read classification result %s: %w", name, err)
	}
	return tree, nil
}
