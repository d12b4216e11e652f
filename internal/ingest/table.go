package ingest

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrMalformedHeader means the header row is missing, lacks the marker
	// column, or has the wrong number of columns.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrDuplicateField means one (database, table, field) identity is listed twice.
	ErrDuplicateField = errors.New("duplicated field detected")
	// ErrUnsupportedFormat means the input format cannot be read from the given source.
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// Defaults for the classification sheet layout.
const (
	DefaultMarker      = "数据库名称"
	DefaultSheet       = "Sheet 1"
	DefaultSQLiteTable = "classification"
)

// Table is a header row plus data rows, read whole into memory.
type Table struct {
	Header []string
	Rows   [][]string
}

// Format identifies a tabular encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatCSV
	FormatSQLite
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatCSV:
		return "csv"
	case FormatSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// FormatFor picks a format from a file extension.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatUnknown
	}
}

var (
	zipMagic    = []byte("PK\x03\x04")
	sqliteMagic = []byte("SQLite format 3\x00")
)

// Sniff picks a format from leading bytes. Anything that is neither a zip
// container nor a SQLite database is treated as CSV.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, sqliteMagic):
		return FormatSQLite
	default:
		return FormatCSV
	}
}
