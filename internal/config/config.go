package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/clsprobe/internal/codec"
	"github.com/agentic-research/clsprobe/internal/diff"
	"github.com/agentic-research/clsprobe/internal/ingest"
)

// ErrInvalid marks a configuration value that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// DefaultFile is read when present and no --config flag is given.
const DefaultFile = "clsprobe.hcl"

// Config holds all clsprobe settings.
type Config struct {
	// Reference is the sealed reference file.
	Reference string `hcl:"reference,optional"`
	// Sheet is the workbook sheet holding the classification table.
	Sheet string `hcl:"sheet,optional"`
	// Marker is the header label of the database column.
	Marker string `hcl:"marker,optional"`
	// SQLiteTable is the table read from SQLite inputs.
	SQLiteTable string `hcl:"sqlite_table,optional"`
	// Matcher selects the diff strategy ("presence" or "path").
	Matcher string `hcl:"matcher,optional"`
	// KeyHex replaces the embedded reference key when set.
	KeyHex string `hcl:"key_hex,optional"`
	// Workers bounds concurrent candidate scoring.
	Workers int `hcl:"workers,optional"`
	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `hcl:"log_level,optional"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Reference:   codec.DefaultReferencePath,
		Sheet:       ingest.DefaultSheet,
		Marker:      ingest.DefaultMarker,
		SQLiteTable: ingest.DefaultSQLiteTable,
		Matcher:     diff.MatcherPresence,
		Workers:     4,
		LogLevel:    "info",
	}
}

// Load builds the configuration: defaults, then the HCL file at path (if
// any), then CLSPROBE_* environment variables. A missing file is only an
// error when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path != "" {
		src, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := Parse(path, src, &cfg); err != nil {
				return cfg, err
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// Parse decodes HCL (or JSON, by file extension) source over cfg. Attributes
// absent from the source keep their current values.
func Parse(filename string, src []byte, cfg *Config) error {
	var file Config
	if err := hclsimple.Decode(filename, src, nil, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", filename, err)
	}
	merge(cfg, file)
	return nil
}

func merge(dst *Config, src Config) {
	setString(&dst.Reference, src.Reference)
	setString(&dst.Sheet, src.Sheet)
	setString(&dst.Marker, src.Marker)
	setString(&dst.SQLiteTable, src.SQLiteTable)
	setString(&dst.Matcher, src.Matcher)
	setString(&dst.KeyHex, src.KeyHex)
	setString(&dst.LogLevel, src.LogLevel)
	if src.Workers != 0 {
		dst.Workers = src.Workers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Reference, os.Getenv("CLSPROBE_REFERENCE"))
	setString(&cfg.Sheet, os.Getenv("CLSPROBE_SHEET"))
	setString(&cfg.Marker, os.Getenv("CLSPROBE_MARKER"))
	setString(&cfg.Matcher, os.Getenv("CLSPROBE_MATCHER"))
	setString(&cfg.KeyHex, os.Getenv("CLSPROBE_KEY_HEX"))
	setString(&cfg.LogLevel, os.Getenv("CLSPROBE_LOG_LEVEL"))
	if v := os.Getenv("CLSPROBE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := diff.Select(c.Matcher); err != nil {
		return fmt.Errorf("%w: matcher: %v", ErrInvalid, err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.Marker == "" {
		return fmt.Errorf("%w: marker must not be empty", ErrInvalid)
	}
	if c.KeyHex != "" {
		if _, err := codec.FromHex(c.KeyHex); err != nil {
			return fmt.Errorf("%w: key_hex: %v", ErrInvalid, err)
		}
	}
	return nil
}

// Codec returns the reference codec for this configuration.
func (c Config) Codec() (*codec.Codec, error) {
	if c.KeyHex == "" {
		return codec.Default(), nil
	}
	return codec.FromHex(c.KeyHex)
}

// IngestOptions returns the table layout settings.
func (c Config) IngestOptions() ingest.Options {
	return ingest.Options{
		Sheet:       c.Sheet,
		Marker:      c.Marker,
		SQLiteTable: c.SQLiteTable,
	}
}
