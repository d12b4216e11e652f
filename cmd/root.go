package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentic-research/clsprobe/internal/config"
	"github.com/agentic-research/clsprobe/internal/ingest"
)

var (
	configPath string
	verbose    bool

	referencePath string
	sheetName     string
	markerLabel   string
	matcherName   string
	workers       int

	// set by PersistentPreRunE
	logger *zap.Logger
	cfg    config.Config
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to an HCL config file (default ./"+config.DefaultFile+" if present)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVarP(&referencePath, "reference", "r", "", "Path to the encrypted reference file")
	pf.StringVar(&sheetName, "sheet", "", "Workbook sheet holding the classification table")
	pf.StringVar(&markerLabel, "marker", "", "Header label of the database column")
	pf.StringVarP(&matcherName, "matcher", "m", "", "Diff strategy: presence or path")
	pf.IntVarP(&workers, "workers", "w", 0, "Candidates scored concurrently")
}

var rootCmd = &cobra.Command{
	Use:   "clsprobe",
	Short: "Score data classification results against a sealed reference",
	Long: `clsprobe compares a candidate data classification result (a table of
classification levels followed by database, table and field) with an
encrypted reference classification and reports the accuracy overall and per
top-level category.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, required := configPath, true
		if path == "" {
			path, required = config.DefaultFile, false
		}
		var err error
		cfg, err = config.Load(path, required)
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = newLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// applyFlags lets explicitly set flags win over file and environment.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("reference") {
		cfg.Reference = referencePath
	}
	if flags.Changed("sheet") {
		cfg.Sheet = sheetName
	}
	if flags.Changed("marker") {
		cfg.Marker = markerLabel
	}
	if flags.Changed("matcher") {
		cfg.Matcher = matcherName
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

// hostFS exposes the host filesystem. Inputs are addressed by absolute path.
func hostFS() billy.Filesystem {
	return osfs.New(string(filepath.Separator))
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}

func newLoader(fs billy.Filesystem) *ingest.Loader {
	return ingest.NewLoader(fs, cfg.IngestOptions(), logger)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
