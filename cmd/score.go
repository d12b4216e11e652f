package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/clsprobe/internal/export"
	"github.com/agentic-research/clsprobe/internal/score"
	"github.com/agentic-research/clsprobe/internal/service"
)

var (
	jsonOut    bool
	withUnits  bool
	selectExpr string
	exportPath string
)

var scoreCmd = &cobra.Command{
	Use:   "score [candidate...]",
	Short: "Score one or more classification results against the reference",
	Long: `Scores each candidate (xlsx, csv or SQLite) against the encrypted
reference file and prints the overall accuracy followed by one line per
top-level category.

Example:
  clsprobe score result.xlsx
  clsprobe score --json --units result.xlsx
  clsprobe score --select '$.units[?(@.matched == false)].field' result.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	scoreCmd.Flags().BoolVar(&withUnits, "units", false, "Include every diff unit in the JSON report")
	scoreCmd.Flags().StringVar(&selectExpr, "select", "", "JSONPath expression applied to the JSON report")
	scoreCmd.Flags().StringVar(&exportPath, "export", "", "Append the runs to this SQLite database")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	fs := hostFS()
	loader := newLoader(fs)
	c, err := cfg.Codec()
	if err != nil {
		return err
	}
	ref, err := absPath(cfg.Reference)
	if err != nil {
		return err
	}
	reference, err := service.LoadReference(fs, c, loader, ref)
	if err != nil {
		return err
	}
	logger.Debug("reference loaded", zap.String("path", ref), zap.Int("fields", reference.Len()))

	scorer, err := service.NewScorer(reference, cfg.Matcher, loader,
		service.WithWorkers(cfg.Workers), service.WithLogger(logger))
	if err != nil {
		return err
	}

	names := make([]string, len(args))
	for i, a := range args {
		if names[i], err = absPath(a); err != nil {
			return err
		}
	}
	outs, err := scorer.ScoreAll(cmd.Context(), names)
	if err != nil {
		return err
	}

	if exportPath != "" {
		if err := exportRuns(args, scorer.Matcher(), outs); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if jsonOut || selectExpr != "" {
		docs := make([]any, len(outs))
		for i, o := range outs {
			docs[i] = o.Report.API(args[i], scorer.Matcher(), withUnits || selectExpr != "").Generic()
		}
		var doc any = docs
		if len(docs) == 1 {
			doc = docs[0]
		}
		if selectExpr != "" {
			res, err := score.Select(doc, selectExpr)
			if err != nil {
				return err
			}
			return score.WriteJSON(w, res, 2)
		}
		return score.WriteJSON(w, doc, 2)
	}

	for i, o := range outs {
		if len(outs) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", args[i])
		}
		if err := o.Report.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}

func exportRuns(candidates []string, matcher string, outs []service.Outcome) error {
	path, err := absPath(exportPath)
	if err != nil {
		return err
	}
	writer, err := export.NewWriter(path)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	for i, o := range outs {
		runID, err := writer.WriteRun(candidates[i], matcher, o.Report)
		if err != nil {
			return fmt.Errorf("export %s: %w", candidates[i], err)
		}
		logger.Info("run exported", zap.String("candidate", candidates[i]), zap.String("run_id", runID))
	}
	return writer.Close()
}
