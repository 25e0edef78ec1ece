package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ppiankov/csvspectre/internal/analyzer"
	"github.com/ppiankov/csvspectre/internal/baseline"
	"github.com/ppiankov/csvspectre/internal/dataset"
	"github.com/ppiankov/csvspectre/internal/reporter"
)

func newAnalyzeCmd(info BuildInfo) *cobra.Command {
	var (
		format         string
		failOn         string
		baselinePath   string
		updateBaseline string
		minSeverity    string
		types          string
		exclude        []string
	)

	cmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Report missing values, outliers and suspicious values in every CSV file of a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			outFormat, err := formatFlag(cmd, format)
			if err != nil {
				return err
			}
			loadOpts, err := cfg.LoadOptions()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			opts, err := cfg.AnalyzerOptions()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			paths, err := dataset.Discover(dir, slices.Concat(cfg.Exclude.Files, exclude))
			if err != nil {
				return fmt.Errorf("discover: %w", err)
			}
			slog.Debug("csv files discovered", "dir", dir, "files", len(paths))

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.TimeoutDuration())
			defer cancel()

			results := analyzer.AnalyzeFiles(ctx, paths, loadOpts, opts)
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			findings := analyzer.Findings(results)

			// Save baseline before filtering
			if updateBaseline != "" {
				if err := baseline.Save(updateBaseline, findings); err != nil {
					return fmt.Errorf("save baseline: %w", err)
				}
				slog.Info("baseline saved", "path", updateBaseline, "findings", len(findings))
			}

			// Apply baseline + suppress filters
			findings, totalSuppressed, err := filterFindings(findings, baselinePath)
			if err != nil {
				return err
			}
			findings = applyReportFilters(findings, minSeverity, types)

			report := reporter.NewReport(reporter.Metadata{
				Version: info.Version,
				Command: "analyze",
				Target:  dir,
			}, results, findings)
			if totalSuppressed > 0 {
				slog.Info("findings filtered", "total", report.Summary.Total+totalSuppressed, "suppressed", totalSuppressed)
			}

			if err := reporter.Write(cmd.OutOrStdout(), &report, outFormat); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			if failOn != "" && shouldFailOn(findings, failOn) {
				return &ExitError{Code: 2}
			}

			if code := analyzer.ExitCode(report.MaxSeverity); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, sarif, or spectrehub")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "exit 2 if findings match (comma-separated types or severity: high,medium)")
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "path to baseline file (suppress known findings)")
	cmd.Flags().StringVar(&updateBaseline, "update-baseline", "", "save current findings as new baseline")
	cmd.Flags().StringVar(&minSeverity, "min-severity", "", "only report findings at or above this severity")
	cmd.Flags().StringVar(&types, "type", "", "only report these finding types (comma-separated)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "skip files matching these globs")

	return cmd
}
