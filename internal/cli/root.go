package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/csvspectre/internal/analyzer"
	"github.com/ppiankov/csvspectre/internal/baseline"
	"github.com/ppiankov/csvspectre/internal/config"
	"github.com/ppiankov/csvspectre/internal/logging"
	"github.com/ppiankov/csvspectre/internal/reporter"
	"github.com/ppiankov/csvspectre/internal/suppress"

	// Store backends register themselves with internal/store.
	_ "github.com/ppiankov/csvspectre/internal/store/postgres"
	_ "github.com/ppiankov/csvspectre/internal/store/sqlite"
)

var (
	dbURL     string
	verbose   bool
	logFormat string
	cfg       config.Config
)

// BuildInfo carries values stamped in by the linker.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// ExitError asks main to exit with Code without printing anything further.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

func newRootCmd(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           "csvspectre",
		Short:         "CSV data-quality auditor and SQL dump extractor",
		Long:          "Audits folders of CSV files for missing values, outliers and placeholder values, and turns INSERT INTO statements into per-table CSV files or database tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Init(verbose, logFormat, cmd.ErrOrStderr()); err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				cwd = "."
			}
			cfg, err = config.Load(cwd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			slog.Debug("config loaded", "path", cwd, "found", config.Exists(cwd))

			// --db-url wins over CSVSPECTRE_DB_URL and the config file
			if dbURL != "" {
				cfg.Store.DSN = dbURL
				cfg.Store.Backend = "postgres"
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dbURL, "db-url", "", "PostgreSQL URL for storing extracted tables (or set CSVSPECTRE_DB_URL)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newVersionCmd(info))
	root.AddCommand(newAnalyzeCmd(info))
	root.AddCommand(newExtractCmd(info))
	root.AddCommand(newMergeCmd())

	return root
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "csvspectre %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
			return err
		},
	}
}

// formatFlag resolves --format, falling back to the config default when the
// flag was not set explicitly.
func formatFlag(cmd *cobra.Command, value string) (reporter.Format, error) {
	if !cmd.Flags().Changed("format") && cfg.Defaults.Format != "" {
		value = cfg.Defaults.Format
	}
	return reporter.ParseFormat(value)
}

// filterFindings applies baseline and suppression rules to findings.
func filterFindings(findings []analyzer.Finding, baselinePath string) ([]analyzer.Finding, int, error) {
	totalSuppressed := 0

	// Apply baseline filtering
	if baselinePath != "" {
		bl, err := baseline.Load(baselinePath)
		if err != nil {
			return nil, 0, fmt.Errorf("load baseline: %w", err)
		}
		if resolved := bl.Resolved(findings); len(resolved) > 0 {
			slog.Info("baseline entries resolved", "count", len(resolved))
		}
		var n int
		findings, n = bl.Filter(findings)
		totalSuppressed += n
		slog.Debug("baseline applied", "path", baselinePath, "entries", bl.Len(), "suppressed", n)
	}

	// Apply suppress rules (.csvspectre-ignore.yml + config exclude)
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	rules, err := suppress.LoadRules(cwd)
	if err != nil {
		return nil, 0, fmt.Errorf("load suppress rules: %w", err)
	}
	rules.WithConfigFindings(cfg.Exclude.Findings)
	rules.WithConfigColumns(cfg.Exclude.Columns)

	var n int
	findings, n = rules.Filter(findings)
	totalSuppressed += n

	return findings, totalSuppressed, nil
}

// shouldFailOn returns true if any finding matches the fail-on criteria.
// Criteria can be finding types (LOAD_FAILURE) or severity levels (high, medium).
func shouldFailOn(findings []analyzer.Finding, failOn string) bool {
	parts := strings.Split(failOn, ",")
	types := make(map[string]bool)
	severities := make(map[string]bool)

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lower := strings.ToLower(p)
		switch lower {
		case "high", "medium", "low", "info":
			severities[lower] = true
		default:
			types[strings.ToUpper(p)] = true
		}
	}

	for _, f := range findings {
		if types[string(f.Type)] {
			return true
		}
		if severities[string(f.Severity)] {
			return true
		}
	}
	return false
}

var severityRank = map[string]int{"info": 0, "low": 1, "medium": 2, "high": 3}

// filterBySeverity keeps findings at or above min. An unknown level keeps all.
func filterBySeverity(findings []analyzer.Finding, min string) []analyzer.Finding {
	threshold, ok := severityRank[strings.ToLower(min)]
	if !ok {
		return findings
	}
	var out []analyzer.Finding
	for _, f := range findings {
		if severityRank[string(f.Severity)] >= threshold {
			out = append(out, f)
		}
	}
	return out
}

// filterByType keeps findings whose type is in the comma-separated list.
func filterByType(findings []analyzer.Finding, types string) []analyzer.Finding {
	want := make(map[string]bool)
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			want[strings.ToUpper(t)] = true
		}
	}
	if len(want) == 0 {
		return findings
	}
	var out []analyzer.Finding
	for _, f := range findings {
		if want[string(f.Type)] {
			out = append(out, f)
		}
	}
	return out
}

// applyReportFilters narrows what is reported; both filters are optional.
func applyReportFilters(findings []analyzer.Finding, minSeverity, types string) []analyzer.Finding {
	if minSeverity != "" {
		findings = filterBySeverity(findings, minSeverity)
	}
	if types != "" {
		findings = filterByType(findings, types)
	}
	return findings
}

// Execute runs the root command.
func Execute(version, commit, date string) error {
	return newRootCmd(BuildInfo{Version: version, Commit: commit, Date: date}).Execute()
}
