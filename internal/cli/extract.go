package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/csvspectre/internal/export"
	"github.com/ppiankov/csvspectre/internal/reporter"
	"github.com/ppiankov/csvspectre/internal/sqldump"
	"github.com/ppiankov/csvspectre/internal/store"
)

func newExtractCmd(info BuildInfo) *cobra.Command {
	var (
		format    string
		outputDir string
		saveSQL   bool
		backend   string
		dsn       string
		schema    string
	)

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Turn INSERT INTO statements into per-table CSV files (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := formatFlag(cmd, format)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("output-dir") && cfg.Defaults.OutputDir != "" {
				outputDir = cfg.Defaults.OutputDir
			}

			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			raw, err := readInput(cmd.InOrStdin(), source)
			if err != nil {
				return err
			}
			text := sqldump.StripFences(raw)

			var sqlFile string
			if saveSQL {
				if sqlFile, err = export.SaveSQL(outputDir, text); err != nil {
					return err
				}
			}

			res := sqldump.Extract(text)
			meta := reporter.Metadata{Version: info.Version, Command: "extract", Target: source}
			if res.Empty() {
				rep := reporter.NewExtractReport(meta, res, nil)
				rep.SQLFile = sqlFile
				return reporter.WriteExtract(cmd.OutOrStdout(), &rep, outFormat)
			}
			for _, t := range res.Tables {
				if t.Dropped > 0 {
					slog.Warn("malformed rows dropped", "table", t.Name, "dropped", t.Dropped)
				}
			}

			files, err := export.WriteTables(outputDir, res)
			if err != nil {
				return err
			}
			rep := reporter.NewExtractReport(meta, res, files)
			rep.SQLFile = sqlFile

			storeCfg := storeConfig(backend, dsn, schema, cmd)
			if storeCfg.Backend != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), cfg.TimeoutDuration())
				defer cancel()
				if err := storeTables(ctx, storeCfg, res, &rep); err != nil {
					return err
				}
			}

			return reporter.WriteExtract(cmd.OutOrStdout(), &rep, outFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "directory for <table>_data.csv files (or set CSVSPECTRE_OUTPUT_DIR)")
	cmd.Flags().BoolVar(&saveSQL, "save-sql", false, "also save the SQL text to "+export.SQLFileName)
	cmd.Flags().StringVar(&backend, "store", "", "also load tables into a database backend: postgres or sqlite")
	cmd.Flags().StringVar(&dsn, "store-dsn", "", "connection string or file path for --store")
	cmd.Flags().StringVar(&schema, "schema", "", "target schema for the postgres backend")

	return cmd
}

// storeConfig merges store flags over the config file and --db-url.
func storeConfig(backend, dsn, schema string, cmd *cobra.Command) store.Config {
	sc := store.Config{Backend: cfg.Store.Backend, DSN: cfg.Store.DSN, Schema: cfg.Store.Schema}
	if cmd.Flags().Changed("store") {
		sc.Backend = backend
	}
	if cmd.Flags().Changed("store-dsn") {
		sc.DSN = dsn
	}
	if cmd.Flags().Changed("schema") {
		sc.Schema = schema
	}
	return sc
}

func storeTables(ctx context.Context, sc store.Config, res sqldump.Result, rep *reporter.ExtractReport) error {
	if sc.DSN == "" {
		return fmt.Errorf("--store %s needs --store-dsn (or --db-url)", sc.Backend)
	}
	sink, err := store.Open(ctx, sc)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer sink.Close()

	for i, t := range res.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := sink.WriteTable(ctx, store.Table{Name: t.Key(), Columns: t.Columns, Rows: t.Rows})
		if err != nil {
			return fmt.Errorf("store table %s: %w", t.Name, err)
		}
		rep.Tables[i].Stored = n
	}
	slog.Info("tables stored", "backend", sc.Backend, "tables", len(res.Tables))
	return nil
}

func readInput(stdin io.Reader, source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}
