package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/csvspectre/internal/dataset"
	"github.com/ppiankov/csvspectre/internal/export"
)

func newMergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge [dir]",
		Short: "Join every CSV file of a folder side by side into " + dataset.MergedFileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if output == "" {
				output = filepath.Join(dir, dataset.MergedFileName)
			}

			loadOpts, err := cfg.LoadOptions()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			paths, err := dataset.Discover(dir, cfg.Exclude.Files)
			if err != nil {
				return fmt.Errorf("discover: %w", err)
			}

			var sets []*dataset.Dataset
			for _, p := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				ds, err := dataset.Load(p, loadOpts)
				if err != nil {
					slog.Warn("skipping file", "path", p, "error", err)
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error loading %s: %v\n", filepath.Base(p), err)
					continue
				}
				sets = append(sets, ds)
			}

			out := cmd.OutOrStdout()
			if len(sets) == 0 {
				_, err := fmt.Fprintln(out, "No CSV files found or data could not be loaded.")
				return err
			}

			merged, err := dataset.Merge(dataset.MergedFileName, sets)
			if err != nil {
				return err
			}
			if err := export.WriteDataset(output, merged); err != nil {
				return err
			}

			ds := merged.Table()
			_, err = fmt.Fprintf(out, "Merged %d files into %s: %d rows, %d columns\n",
				len(merged.Sources), output, ds.RowCount(), ds.ColumnCount())
			return err
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "output path (default <dir>/"+dataset.MergedFileName+")")

	return cmd
}
