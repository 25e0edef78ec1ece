package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ppiankov/csvspectre/internal/dataset"
)

// FileResult is the outcome for one file of a batch. Exactly one of Report
// and Error is set.
type FileResult struct {
	File   string         `json:"file_name"`
	Path   string         `json:"path,omitempty"`
	Report *QualityReport `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Failed reports whether the file could not be loaded or analyzed.
func (fr *FileResult) Failed() bool { return fr.Error != "" }

// AnalyzeFiles loads and analyzes each path in turn. A failing file is
// recorded and the batch moves on. Cancellation is honored between files only.
func AnalyzeFiles(ctx context.Context, paths []string, load dataset.LoadOptions, opts Options) []FileResult {
	results := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			slog.Warn("batch interrupted", "done", len(results), "total", len(paths), "error", err)
			break
		}
		results = append(results, analyzeFile(path, load, opts))
	}
	return results
}

func analyzeFile(path string, load dataset.LoadOptions, opts Options) (fr FileResult) {
	fr = FileResult{File: filepath.Base(path), Path: path}

	defer func() {
		if r := recover(); r != nil {
			fr.Report = nil
			fr.Error = fmt.Sprintf("analyze: %v", r)
			slog.Warn("analysis failed", "file", fr.File, "error", fr.Error)
		}
	}()

	ds, err := dataset.Load(path, load)
	if err != nil {
		fr.Error = err.Error()
		slog.Warn("load failed", "file", fr.File, "error", err)
		return fr
	}

	report := Analyze(ds, opts)
	fr.Report = &report
	slog.Debug("analyzed", "file", fr.File,
		"rows", report.RowCount,
		"columns", report.ColumnCount,
		"missing", len(report.Missing),
		"outliers", len(report.Outliers),
		"suspicious", len(report.Suspicious))
	return fr
}
