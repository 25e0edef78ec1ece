package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the default slog logger.
// verbose=true sets LevelDebug, otherwise LevelWarn (silent unless problems).
// format is "text" or "json"; output defaults to os.Stderr if nil.
func Init(verbose bool, format string, output io.Writer) error {
	if output == nil {
		output = os.Stderr
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(output, opts)
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
