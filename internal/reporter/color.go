package reporter

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ppiankov/csvspectre/internal/analyzer"
)

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorRed   = "\033[31m"
)

// Severity labels and the ANSI color each is painted with.
var severityStyle = map[analyzer.Severity]struct{ label, color string }{
	analyzer.SeverityHigh:   {"HIGH", colorRed},
	analyzer.SeverityMedium: {"MEDIUM", "\033[33m"},
	analyzer.SeverityLow:    {"LOW", "\033[36m"},
	analyzer.SeverityInfo:   {"INFO", "\033[37m"},
}

// useColor is true for terminals unless NO_COLOR is set.
func useColor(w io.Writer) bool {
	if _, off := os.LookupEnv("NO_COLOR"); off {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func paint(s analyzer.Severity, text string, on bool) string {
	if !on {
		return text
	}
	return severityStyle[s].color + colorBold + text + colorReset
}
