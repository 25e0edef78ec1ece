package analyzer

import (
	"errors"
	"time"

	"github.com/araddon/dateparse"
)

// DateStrategy is one way of turning a cell into a date.
type DateStrategy struct {
	Name  string
	Parse func(s string) (time.Time, error)
}

// LayoutStrategy parses with a fixed time layout in UTC.
func LayoutStrategy(name, layout string) DateStrategy {
	return DateStrategy{
		Name: name,
		Parse: func(s string) (time.Time, error) {
			return time.ParseInLocation(layout, s, time.UTC)
		},
	}
}

var errNoYear = errors.New("no year in value")

// PermissiveStrategy accepts whatever dateparse can make sense of, as long as
// the value names a year. Strings like "4.5" or "1:2" parse to year 0 and are
// rejected.
func PermissiveStrategy() DateStrategy {
	return DateStrategy{
		Name: "permissive",
		Parse: func(s string) (time.Time, error) {
			t, err := dateparse.ParseIn(s, time.UTC)
			if err != nil {
				return time.Time{}, err
			}
			if t.Year() == 0 {
				return time.Time{}, errNoYear
			}
			return t, nil
		},
	}
}

// DefaultDateStrategies returns the strict layouts in priority order followed
// by the permissive fallback. Layouts accept unpadded day and month numbers.
func DefaultDateStrategies() []DateStrategy {
	return []DateStrategy{
		LayoutStrategy("YYYY-MM-DD", "2006-1-2"),
		LayoutStrategy("DD-MM-YYYY", "2-1-2006"),
		LayoutStrategy("MM/DD/YYYY", "1/2/2006"),
		LayoutStrategy("YYYY/MM/DD", "2006/1/2"),
		PermissiveStrategy(),
	}
}

// DateStatus tells whether a cell produced a date.
type DateStatus int

const (
	DateUnparseable DateStatus = iota
	DateParsed
)

// ParsedDate is the outcome of running the strategy chain on one cell.
type ParsedDate struct {
	Time     time.Time
	Status   DateStatus
	Strategy string
}

// ParseDate tries each strategy in order; the first success wins.
func ParseDate(s string, strategies []DateStrategy) ParsedDate {
	if s == "" {
		return ParsedDate{Status: DateUnparseable}
	}
	for _, st := range strategies {
		t, err := st.Parse(s)
		if err == nil {
			return ParsedDate{Time: t, Status: DateParsed, Strategy: st.Name}
		}
	}
	return ParsedDate{Status: DateUnparseable}
}
