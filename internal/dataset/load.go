package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrLoad marks a dataset that could not be read or parsed.
var ErrLoad = errors.New("load dataset")

// LoadOptions controls how a delimited file becomes a Dataset.
type LoadOptions struct {
	Delimiter     rune     // single field separator, ',' when zero
	MissingValues []string // cell values treated as missing
	TrimSpace     bool     // trim header names and cell values
	LazyQuotes    bool     // tolerate stray quotes in unquoted fields
}

// DefaultLoadOptions treats only empty cells as missing.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Delimiter:     ',',
		MissingValues: []string{""},
		TrimSpace:     true,
	}
}

func (o LoadOptions) missingSet() map[string]bool {
	set := make(map[string]bool, len(o.MissingValues))
	for _, v := range o.MissingValues {
		set[v] = true
	}
	return set
}

// Load reads a delimited file with a header row.
func Load(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer func() { _ = f.Close() }()

	return Read(filepath.Base(path), f, opts)
}

// Read parses delimited text from r. A UTF-8 or UTF-16 byte order mark is honored.
func Read(name string, r io.Reader, opts LoadOptions) (*Dataset, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(dec)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = opts.LazyQuotes

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s: no columns to parse", ErrLoad, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %w", ErrLoad, name, err)
	}
	header = normalizeHeader(header, opts.TrimSpace)

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
		}
		records = append(records, rec)
	}

	ds, err := New(name, header, records, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	return ds, nil
}

// normalizeHeader trims names and renames repeats to "name.1", "name.2", ...
func normalizeHeader(header []string, trim bool) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		if trim {
			h = strings.TrimSpace(h)
		}
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for taken[name] {
			seen[h]++
			name = h + "." + strconv.Itoa(seen[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
