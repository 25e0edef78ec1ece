package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/ppiankov/csvspectre/internal/analyzer"
	"github.com/ppiankov/csvspectre/internal/dataset"
)

// FileName is the per-project config file.
const FileName = ".csvspectre.yml"

const dateLayout = "2006-01-02"

// Config holds all csvspectre configuration.
type Config struct {
	Thresholds    Thresholds `yaml:"thresholds"`
	Sentinels     []string   `yaml:"sentinels"`
	MissingValues []string   `yaml:"missing_values"`
	Delimiter     string     `yaml:"delimiter"`
	Exclude       Exclude    `yaml:"exclude"`
	Store         Store      `yaml:"store"`
	Defaults      Defaults   `yaml:"defaults"`
}

// Thresholds control detection sensitivity.
type Thresholds struct {
	IQRMultiplier float64 `yaml:"iqr_multiplier"`
	DateMin       string  `yaml:"date_min"` // YYYY-MM-DD, exclusive lower bound
	DateMax       string  `yaml:"date_max"` // YYYY-MM-DD, exclusive upper bound
}

// Exclude lists files, columns, and finding types to skip during analysis.
type Exclude struct {
	Files    []string `yaml:"files"`
	Columns  []string `yaml:"columns"`
	Findings []string `yaml:"findings"`
}

// Store selects where extracted tables are persisted besides CSV files.
type Store struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
	Schema  string `yaml:"schema"`
}

// Defaults holds default CLI flag values.
type Defaults struct {
	Format    string `yaml:"format"`
	Timeout   string `yaml:"timeout"` // parsed as time.Duration
	OutputDir string `yaml:"output_dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			IQRMultiplier: 1.5,
			DateMin:       "1900-01-01",
			DateMax:       "2100-01-01",
		},
		Sentinels:     []string{"Unknown", "unknown", "XX", "NULL", "null"},
		MissingValues: []string{""},
		Delimiter:     ",",
		Defaults: Defaults{
			Format:    "text",
			Timeout:   "5m",
			OutputDir: ".",
		},
	}
}

// Load reads configuration from .csvspectre.yml in the given directory,
// falling back to ~/.csvspectre.yml, then applies environment overrides.
// Returns DefaultConfig if no file found.
func Load(dir string) (Config, error) {
	cfg := DefaultConfig()

	paths := []string{filepath.Join(dir, FileName)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, FileName))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		break
	}

	cfg.applyEnv()
	return cfg, nil
}

// Exists reports whether dir holds a config file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CSVSPECTRE_DB_URL"); v != "" {
		c.Store.DSN = v
		if c.Store.Backend == "" {
			c.Store.Backend = "postgres"
		}
	}
	if v := os.Getenv("CSVSPECTRE_OUTPUT_DIR"); v != "" {
		c.Defaults.OutputDir = v
	}
}

// TimeoutDuration parses the Defaults.Timeout string as a time.Duration.
// Returns 5m if parsing fails.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Defaults.Timeout == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(c.Defaults.Timeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// AnalyzerOptions converts thresholds and sentinels into analyzer options.
// Unset values keep the analyzer defaults.
func (c *Config) AnalyzerOptions() (analyzer.Options, error) {
	opts := analyzer.DefaultOptions()
	if c.Thresholds.IQRMultiplier > 0 {
		opts.IQRMultiplier = c.Thresholds.IQRMultiplier
	}
	if c.Thresholds.DateMin != "" {
		t, err := time.Parse(dateLayout, c.Thresholds.DateMin)
		if err != nil {
			return opts, fmt.Errorf("thresholds.date_min: %w", err)
		}
		opts.DateMin = t
	}
	if c.Thresholds.DateMax != "" {
		t, err := time.Parse(dateLayout, c.Thresholds.DateMax)
		if err != nil {
			return opts, fmt.Errorf("thresholds.date_max: %w", err)
		}
		opts.DateMax = t
	}
	if !opts.DateMin.Before(opts.DateMax) {
		return opts, fmt.Errorf("thresholds: date_min %s is not before date_max %s",
			opts.DateMin.Format(dateLayout), opts.DateMax.Format(dateLayout))
	}
	if c.Sentinels != nil {
		opts.Sentinels = c.Sentinels
	}
	return opts, nil
}

// LoadOptions converts the delimiter and missing markers into loader options.
func (c *Config) LoadOptions() (dataset.LoadOptions, error) {
	opts := dataset.DefaultLoadOptions()
	if c.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(c.Delimiter)
		if size != len(c.Delimiter) || r == utf8.RuneError || r == '"' || r == '\n' || r == '\r' {
			return opts, fmt.Errorf("delimiter %q: must be a single character", c.Delimiter)
		}
		opts.Delimiter = r
	}
	if c.MissingValues != nil {
		opts.MissingValues = c.MissingValues
	}
	return opts, nil
}
