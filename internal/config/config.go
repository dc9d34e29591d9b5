package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/toplite/internal/procfs"
	"github.com/Dicklesworthstone/toplite/internal/ranking"
)

// Environment overrides. They are also read from a .env file in the working
// directory when one exists.
const (
	EnvInterval = "TOPLITE_INTERVAL_MS"
	EnvSort     = "TOPLITE_SORT"
	EnvProcRoot = "TOPLITE_PROC_ROOT"
)

// maxIntervalMS caps the tick interval at one day.
const maxIntervalMS = 24 * 60 * 60 * 1000

// Config carries runtime options for toplite.
type Config struct {
	IntervalMS   int    `yaml:"interval_ms"`
	Sort         string `yaml:"sort"`
	Ascending    bool   `yaml:"ascending"`
	ProcRoot     string `yaml:"proc_root"`
	MaxProcesses int    `yaml:"max_processes"`
	Batch        bool   `yaml:"batch"`
	Iterations   int    `yaml:"iterations"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
}

func Default() Config {
	return Config{
		IntervalMS: 2000,
		Sort:       "cpu",
		ProcRoot:   procfs.DefaultRoot,
		LogLevel:   "info",
	}
}

// Load layers an optional YAML file and the environment over the defaults.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}

	// A missing .env is normal; the process environment still applies.
	_ = godotenv.Load()

	if v := os.Getenv(EnvInterval); v != "" {
		ms, err := ParseIntervalMS(v)
		if err != nil {
			return cfg, errors.Wrap(err, EnvInterval)
		}
		cfg.IntervalMS = ms
	}
	if v := os.Getenv(EnvSort); v != "" {
		cfg.Sort = v
	}
	if v := os.Getenv(EnvProcRoot); v != "" {
		cfg.ProcRoot = v
	}
	return cfg, nil
}

// ParseIntervalMS parses a positive whole number of milliseconds.
func ParseIntervalMS(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid interval %q: not a number of milliseconds", s)
	}
	if v <= 0 || v > maxIntervalMS || v > math.MaxInt32 {
		return 0, errors.Errorf("invalid interval %q: must be between 1 and %d ms", s, maxIntervalMS)
	}
	return int(v), nil
}

// Validate checks values that cannot be fixed up at runtime.
func (c Config) Validate() error {
	if c.IntervalMS <= 0 || c.IntervalMS > maxIntervalMS {
		return errors.Errorf("interval must be between 1 and %d ms, got %d", maxIntervalMS, c.IntervalMS)
	}
	if _, err := ranking.ParseColumn(c.Sort); err != nil {
		return err
	}
	if c.MaxProcesses < 0 {
		return errors.Errorf("max processes must not be negative, got %d", c.MaxProcesses)
	}
	if c.Iterations < 0 {
		return errors.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	return nil
}

// Interval is the tick interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// SortKey builds the initial ranking key. Call Validate first.
func (c Config) SortKey() *ranking.Key {
	col, err := ranking.ParseColumn(c.Sort)
	if err != nil {
		return ranking.DefaultKey()
	}
	dir := ranking.Descending
	if c.Ascending {
		dir = ranking.Ascending
	}
	return ranking.NewKey(col, dir)
}
