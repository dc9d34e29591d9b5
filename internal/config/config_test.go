package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/toplite/internal/ranking"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvInterval, EnvSort, EnvProcRoot} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2000, cfg.IntervalMS)
	assert.Equal(t, "cpu", cfg.Sort)
	assert.Equal(t, "/proc", cfg.ProcRoot)
	assert.Equal(t, 2*time.Second, cfg.Interval())
	assert.NoError(t, cfg.Validate())

	k := cfg.SortKey()
	assert.Equal(t, ranking.CPU, k.Column())
	assert.Equal(t, ranking.Descending, k.Direction())
}

func TestLoadNoFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "toplite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`interval_ms: 500
sort: mem
ascending: true
max_processes: 4096
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.IntervalMS)
	assert.Equal(t, "mem", cfg.Sort)
	assert.True(t, cfg.Ascending)
	assert.Equal(t, 4096, cfg.MaxProcesses)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/proc", cfg.ProcRoot, "unset keys keep defaults")

	k := cfg.SortKey()
	assert.Equal(t, ranking.Memory, k.Column())
	assert.Equal(t, ranking.Ascending, k.Direction())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toplite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval_ms: 500\nsort: mem\n"), 0o644))
	t.Setenv(EnvInterval, "250")
	t.Setenv(EnvSort, "pid")
	t.Setenv(EnvProcRoot, "/host/proc")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.IntervalMS)
	assert.Equal(t, "pid", cfg.Sort)
	assert.Equal(t, "/host/proc", cfg.ProcRoot)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval_ms: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	t.Setenv(EnvInterval, "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvInterval)
}

func TestParseIntervalMS(t *testing.T) {
	for in, want := range map[string]int{"1": 1, "1000": 1000, " 250 ": 250, "86400000": maxIntervalMS} {
		got, err := ParseIntervalMS(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "0", "-5", "abc", "1.5", "86400001", "99999999999999999999"} {
		_, err := ParseIntervalMS(in)
		assert.Error(t, err, in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero interval", func(c *Config) { c.IntervalMS = 0 }},
		{"interval too large", func(c *Config) { c.IntervalMS = maxIntervalMS + 1 }},
		{"unknown sort", func(c *Config) { c.Sort = "user" }},
		{"sort none", func(c *Config) { c.Sort = "none" }},
		{"negative max processes", func(c *Config) { c.MaxProcesses = -1 }},
		{"negative iterations", func(c *Config) { c.Iterations = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
