package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "refine.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_OverDefaults(t *testing.T) {
	cfg, err := Load(write(t, `
delta: [a.delta, b.delta]
window_size: 50
output: jsonl
metrics_listen: ":9100"
trace: true
`))
	require.NoError(t, err)
	require.Equal(t, []string{"a.delta", "b.delta"}, cfg.DeltaFiles)
	require.Equal(t, 50, cfg.WindowSize)
	require.Equal(t, "jsonl", cfg.Output)
	require.Equal(t, ":9100", cfg.MetricsListen)
	require.True(t, cfg.Trace)
	require.True(t, cfg.Header, "untouched keys keep their defaults")
	require.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(write(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")

	_, err = Load(write(t, "window_sise: 3\n"))
	require.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(write(t, "threads: [1\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	ok := Default()
	ok.DeltaFiles = []string{"-"}
	require.NoError(t, ok.Validate())

	cases := map[string]func(*Config){
		"no delta":  func(c *Config) { c.DeltaFiles = nil },
		"window":    func(c *Config) { c.WindowSize = 0 },
		"threads":   func(c *Config) { c.Threads = -1 },
		"output":    func(c *Config) { c.Output = "xml" },
		"log level": func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		c := ok
		mutate(&c)
		require.Error(t, c.Validate(), name)
	}
}
