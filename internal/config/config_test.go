package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "streamcheck.db", cfg.Journal)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 5000, cfg.TimeoutMs)
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ConfigFile(t *testing.T) {
	xdg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "streamcheck"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(xdg, "streamcheck", "config.yaml"),
		[]byte("journal: /var/lib/streamcheck/events.db\nformat: json\n"),
		0o644))
	t.Setenv("XDG_CONFIG_HOME", xdg)
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/streamcheck/events.db", cfg.Journal)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 5000, cfg.TimeoutMs, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	xdg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "streamcheck"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(xdg, "streamcheck", "config.yaml"),
		[]byte("format: json\n"),
		0o644))
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("STREAMCHECK_FORMAT", "text")
	t.Setenv("STREAMCHECK_TIMEOUT_MS", "250")
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 250, cfg.TimeoutMs)
}

func TestLoad_MalformedFile(t *testing.T) {
	xdg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "streamcheck"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(xdg, "streamcheck", "config.yaml"),
		[]byte("journal: [unclosed\n"),
		0o644))
	t.Setenv("XDG_CONFIG_HOME", xdg)
	chdir(t, t.TempDir())

	_, err := Load()
	require.Error(t, err)
}

// chdir changes the working directory for the duration of the test,
// restoring the previous directory on cleanup (testing.T.Chdir is
// unavailable before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
