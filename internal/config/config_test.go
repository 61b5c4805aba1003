package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	want := Defaults()
	assert.Equal(t, &want, cfg)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `username: meeple
data_dir: /srv/shelf
log_level: debug
fetch:
  timeout: 10s
  max_attempts: 3
  initial_backoff: 250ms
  max_backoff: 2s
report:
  format: markdown
  combined: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "meeple", cfg.Username)
	assert.Equal(t, "/srv/shelf", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.InitialBackoff)
	assert.Equal(t, 2*time.Second, cfg.Fetch.MaxBackoff)
	assert.Equal(t, DefaultBaseURL, cfg.Fetch.BaseURL, "unset keys keep defaults")
	assert.Equal(t, "markdown", cfg.Report.Format)
	assert.True(t, cfg.Report.Combined)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "username: fromfile\n")
	t.Setenv("GAMESHELF_USERNAME", "fromenv")
	t.Setenv("GAMESHELF_FETCH_MAX_ATTEMPTS", "25")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Username)
	assert.Equal(t, 25, cfg.Fetch.MaxAttempts)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown format", "report:\n  format: docx\n"},
		{"zero attempts", "fetch:\n  max_attempts: 0\n"},
		{"bad base url", "fetch:\n  base_url: not a url\n"},
		{"max backoff below initial", "fetch:\n  initial_backoff: 10s\n  max_backoff: 1s\n"},
		{"shrinking multiplier", "fetch:\n  multiplier: 0.5\n"},
		{"unknown log level", "log_level: chatty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)

			_, err := Load(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrConfigInvalid)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "username: [unterminated\n")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestWriteIfMissingRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "gameshelf")
	cfg := Defaults()
	cfg.Username = "meeple"
	cfg.Fetch.Multiplier = 1.5

	wrote, err := WriteIfMissing(dir, cfg)
	require.NoError(t, err)
	assert.True(t, wrote)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, &cfg, loaded)
}

func TestWriteIfMissingKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "username: original\n")

	wrote, err := WriteIfMissing(dir, Defaults())
	require.NoError(t, err)
	assert.False(t, wrote)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "username: original\n", string(data))
}

func TestMarshalUsesDurationStrings(t *testing.T) {
	data, err := Marshal(Defaults())
	require.NoError(t, err)

	assert.Contains(t, string(data), "timeout: 30s")
	assert.Contains(t, string(data), "initial_backoff: 5s")
	assert.Contains(t, string(data), "max_backoff: 1m0s")
	assert.NotContains(t, string(data), "data_dir", "empty data_dir is omitted")
}
