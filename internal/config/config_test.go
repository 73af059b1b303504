package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadOptional_Missing(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadOptional_YAML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLFile, `
journal:
  path: var/journal.db
log_level: debug
format: json
scenarios: testdata/scenarios
`)

	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "var/journal.db", cfg.Journal.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "testdata/scenarios", cfg.Scenarios)
	assert.Equal(t, filepath.Join(dir, YAMLFile), cfg.Source)
}

func TestLoadOptional_TOML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, TOMLFile, `
log_level = "warn"
scenarios = "fixtures"

[journal]
path = "/tmp/viewkit.db"
`)

	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/viewkit.db", cfg.Journal.Path)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "fixtures", cfg.Scenarios)
}

func TestLoadOptional_YAMLWinsOverTOML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLFile, "format: json\n")
	write(t, dir, TOMLFile, "format = \"text\"\n")

	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadOptional_ParseErrors(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLFile, "journal: [unclosed\n")
	_, err := LoadOptional(dir)
	assert.ErrorContains(t, err, YAMLFile)

	dir = t.TempDir()
	write(t, dir, TOMLFile, "journal = = 1\n")
	_, err = LoadOptional(dir)
	assert.ErrorContains(t, err, TOMLFile)
}

func TestResolve_Defaults(t *testing.T) {
	dir := t.TempDir()
	r, err := Resolve(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultJournalPath), r.JournalPath)
	assert.Equal(t, slog.LevelInfo, r.LogLevel)
	assert.Equal(t, DefaultFormat, r.Format)
	assert.Equal(t, filepath.Join(dir, DefaultScenarios), r.Scenarios)
	assert.Equal(t, "sequential", r.IDs)
	assert.Empty(t, r.Source)
}

func TestResolve_IDScheme(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLFile, "ids: UUID\n")
	r, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "uuid", r.IDs)

	dir = t.TempDir()
	write(t, dir, TOMLFile, "ids = \"sequential\"\n")
	r, err = Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "sequential", r.IDs)
}

func TestResolve_KeepsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "j.db")
	write(t, dir, YAMLFile, "journal:\n  path: "+abs+"\n")

	r, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, r.JournalPath)
}

func TestResolve_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLFile, "format: xml\n")
	_, err := Resolve(dir)
	assert.ErrorContains(t, err, "invalid format")

	dir = t.TempDir()
	write(t, dir, YAMLFile, "log_level: loud\n")
	_, err = Resolve(dir)
	assert.ErrorContains(t, err, "invalid log_level")

	dir = t.TempDir()
	write(t, dir, YAMLFile, "ids: random\n")
	_, err = Resolve(dir)
	assert.ErrorContains(t, err, "invalid ids")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
