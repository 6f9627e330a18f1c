package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
timezone: Europe/Berlin
allday: true
rules:
  - /Meeting.*/Work/
  - /lunch/Personal/i
expand_recurring: true
format: table
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.True(t, cfg.AllDay)
	assert.Equal(t, []string{"/Meeting.*/Work/", "/lunch/Personal/i"}, cfg.Rules)
	assert.True(t, cfg.ExpandRecurring)
	assert.Equal(t, "table", cfg.Format)

	// Untouched keys keep their defaults.
	assert.Equal(t, defaultEncoding, cfg.Encoding)
	assert.Equal(t, defaultMaxOccurrencesPerEvent, cfg.MaxOccurrencesPerEvent)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestLoadNormalizesBlankValues(t *testing.T) {
	path := writeConfig(t, `
timezone: ""
encoding: ""
max_occurrences_per_event: -1
format: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultTimezone, cfg.Timezone)
	assert.Equal(t, defaultEncoding, cfg.Encoding)
	assert.Equal(t, defaultMaxOccurrencesPerEvent, cfg.MaxOccurrencesPerEvent)
	assert.Equal(t, defaultFormat, cfg.Format)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "rules: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "iso-8859-1", cfg.Encoding)
	assert.False(t, cfg.AllDay)
	assert.False(t, cfg.ExpandRecurring)
	assert.Empty(t, cfg.Rules)
	assert.Equal(t, "text", cfg.Format)
}
