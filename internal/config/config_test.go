package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "auto", c.AIMode)
	assert.Equal(t, "openai", c.Provider)
	assert.Equal(t, 400, c.InsightsMaxTokens)
	assert.Equal(t, 300, c.ExplainMaxTokens)
	assert.Equal(t, 3000, c.PromptTokenLimit)
	assert.Equal(t, 60, c.HTTPTimeoutSec)
	assert.Equal(t, 100000, c.MaxRows)
	assert.Equal(t, ":8080", c.ServerAddr)
	assert.Equal(t, 32, c.MaxUploadMB)
	assert.Equal(t, *Default(), *c)
}

func TestSaveLoadRoundTripAndEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c := Default()
	require.NoError(t, c.Set("ai_mode", "mock"))
	require.NoError(t, c.Set("provider", "ollama"))
	require.NoError(t, c.Set("max_rows", "500"))
	require.NoError(t, Save(c, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", loaded.AIMode)
	assert.Equal(t, "ollama", loaded.Provider)
	assert.Equal(t, 500, loaded.MaxRows)

	t.Setenv("DATASAGE_AI_MODE", "live")
	t.Setenv("DATASAGE_MAX_ROWS", "42")
	loaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "live", loaded.AIMode)
	assert.Equal(t, 42, loaded.MaxRows)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai_mode: sometimes\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AIMode")
}

func TestSet(t *testing.T) {
	c := Default()
	err := c.Set("colour", "blue")
	assert.ErrorIs(t, err, ErrUnknownKey)

	assert.Error(t, c.Set("max_rows", "many"))
	assert.Error(t, c.Set("provider", "anthropic"))
	assert.Equal(t, "openai", c.Provider)
	assert.Error(t, c.Set("temperature", "7"))
	require.NoError(t, c.Set("temperature", "0.3"))
	assert.InDelta(t, 0.3, c.Temperature, 1e-9)
}

func TestRedacted(t *testing.T) {
	c := Default()
	c.APIKey = "sk-1234567890abcd"
	r := c.Redacted()
	assert.Equal(t, "sk-1*********abcd", r.APIKey)
	assert.Equal(t, "sk-1234567890abcd", c.APIKey)

	c.APIKey = "short"
	assert.Equal(t, "*****", c.Redacted().APIKey)
}
