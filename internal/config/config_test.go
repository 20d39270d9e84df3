package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scrypster/rolodex/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultHostIsLocalhost(t *testing.T) {
	_ = os.Unsetenv("ROLODEX_HOST")
	cfg, err := config.LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host,
		"Default host must be 127.0.0.1 for security")
}

func TestLoadConfig_SessionDefaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Minute, cfg.Session.ExpiryAfter)
	assert.Equal(t, 30*time.Second, cfg.Session.ContinuationWindow)
	assert.Equal(t, 120*time.Second, cfg.Session.TimeoutPrompt)
	assert.Equal(t, 10, cfg.Session.RecentContacts)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ROLODEX_HOST", "0.0.0.0")
	t.Setenv("ROLODEX_SESSION_EXPIRY", "15m")
	t.Setenv("ROLODEX_SESSION_RECENT_CONTACTS", "3")
	t.Setenv("ROLODEX_BACKUP_INTERVAL", "6h")
	t.Setenv("ROLODEX_BACKUP_KEEP", "4")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 15*time.Minute, cfg.Session.ExpiryAfter)
	assert.Equal(t, 3, cfg.Session.RecentContacts)
	assert.Equal(t, 6*time.Hour, cfg.Storage.BackupInterval)
	assert.Equal(t, 4, cfg.Storage.BackupKeep)
}

func TestLoadConfig_InvalidEnvKeepsDefault(t *testing.T) {
	t.Setenv("ROLODEX_PORT", "not-a-number")
	t.Setenv("ROLODEX_SESSION_EXPIRY", "soon")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 6464, cfg.Server.Port)
	assert.Equal(t, 60*time.Minute, cfg.Session.ExpiryAfter)
}

func TestLoadConfig_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rolodex.yaml")
	yamlDoc := `
server:
  port: 7000
session:
  expiry_after: 5m
  recent_contacts: 4
llm:
  provider: none
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("ROLODEX_CONFIG_FILE", path)
	t.Setenv("ROLODEX_SESSION_RECENT_CONTACTS", "6")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Session.ExpiryAfter)
	assert.Equal(t, 6, cfg.Session.RecentContacts, "env must override the file")
	assert.Equal(t, "none", cfg.LLM.LLMProvider)
	assert.Equal(t, 30*time.Second, cfg.Session.ContinuationWindow, "keys missing from the file keep defaults")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("ROLODEX_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }},
		{"unknown engine", func(c *config.Config) { c.Storage.StorageEngine = "mongo" }},
		{"postgres without dsn", func(c *config.Config) { c.Storage.StorageEngine = "postgres" }},
		{"openai without key", func(c *config.Config) { c.LLM.LLMProvider = "openai" }},
		{"unknown provider", func(c *config.Config) { c.LLM.LLMProvider = "hal9000" }},
		{"negative backup interval", func(c *config.Config) { c.Storage.BackupInterval = -time.Minute }},
		{"zero expiry", func(c *config.Config) { c.Session.ExpiryAfter = 0 }},
		{"zero cache", func(c *config.Config) { c.Session.RecentContacts = 0 }},
		{"production without token", func(c *config.Config) { c.Security.SecurityMode = "production" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, config.Default().Validate())
}
