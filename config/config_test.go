package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/kufarwatch/knownset"
	"github.com/pevans/kufarwatch/scraper"
)

// Test helper: build a Getenv from a map
func envOf(values map[string]string) Getenv {
	return func(key string) string { return values[key] }
}

func requiredEnv() map[string]string {
	return map[string]string{
		EnvURL:      "https://re.kufar.by/l/r~minsk/kupit/dom",
		EnvBotToken: "123:abc",
		EnvChatID:   "42",
	}
}

// TestLoad_Defaults verifies defaults when only required settings are given
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envOf(requiredEnv()), "")
	require.NoError(t, err)

	assert.Equal(t, "https://re.kufar.by/l/r~minsk/kupit/dom", cfg.URL)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBase)
	assert.Equal(t, 500*time.Millisecond, cfg.Pace)
	assert.Equal(t, knownset.BackendFile, cfg.Storage.Type)
	assert.Equal(t, "known_listings.json", cfg.Storage.DSN)
	assert.Equal(t, scraper.DefaultExtractConfig(), cfg.Scraper.Extract)
	assert.Equal(t, scraper.DefaultUserAgent, cfg.Scraper.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Scraper.FetchTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

// TestLoad_MissingRequired verifies each required setting is enforced
func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{EnvURL, EnvBotToken, EnvChatID} {
		t.Run(key, func(t *testing.T) {
			env := requiredEnv()
			delete(env, key)

			cfg, err := Load(envOf(env), "")
			require.Error(t, err)
			assert.Nil(t, cfg)

			var missing *MissingSettingError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, key, missing.Key)
			assert.Contains(t, err.Error(), key)
		})
	}
}

// TestLoad_FileThenEnvPrecedence verifies env overrides file overrides defaults
func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `url: "https://from-file.example/dom"
telegram:
  bot_token: "file-token"
  chat_id: "file-chat"
  pace: "2s"
storage:
  type: "sqlite"
  dsn: "file.db"
log:
  level: "debug"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	env := map[string]string{
		EnvChatID:     "env-chat",
		EnvStateDSN:   "env.db",
		EnvNotifyPace: "250ms",
	}

	cfg, err := Load(envOf(env), configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.example/dom", cfg.URL, "file value when env is unset")
	assert.Equal(t, "file-token", cfg.Telegram.BotToken)
	assert.Equal(t, "env-chat", cfg.Telegram.ChatID, "env wins over file")
	assert.Equal(t, knownset.BackendSQLite, cfg.Storage.Type)
	assert.Equal(t, "env.db", cfg.Storage.DSN)
	assert.Equal(t, 250*time.Millisecond, cfg.Pace)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "default when neither sets it")
}

// TestLoad_InvalidDuration verifies duration parsing errors
func TestLoad_InvalidDuration(t *testing.T) {
	env := requiredEnv()
	env[EnvFetchTimeout] = "soon"

	_, err := Load(envOf(env), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDuration))
	assert.Contains(t, err.Error(), EnvFetchTimeout)
}

// TestLoad_InvalidStorageType verifies unknown backends are rejected
func TestLoad_InvalidStorageType(t *testing.T) {
	env := requiredEnv()
	env[EnvStateType] = "redis"

	_, err := Load(envOf(env), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, knownset.ErrUnknownBackend))
}

// TestLoad_InvalidFormat verifies scraper config validation
func TestLoad_InvalidFormat(t *testing.T) {
	env := requiredEnv()
	env[EnvFormat] = "pdf"

	_, err := Load(envOf(env), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scraper config")
}

// TestLoad_BadConfigFile verifies malformed files are reported
func TestLoad_BadConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("url: [unterminated"), 0o600))

	_, err := Load(envOf(requiredEnv()), configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

// TestMissingSettingError_Message verifies the operator-facing text
func TestMissingSettingError_Message(t *testing.T) {
	err := &MissingSettingError{Key: "URL", Description: "The Kufar URL to monitor for new listings"}

	assert.Equal(t,
		"required environment variable 'URL' is not set: The Kufar URL to monitor for new listings",
		err.Error())
}

// TestResolve_SkipsValidation verifies Resolve works without credentials
func TestResolve_SkipsValidation(t *testing.T) {
	cfg, err := Resolve(envOf(map[string]string{EnvStateDSN: "state.json"}), "")
	require.NoError(t, err)

	assert.Empty(t, cfg.URL)
	assert.Equal(t, "state.json", cfg.Storage.DSN)
}
