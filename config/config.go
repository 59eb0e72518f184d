package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pevans/kufarwatch/knownset"
	"github.com/pevans/kufarwatch/notify"
	"github.com/pevans/kufarwatch/scraper"
	"github.com/pevans/kufarwatch/watcher"
)

// Environment variable names.
const (
	EnvURL          = "URL"
	EnvBotToken     = "TELEGRAM_BOT_TOKEN"
	EnvChatID       = "TELEGRAM_CHAT_ID"
	EnvConfigFile   = "KUFARWATCH_CONFIG"
	EnvStateType    = "KUFARWATCH_STATE_TYPE"
	EnvStateDSN     = "KUFARWATCH_STATE_DSN"
	EnvOrigin       = "KUFARWATCH_ORIGIN"
	EnvFormat       = "KUFARWATCH_FORMAT"
	EnvUserAgent    = "KUFARWATCH_USER_AGENT"
	EnvLinkPattern  = "KUFARWATCH_LINK_PATTERN"
	EnvFetchTimeout = "KUFARWATCH_FETCH_TIMEOUT"
	EnvNotifyPace   = "KUFARWATCH_NOTIFY_PACE"
	EnvTelegramAPI  = "KUFARWATCH_TELEGRAM_API"
	EnvLogLevel     = "KUFARWATCH_LOG_LEVEL"
	EnvLogFormat    = "KUFARWATCH_LOG_FORMAT"
)

// ErrInvalidDuration is returned when a duration setting can't be parsed.
var ErrInvalidDuration = errors.New("invalid duration")

// MissingSettingError reports a required setting that is not configured.
type MissingSettingError struct {
	Key         string
	Description string
}

func (e *MissingSettingError) Error() string {
	msg := fmt.Sprintf("required environment variable '%s' is not set", e.Key)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

// Config is the complete process configuration. It is built once at startup
// and handed to each component.
type Config struct {
	URL      string
	Telegram notify.TelegramConfig
	Pace     time.Duration
	Storage  StorageConfig
	Scraper  ScraperConfig
	Log      LogConfig
}

// StorageConfig selects the known-set backend.
type StorageConfig struct {
	Type string
	DSN  string
}

// ScraperConfig controls fetching and extraction.
type ScraperConfig struct {
	Extract      scraper.ExtractConfig
	UserAgent    string
	FetchTimeout time.Duration
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string
	Format string
}

// Getenv looks up an environment variable; os.Getenv satisfies it.
type Getenv func(key string) string

// Default returns the configuration used when nothing overrides it. The
// required settings are left empty.
func Default() *Config {
	return &Config{
		Telegram: notify.TelegramConfig{
			APIBase: notify.DefaultAPIBase,
			Timeout: 10 * time.Second,
		},
		Pace: watcher.DefaultPace,
		Storage: StorageConfig{
			Type: knownset.BackendFile,
			DSN:  knownset.DefaultPath,
		},
		Scraper: ScraperConfig{
			Extract:      scraper.DefaultExtractConfig(),
			UserAgent:    scraper.DefaultUserAgent,
			FetchTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration with precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file at path (skipped when empty or missing)
// 3. Default values (lowest priority)
//
// A missing required setting returns *MissingSettingError.
func Load(getenv Getenv, path string) (*Config, error) {
	cfg, err := Resolve(getenv, path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Resolve applies the same precedence as Load but skips validation. Commands
// that only inspect local state use it so they work without credentials.
func Resolve(getenv Getenv, path string) (*Config, error) {
	cfg := Default()

	file, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if file != nil {
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(f *FileConfig) error {
	setString(&c.URL, f.URL)
	setString(&c.Telegram.BotToken, f.Telegram.BotToken)
	setString(&c.Telegram.ChatID, f.Telegram.ChatID)
	setString(&c.Telegram.APIBase, f.Telegram.APIBase)
	setString(&c.Storage.Type, f.Storage.Type)
	setString(&c.Storage.DSN, f.Storage.DSN)
	setString(&c.Scraper.Extract.Origin, f.Scraper.Origin)
	setString(&c.Scraper.Extract.Format, f.Scraper.Format)
	setString(&c.Scraper.Extract.LinkPattern, f.Scraper.LinkPattern)
	setString(&c.Scraper.UserAgent, f.Scraper.UserAgent)
	setString(&c.Log.Level, f.Log.Level)
	setString(&c.Log.Format, f.Log.Format)

	if err := setDuration(&c.Pace, "telegram.pace", f.Telegram.Pace); err != nil {
		return err
	}
	return setDuration(&c.Scraper.FetchTimeout, "scraper.fetch_timeout", f.Scraper.FetchTimeout)
}

func (c *Config) applyEnv(getenv Getenv) error {
	setString(&c.URL, getenv(EnvURL))
	setString(&c.Telegram.BotToken, getenv(EnvBotToken))
	setString(&c.Telegram.ChatID, getenv(EnvChatID))
	setString(&c.Telegram.APIBase, getenv(EnvTelegramAPI))
	setString(&c.Storage.Type, getenv(EnvStateType))
	setString(&c.Storage.DSN, getenv(EnvStateDSN))
	setString(&c.Scraper.Extract.Origin, getenv(EnvOrigin))
	setString(&c.Scraper.Extract.Format, getenv(EnvFormat))
	setString(&c.Scraper.Extract.LinkPattern, getenv(EnvLinkPattern))
	setString(&c.Scraper.UserAgent, getenv(EnvUserAgent))
	setString(&c.Log.Level, getenv(EnvLogLevel))
	setString(&c.Log.Format, getenv(EnvLogFormat))

	if err := setDuration(&c.Pace, EnvNotifyPace, getenv(EnvNotifyPace)); err != nil {
		return err
	}
	return setDuration(&c.Scraper.FetchTimeout, EnvFetchTimeout, getenv(EnvFetchTimeout))
}

// Validate checks required settings, then the optional ones that have a
// fixed set of values.
func (c *Config) Validate() error {
	required := []struct {
		key, value, description string
	}{
		{EnvURL, c.URL, "The Kufar URL to monitor for new listings"},
		{EnvBotToken, c.Telegram.BotToken, "Telegram bot token from @BotFather"},
		{EnvChatID, c.Telegram.ChatID, "Your Telegram chat ID from @userinfobot"},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingSettingError{Key: r.key, Description: r.description}
		}
	}

	switch c.Storage.Type {
	case knownset.BackendFile, knownset.BackendSQLite:
	default:
		return fmt.Errorf("%w (got %q)", knownset.ErrUnknownBackend, c.Storage.Type)
	}

	if err := c.Scraper.Extract.Validate(); err != nil {
		return fmt.Errorf("invalid scraper config: %w", err)
	}

	if c.Pace < 0 {
		return fmt.Errorf("%w: notification pace must not be negative", ErrInvalidDuration)
	}

	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w for %s: %q", ErrInvalidDuration, key, value)
	}
	*dst = d
	return nil
}
