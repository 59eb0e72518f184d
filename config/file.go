package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the structure of the optional YAML config file.
// Every field is optional; environment variables take precedence.
type FileConfig struct {
	URL      string `yaml:"url"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		APIBase  string `yaml:"api_base"`
		Pace     string `yaml:"pace"`
	} `yaml:"telegram"`
	Storage struct {
		Type string `yaml:"type"`
		DSN  string `yaml:"dsn"`
	} `yaml:"storage"`
	Scraper struct {
		Origin       string `yaml:"origin"`
		Format       string `yaml:"format"`
		UserAgent    string `yaml:"user_agent"`
		LinkPattern  string `yaml:"link_pattern"`
		FetchTimeout string `yaml:"fetch_timeout"`
	} `yaml:"scraper"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// LoadConfigFile loads configuration from path. Returns nil if path is empty
// or the file doesn't exist (not an error). Returns error if the file exists
// but cannot be parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // File doesn't exist -- not an error
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
