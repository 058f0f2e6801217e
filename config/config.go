package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token     string `yaml:"token" envconfig:"BOT_TOKEN"`
	TokenFile string `yaml:"token_file" envconfig:"BOT_TOKEN_FILE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// MaxMessageLength caps outgoing message chunks; 0 -> Telegram default.
	MaxMessageLength int `yaml:"max_message_length" envconfig:"TELEGRAM_MAX_MESSAGE_LENGTH"`
}

// StorageConfig defines where persistent state and form definitions live.
type StorageConfig struct {
	PersistDir string `yaml:"persist_dir" envconfig:"PERSIST_DIR"`
	FormFile   string `yaml:"form_file" envconfig:"FORM_FILE"`
	// OnFlush defers per-entity writes until Flush is called.
	OnFlush bool `yaml:"on_flush" envconfig:"PERSIST_ON_FLUSH"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	KeysOrder string `yaml:"keys_order"`
	Dir       string `yaml:"dir"`
	BotFile   string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// DefaultMaxMessageLength mirrors the Telegram message size limit.
const DefaultMaxMessageLength = 4096

// Config aggregates the bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if cfg.Storage.FormFile == "" {
		cfg.Storage.FormFile = filepath.Join(filepath.Dir(path), "dating-form.yaml")
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and resolves the token indirection.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" && cfg.Telegram.TokenFile != "" {
		raw, err := os.ReadFile(cfg.Telegram.TokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		cfg.Telegram.Token = strings.TrimSpace(string(raw))
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}
	if cfg.Telegram.MaxMessageLength <= 0 {
		cfg.Telegram.MaxMessageLength = DefaultMaxMessageLength
	}

	if strings.TrimSpace(cfg.Storage.PersistDir) == "" {
		return fmt.Errorf("storage.persist_dir is required")
	}
	if strings.TrimSpace(cfg.Storage.FormFile) == "" {
		return fmt.Errorf("storage.form_file is required")
	}
	return nil
}
