package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teemow/smartinbox/internal/logging"
)

// AppName names the config directory and the environment prefix.
const AppName = "smartinbox"

// EnvPrefix is prepended to every environment override, e.g.
// SMARTINBOX_COMPLETION_API_KEY.
const EnvPrefix = "SMARTINBOX"

type Config struct {
	Gmail      GmailConfig      `mapstructure:"gmail" yaml:"gmail"`
	Auth       AuthConfig       `mapstructure:"auth" yaml:"auth"`
	Inbox      InboxConfig      `mapstructure:"inbox" yaml:"inbox"`
	Completion CompletionConfig `mapstructure:"completion" yaml:"completion"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type GmailConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	UserID  string `mapstructure:"user_id" yaml:"user_id"`
}

type AuthConfig struct {
	ClientID    string `mapstructure:"client_id" yaml:"client_id"`
	RedirectURI string `mapstructure:"redirect_uri" yaml:"redirect_uri"`

	// AccessToken is only ever read from the environment; it is never
	// written to the config file.
	AccessToken string `mapstructure:"access_token" yaml:"-"`
}

type InboxConfig struct {
	PageSize     int64  `mapstructure:"page_size" yaml:"page_size"`
	DefaultQuery string `mapstructure:"default_query" yaml:"default_query"`
}

type CompletionConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	SummaryModel   string `mapstructure:"summary_model" yaml:"summary_model"`
	DraftModel     string `mapstructure:"draft_model" yaml:"draft_model"`
	SentimentModel string `mapstructure:"sentiment_model" yaml:"sentiment_model"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		Gmail: GmailConfig{
			BaseURL: "https://gmail.googleapis.com/",
			UserID:  "me",
		},
		Auth: AuthConfig{
			RedirectURI: "http://localhost:8080/",
		},
		Inbox: InboxConfig{
			PageSize:     15,
			DefaultQuery: "in:inbox",
		},
		Completion: CompletionConfig{
			SummaryModel:   "gemini-2.5-flash",
			DraftModel:     "gemini-3-pro-preview",
			SentimentModel: "gemini-2.5-flash",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home dir: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at the default path. A missing file is not an
// error; defaults and environment overrides still apply.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to the default path and returns that path.
func Save(cfg Config) (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return path, SaveTo(path, cfg)
}

// SaveTo writes cfg as YAML to path, creating the directory if needed.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Redact returns a copy of cfg with secrets masked, for display.
func Redact(cfg Config) Config {
	masked := cfg
	if masked.Completion.APIKey != "" {
		masked.Completion.APIKey = "****"
	}
	if masked.Auth.AccessToken != "" {
		masked.Auth.AccessToken = logging.SanitizeToken(masked.Auth.AccessToken)
	}
	return masked
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("gmail.base_url", cfg.Gmail.BaseURL)
	v.SetDefault("gmail.user_id", cfg.Gmail.UserID)

	v.SetDefault("auth.client_id", cfg.Auth.ClientID)
	v.SetDefault("auth.redirect_uri", cfg.Auth.RedirectURI)
	v.SetDefault("auth.access_token", cfg.Auth.AccessToken)

	v.SetDefault("inbox.page_size", cfg.Inbox.PageSize)
	v.SetDefault("inbox.default_query", cfg.Inbox.DefaultQuery)

	v.SetDefault("completion.api_key", cfg.Completion.APIKey)
	v.SetDefault("completion.summary_model", cfg.Completion.SummaryModel)
	v.SetDefault("completion.draft_model", cfg.Completion.DraftModel)
	v.SetDefault("completion.sentiment_model", cfg.Completion.SentimentModel)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

func Validate(cfg Config) error {
	if cfg.Gmail.BaseURL == "" {
		return fmt.Errorf("gmail.base_url is required")
	}
	if !strings.HasSuffix(cfg.Gmail.BaseURL, "/") {
		return fmt.Errorf("gmail.base_url must end with '/'")
	}
	if cfg.Inbox.PageSize <= 0 || cfg.Inbox.PageSize > 500 {
		return fmt.Errorf("inbox.page_size must be between 1 and 500, got %d", cfg.Inbox.PageSize)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

// ValidateAuth checks the settings needed to build an authorization URL.
func ValidateAuth(cfg Config) error {
	if cfg.Auth.ClientID == "" {
		return fmt.Errorf("auth.client_id is required")
	}
	if cfg.Auth.RedirectURI == "" {
		return fmt.Errorf("auth.redirect_uri is required")
	}
	return nil
}
