package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RemoteConfig holds settings for the backend journal service.
type RemoteConfig struct {
	// BaseURL is the root URL of the journal REST service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Enabled controls whether completions are confirmed remotely and
	// data is pushed on the sync ticker.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PushIntervalSec is how often (in seconds) the full data set is
	// pushed to the remote service.
	PushIntervalSec int `mapstructure:"push_interval_sec" yaml:"push_interval_sec"`
}

// NotifyConfig holds settings for local reminders and partner messaging.
type NotifyConfig struct {
	// GatewayURL is the webhook endpoint of the local notifier daemon.
	GatewayURL string `mapstructure:"gateway_url" yaml:"gateway_url"`

	// MessageGatewayURL is the endpoint used to deliver accountability
	// messages to the partner's messaging channel.
	MessageGatewayURL string `mapstructure:"message_gateway_url" yaml:"message_gateway_url"`

	// SenderName is how the user is introduced in partner messages.
	SenderName string `mapstructure:"sender_name" yaml:"sender_name"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AIConfig holds settings for the assistant.
type AIConfig struct {
	// Model is the Claude model identifier. Empty selects the built-in
	// default.
	Model string `mapstructure:"model" yaml:"model"`

	// MaxTokens caps the length of each assistant response.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ExportConfig holds preferences for data export.
type ExportConfig struct {
	// Dir is where exported snapshots are written.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/daybook/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "daybook", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	return &AppConfig{
		Remote: RemoteConfig{
			BaseURL:         "http://localhost:8100",
			Enabled:         false,
			PushIntervalSec: 300,
		},
		Notify: NotifyConfig{
			SenderName: "Your partner",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		AI: AIConfig{
			MaxTokens: 1024,
		},
		Export: ExportConfig{
			Dir: filepath.Join(home, "daybook-exports"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultAppConfig()
	v.SetDefault("remote.base_url", defaults.Remote.BaseURL)
	v.SetDefault("remote.push_interval_sec", defaults.Remote.PushIntervalSec)
	v.SetDefault("notify.sender_name", defaults.Notify.SenderName)
	v.SetDefault("display.theme", defaults.Display.Theme)
	v.SetDefault("ai.max_tokens", defaults.AI.MaxTokens)
	v.SetDefault("export.dir", defaults.Export.Dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Remote.PushIntervalSec <= 0 {
		cfg.Remote.PushIntervalSec = defaults.Remote.PushIntervalSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("remote", cfg.Remote)
	v.Set("notify", cfg.Notify)
	v.Set("display", cfg.Display)
	v.Set("ai", cfg.AI)
	v.Set("export", cfg.Export)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
