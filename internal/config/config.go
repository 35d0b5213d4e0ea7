package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. COURSEGEN_API_BASE_URL for api.base_url.
const EnvPrefix = "COURSEGEN"

// Config represents the complete coursegen configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Polling PollingConfig `mapstructure:"polling"`
	Course  CourseConfig  `mapstructure:"course"`
	Confirm ConfirmConfig `mapstructure:"confirm"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig controls how the workflow service is reached
type APIConfig struct {
	// BaseURL is the origin of the workflow service, without the /admin/workflow prefix
	BaseURL string `mapstructure:"base_url"`
	// Token is sent as a bearer token when set. Prefer COURSEGEN_API_TOKEN over the config file.
	Token string `mapstructure:"token"`
	// RequestTimeout bounds every request (default: 30s)
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PollingConfig controls how often asynchronous progress is checked
type PollingConfig struct {
	// SessionInterval is the period of the session poll (default: 2s)
	SessionInterval time.Duration `mapstructure:"session_interval"`
	// PresentationInterval is the period of each lesson's presentation poll (default: 3s)
	PresentationInterval time.Duration `mapstructure:"presentation_interval"`
	// VideoInterval is the period of each lesson's video poll (default: 5s)
	VideoInterval time.Duration `mapstructure:"video_interval"`
}

// CourseConfig holds defaults for `coursegen start`
type CourseConfig struct {
	// Language of generated content (default: "en")
	Language string `mapstructure:"language"`
	// Difficulty is "beginner", "intermediate" or "advanced" (default: "beginner")
	Difficulty string `mapstructure:"difficulty"`
	// TargetAudience is free text passed to research (default: "")
	TargetAudience string `mapstructure:"target_audience"`
	// VideoDurationMin is the target length of each lesson video in minutes (default: 5)
	VideoDurationMin int `mapstructure:"video_duration_min"`
}

// ConfirmConfig controls regeneration prompts
type ConfirmConfig struct {
	// AssumeYes answers every regeneration prompt affirmatively (default: false)
	AssumeYes bool `mapstructure:"assume_yes"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// Theme is the color theme for the TUI (default: "default")
	// Options: "default", "dracula", "light", "nord"
	Theme string `mapstructure:"theme"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir holds coursegen.log. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Polling: PollingConfig{
			SessionInterval:      2 * time.Second,
			PresentationInterval: 3 * time.Second,
			VideoInterval:        5 * time.Second,
		},
		Course: CourseConfig{
			Language:         "en",
			Difficulty:       "beginner",
			VideoDurationMin: 5,
		},
		Confirm: ConfirmConfig{
			AssumeYes: false,
		},
		TUI: TUIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// API defaults
	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.token", defaults.API.Token)
	viper.SetDefault("api.request_timeout", defaults.API.RequestTimeout)

	// Polling defaults
	viper.SetDefault("polling.session_interval", defaults.Polling.SessionInterval)
	viper.SetDefault("polling.presentation_interval", defaults.Polling.PresentationInterval)
	viper.SetDefault("polling.video_interval", defaults.Polling.VideoInterval)

	// Course defaults
	viper.SetDefault("course.language", defaults.Course.Language)
	viper.SetDefault("course.difficulty", defaults.Course.Difficulty)
	viper.SetDefault("course.target_audience", defaults.Course.TargetAudience)
	viper.SetDefault("course.video_duration_min", defaults.Course.VideoDurationMin)

	// Confirm defaults
	viper.SetDefault("confirm.assume_yes", defaults.Confirm.AssumeYes)

	// TUI defaults
	viper.SetDefault("tui.theme", defaults.TUI.Theme)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// BindEnv makes every key overridable from the environment: api.base_url is
// read from COURSEGEN_API_BASE_URL. Only keys known to v, e.g. through
// SetDefaults, are picked up by Unmarshal.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for a specific viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "coursegen")
	}
	// Fall back to ~/.config/coursegen
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coursegen"
	}
	return filepath.Join(home, ".config", "coursegen")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
