package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/coursegen/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify coursegen configuration",
	Long: `View or modify coursegen configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  coursegen config set api.base_url https://courses.example.com
  coursegen config set polling.session_interval 1s
  coursegen config set course.language de

Valid keys:
  api.base_url                   - Workflow service origin
  api.request_timeout            - Per-request timeout (e.g. 30s)
  polling.session_interval       - Session poll period (e.g. 2s)
  polling.presentation_interval  - Presentation poll period
  polling.video_interval         - Video poll period
  course.language                - Default content language
  course.difficulty              - beginner, intermediate or advanced
  course.target_audience         - Default target audience
  course.video_duration_min      - Default video length in minutes
  confirm.assume_yes             - Skip regeneration prompts (true/false)
  tui.theme                      - default, dracula, light or nord
  logging.enabled                - Write a debug log (true/false)
  logging.level                  - debug, info, warn or error
  logging.dir                    - Log directory

The API token is not settable here; use COURSEGEN_API_TOKEN or a .env file.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/coursegen/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for invalid values",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "api:")
	fmt.Fprintf(w, "  base_url: %s\n", cfg.API.BaseURL)
	fmt.Fprintf(w, "  token: %s\n", maskToken(cfg.API.Token))
	fmt.Fprintf(w, "  request_timeout: %s\n", cfg.API.RequestTimeout)

	fmt.Fprintln(w, "polling:")
	fmt.Fprintf(w, "  session_interval: %s\n", cfg.Polling.SessionInterval)
	fmt.Fprintf(w, "  presentation_interval: %s\n", cfg.Polling.PresentationInterval)
	fmt.Fprintf(w, "  video_interval: %s\n", cfg.Polling.VideoInterval)

	fmt.Fprintln(w, "course:")
	fmt.Fprintf(w, "  language: %s\n", cfg.Course.Language)
	fmt.Fprintf(w, "  difficulty: %s\n", cfg.Course.Difficulty)
	fmt.Fprintf(w, "  target_audience: %s\n", cfg.Course.TargetAudience)
	fmt.Fprintf(w, "  video_duration_min: %d\n", cfg.Course.VideoDurationMin)

	fmt.Fprintln(w, "confirm:")
	fmt.Fprintf(w, "  assume_yes: %v\n", cfg.Confirm.AssumeYes)

	fmt.Fprintln(w, "tui:")
	fmt.Fprintf(w, "  theme: %s\n", cfg.TUI.Theme)

	fmt.Fprintln(w, "logging:")
	fmt.Fprintf(w, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(w, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  dir: %s\n", cfg.Logging.Dir)

	return nil
}

// maskToken hides all but the last four characters of a secret.
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"api.base_url":                  "string",
		"api.request_timeout":           "duration",
		"polling.session_interval":      "duration",
		"polling.presentation_interval": "duration",
		"polling.video_interval":        "duration",
		"course.language":               "string",
		"course.difficulty":             "string",
		"course.target_audience":        "string",
		"course.video_duration_min":     "int",
		"confirm.assume_yes":            "bool",
		"tui.theme":                     "string",
		"logging.enabled":               "bool",
		"logging.level":                 "string",
		"logging.dir":                   "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'coursegen config set --help' to see valid keys", key)
	}

	var typedValue any
	switch keyType {
	case "string":
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = intVal
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected a duration such as 2s or 500ms", key)
		}
		// stored as text so the file stays readable
		typedValue = d.String()
	}

	// Check the value against the rest of the configuration before writing
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}

	// Only the file's own keys are written back; values from flags, the
	// environment or .env (such as the API token) stay out of it.
	file := viper.New()
	file.SetConfigFile(configFile)
	if _, err := os.Stat(configFile); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	file.Set(key, typedValue)
	if err := file.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

const defaultConfigContent = `# coursegen configuration

# Workflow service
api:
  # Origin of the service, without /admin/workflow
  base_url: http://localhost:8080
  # Per-request timeout
  request_timeout: 30s
  # The bearer token is read from COURSEGEN_API_TOKEN (or a .env file)

# How often background progress is checked
polling:
  session_interval: 2s
  presentation_interval: 3s
  video_interval: 5s

# Defaults for 'coursegen start'
course:
  # en, de, fr, es, it or pt
  language: en
  # beginner, intermediate or advanced
  difficulty: beginner
  target_audience: ""
  # Target video length per lesson in minutes, 0 lets the service decide
  video_duration_min: 5

# Regeneration prompts
confirm:
  # Answer yes without asking
  assume_yes: false

# Terminal UI
tui:
  # default, dracula, light or nord
  theme: default

# Debug log
logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Defaults to the logs directory next to this file
  dir: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'coursegen config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize coursegen's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(w, "\nSearch paths:")
	fmt.Fprintf(w, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(w, "  2. $HOME/.config/coursegen/config.yaml\n")
	fmt.Fprintf(w, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintf(w, "\nEnvironment variables: %s_* (e.g., %s_API_BASE_URL)\n", config.EnvPrefix, config.EnvPrefix)
	fmt.Fprintf(w, "Current session file: %s\n", currentSessionFile())

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return err
	}
	source := viper.ConfigFileUsed()
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s)\n", strings.TrimSpace(source))
	return nil
}
