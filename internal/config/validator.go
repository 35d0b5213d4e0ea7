package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/coursegen/internal/tui/styles"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "polling.session_interval")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Poll interval bounds. Below the minimum the service is hammered; above the
// maximum progress looks stalled.
const (
	MinPollInterval = 100 * time.Millisecond
	MaxPollInterval = 5 * time.Minute
)

// MaxRequestTimeout bounds api.request_timeout.
const MaxRequestTimeout = 10 * time.Minute

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidDifficulties returns the list of valid course difficulties
func ValidDifficulties() []string {
	return []string{
		string(workflow.DifficultyBeginner),
		string(workflow.DifficultyIntermediate),
		string(workflow.DifficultyAdvanced),
	}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validatePolling()...)
	errors = append(errors, c.validateCourse()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateAPI validates the APIConfig
func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case c.API.BaseURL == "":
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: "is required",
		})
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: "must be an absolute http or https URL",
		})
	case strings.Contains(u.Path, "/admin/workflow"):
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: "must not include the /admin/workflow prefix",
		})
	}

	if c.API.RequestTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "api.request_timeout",
			Value:   c.API.RequestTimeout,
			Message: "must be positive",
		})
	} else if c.API.RequestTimeout > MaxRequestTimeout {
		errors = append(errors, ValidationError{
			Field:   "api.request_timeout",
			Value:   c.API.RequestTimeout,
			Message: fmt.Sprintf("exceeds maximum of %s", MaxRequestTimeout),
		})
	}

	return errors
}

// validatePolling validates the PollingConfig
func (c *Config) validatePolling() []ValidationError {
	var errors []ValidationError

	intervals := []struct {
		field string
		value time.Duration
	}{
		{"polling.session_interval", c.Polling.SessionInterval},
		{"polling.presentation_interval", c.Polling.PresentationInterval},
		{"polling.video_interval", c.Polling.VideoInterval},
	}
	for _, iv := range intervals {
		if iv.value < MinPollInterval || iv.value > MaxPollInterval {
			errors = append(errors, ValidationError{
				Field:   iv.field,
				Value:   iv.value,
				Message: fmt.Sprintf("must be between %s and %s", MinPollInterval, MaxPollInterval),
			})
		}
	}

	return errors
}

// validateCourse validates the CourseConfig
func (c *Config) validateCourse() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(workflow.Languages(), workflow.Language(c.Course.Language)) {
		langs := make([]string, 0, len(workflow.Languages()))
		for _, l := range workflow.Languages() {
			langs = append(langs, string(l))
		}
		errors = append(errors, ValidationError{
			Field:   "course.language",
			Value:   c.Course.Language,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(langs, ", ")),
		})
	}

	if c.Course.Difficulty != "" && !slices.Contains(ValidDifficulties(), c.Course.Difficulty) {
		errors = append(errors, ValidationError{
			Field:   "course.difficulty",
			Value:   c.Course.Difficulty,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidDifficulties(), ", ")),
		})
	}

	// 0 lets the service pick
	if c.Course.VideoDurationMin < 0 || c.Course.VideoDurationMin > 60 {
		errors = append(errors, ValidationError{
			Field:   "course.video_duration_min",
			Value:   c.Course.VideoDurationMin,
			Message: "must be between 1 and 60, or 0 for the service default",
		})
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.Theme != "" && !styles.IsValidTheme(c.TUI.Theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   c.TUI.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(styles.ThemeNames(), ", ")),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if strings.ContainsRune(c.Logging.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "path contains invalid null character",
		})
	}

	return errors
}
