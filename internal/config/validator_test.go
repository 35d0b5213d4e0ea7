package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got errors: %v", errs)
	}
}

// validateField runs Validate on a modified default config and checks
// whether field was reported.
func validateField(t *testing.T, mutate func(*Config), field string, wantErr bool) {
	t.Helper()
	cfg := Default()
	mutate(cfg)

	errs := cfg.Validate()
	found := false
	for _, e := range errs {
		if e.Field == field {
			found = true
			break
		}
	}
	if found != wantErr {
		t.Errorf("Validate() error on %s = %v, want %v (errors: %v)", field, found, wantErr, errs)
	}
}

func TestConfig_Validate_API(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"http", "http://localhost:8080", false},
		{"https with path", "https://example.com/api", false},
		{"empty", "", true},
		{"no scheme", "localhost:8080", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "http://", true},
		{"includes workflow prefix", "https://example.com/admin/workflow", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validateField(t, func(c *Config) { c.API.BaseURL = tt.baseURL }, "api.base_url", tt.wantErr)
		})
	}
}

func TestConfig_Validate_RequestTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"valid", 10 * time.Second, false},
		{"maximum", MaxRequestTimeout, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
		{"too long", MaxRequestTimeout + time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validateField(t, func(c *Config) { c.API.RequestTimeout = tt.timeout }, "api.request_timeout", tt.wantErr)
		})
	}
}

func TestConfig_Validate_Polling(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		wantErr  bool
	}{
		{"minimum", MinPollInterval, false},
		{"typical", 2 * time.Second, false},
		{"maximum", MaxPollInterval, false},
		{"zero", 0, true},
		{"too fast", 50 * time.Millisecond, true},
		{"too slow", MaxPollInterval + time.Second, true},
	}

	fields := map[string]func(*Config, time.Duration){
		"polling.session_interval":      func(c *Config, d time.Duration) { c.Polling.SessionInterval = d },
		"polling.presentation_interval": func(c *Config, d time.Duration) { c.Polling.PresentationInterval = d },
		"polling.video_interval":        func(c *Config, d time.Duration) { c.Polling.VideoInterval = d },
	}

	for field, set := range fields {
		for _, tt := range tests {
			t.Run(field+"/"+tt.name, func(t *testing.T) {
				validateField(t, func(c *Config) { set(c, tt.interval) }, field, tt.wantErr)
			})
		}
	}
}

func TestConfig_Validate_Course(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"language de", func(c *Config) { c.Course.Language = "de" }, "course.language", false},
		{"language unknown", func(c *Config) { c.Course.Language = "xx" }, "course.language", true},
		{"language empty", func(c *Config) { c.Course.Language = "" }, "course.language", true},
		{"difficulty advanced", func(c *Config) { c.Course.Difficulty = "advanced" }, "course.difficulty", false},
		{"difficulty empty", func(c *Config) { c.Course.Difficulty = "" }, "course.difficulty", false},
		{"difficulty unknown", func(c *Config) { c.Course.Difficulty = "expert" }, "course.difficulty", true},
		{"duration service default", func(c *Config) { c.Course.VideoDurationMin = 0 }, "course.video_duration_min", false},
		{"duration max", func(c *Config) { c.Course.VideoDurationMin = 60 }, "course.video_duration_min", false},
		{"duration negative", func(c *Config) { c.Course.VideoDurationMin = -1 }, "course.video_duration_min", true},
		{"duration too long", func(c *Config) { c.Course.VideoDurationMin = 61 }, "course.video_duration_min", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validateField(t, tt.mutate, tt.field, tt.wantErr)
		})
	}
}

func TestConfig_Validate_Theme(t *testing.T) {
	tests := []struct {
		theme   string
		wantErr bool
	}{
		{"default", false},
		{"nord", false},
		{"dracula", false},
		{"light", false},
		{"", false},
		{"solarized", true},
	}

	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			validateField(t, func(c *Config) { c.TUI.Theme = tt.theme }, "tui.theme", tt.wantErr)
		})
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	for _, level := range ValidLogLevels() {
		t.Run("level "+level, func(t *testing.T) {
			validateField(t, func(c *Config) { c.Logging.Level = level }, "logging.level", false)
		})
	}
	t.Run("level uppercase", func(t *testing.T) {
		validateField(t, func(c *Config) { c.Logging.Level = "DEBUG" }, "logging.level", true)
	})
	t.Run("level unknown", func(t *testing.T) {
		validateField(t, func(c *Config) { c.Logging.Level = "trace" }, "logging.level", true)
	})
	t.Run("dir with null byte", func(t *testing.T) {
		validateField(t, func(c *Config) { c.Logging.Dir = "logs\x00" }, "logging.dir", true)
	})
	t.Run("dir", func(t *testing.T) {
		validateField(t, func(c *Config) { c.Logging.Dir = "/var/log/coursegen" }, "logging.dir", false)
	})
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = ""
	cfg.Polling.VideoInterval = 0
	cfg.Course.Language = "xx"
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 4 {
		t.Errorf("len(Validate()) = %d, want 4: %v", len(errs), errs)
	}
}
