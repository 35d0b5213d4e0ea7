package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func readEntries(t *testing.T, content []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in log directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(filepath.Join(dir, LogFileName)); os.IsNotExist(err) {
			t.Errorf("log file was not created in %s", dir)
		}
	})

	t.Run("writes to stderr when dir is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.file != nil {
			t.Error("expected file to be nil when dir is empty")
		}
	})
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := readEntries(t, buf.Bytes())
	if len(entries) != 2 {
		t.Fatalf("expected 2 log lines (WARN and ERROR only), got %d: %s", len(entries), buf.String())
	}
	if entries[0]["level"] != "WARN" || entries[1]["level"] != "ERROR" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	child := logger.WithSession("session-123").WithStep("refinement").WithLesson("lesson-9")
	child.Info("poll stopped", "reason", "settled")

	entries := readEntries(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]

	want := map[string]string{
		"session_id": "session-123",
		"step":       "refinement",
		"lesson_id":  "lesson-9",
		"reason":     "settled",
		"msg":        "poll stopped",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	logger.With("epoch", 7, 42, "ignored-non-string-key").Info("stale response dropped")

	entry := readEntries(t, buf.Bytes())[0]
	if entry["epoch"] != float64(7) {
		t.Errorf("expected epoch=7, got %v", entry["epoch"])
	}
	if logger.With() != logger {
		t.Error("With() without args should return the same logger")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	if err := logger.Close(); err != nil {
		t.Errorf("NopLogger.Close() returned error: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"ERROR", LevelError},
		{"invalid", LevelInfo},
		{"", LevelInfo},
	}

	for _, tc := range tests {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.WithSession("s").Info("test message")

	if err := logger.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second Close() returned error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(content) == 0 {
		t.Error("log file is empty, expected content")
	}
}

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			child := logger.WithLesson("lesson")
			for j := 0; j < 100; j++ {
				child.Info("poll tick", "goroutine", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if got := len(readEntries(t, content)); got != 1000 {
		t.Errorf("expected 1000 log lines, got %d", got)
	}
}
