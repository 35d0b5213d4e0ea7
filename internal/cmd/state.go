package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/coursegen/internal/config"
	"github.com/Iron-Ham/coursegen/internal/errors"
)

// currentSessionFile holds the ID of the session last started or resumed.
func currentSessionFile() string {
	return filepath.Join(config.ConfigDir(), "current_session")
}

func saveCurrentSession(id string) error {
	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(currentSessionFile(), []byte(id+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to save current session: %w", err)
	}
	return nil
}

func loadCurrentSession() (string, error) {
	data, err := os.ReadFile(currentSessionFile())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func clearCurrentSession() error {
	if err := os.Remove(currentSessionFile()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear current session: %w", err)
	}
	return nil
}

// sessionID resolves the session a command acts on: --session, then
// COURSEGEN_SESSION, then the current session file.
func sessionID() (string, error) {
	if id := viper.GetString("session"); id != "" {
		return id, nil
	}
	id, err := loadCurrentSession()
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: run 'coursegen start' or pass --session", errors.ErrNoSession)
	}
	return id, nil
}
