package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Session is the on-disk login state written by `sf login`.
type Session struct {
	AuthToken string `yaml:"auth_token"`
	AccountID string `yaml:"account_id,omitempty"`
}

func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sf", "config.yaml")
	}
	return filepath.Join(home, ".sf", "config.yaml")
}

// LoadSession reads the session file. A missing file yields an empty Session.
func LoadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}
