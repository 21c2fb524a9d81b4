package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ReleaseEntry records the terminal state of one workflow run
type ReleaseEntry struct {
	Timestamp   string   `yaml:"timestamp"`
	Workflow    string   `yaml:"workflow"`
	Repository  string   `yaml:"repository"`
	Remote      string   `yaml:"remote,omitempty"`
	FromVersion string   `yaml:"from_version,omitempty"`
	ToVersion   string   `yaml:"to_version,omitempty"`
	Branch      string   `yaml:"branch,omitempty"`
	Tag         string   `yaml:"tag,omitempty"`
	Status      string   `yaml:"status"`
	Pushed      []string `yaml:"pushed,omitempty"`
	Rejected    []string `yaml:"rejected,omitempty"`
	Message     string   `yaml:"message"`
}

// ReleaseHistory stores every recorded release run, oldest first
type ReleaseHistory struct {
	Entries []ReleaseEntry `yaml:"entries"`
}

// Journal appends release entries to a YAML history file
type Journal struct {
	Path string
}

// DefaultHistoryFilePath returns the history file under the user config directory
func DefaultHistoryFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "git_release", "history.yml"), nil
}

// Load loads the release history from file
func (j *Journal) Load() (*ReleaseHistory, error) {
	// Check if file exists
	if _, err := os.Stat(j.Path); os.IsNotExist(err) {
		// If file doesn't exist, return an empty history
		return &ReleaseHistory{Entries: []ReleaseEntry{}}, nil
	}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var history ReleaseHistory
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return &history, nil
}

// Save writes the release history to file
func (j *Journal) Save(history *ReleaseHistory) error {
	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(j.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.WriteFile(j.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// Record stamps entry with the current time and appends it to the history
func (j *Journal) Record(entry ReleaseEntry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().Format(time.RFC3339)
	}

	history, err := j.Load()
	if err != nil {
		return err
	}
	history.Entries = append(history.Entries, entry)

	return j.Save(history)
}
