package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the repository root
const DefaultFile = ".release.yml"

// ErrConfigRead and ErrConfigParse separate I/O from syntax problems
var (
	ErrConfigRead  = errors.New("failed to read config file")
	ErrConfigParse = errors.New("failed to parse config file")
)

// Configuration represents the YAML configuration file structure
type Configuration struct {
	Upstream    string `yaml:"upstream"`
	Mainline    string `yaml:"mainline"`
	Manifest    string `yaml:"manifest"`
	TLS         string `yaml:"tls"`
	CABundle    string `yaml:"ca_bundle"`
	HistoryFile string `yaml:"history_file"`
	Review      Review `yaml:"review"`
	Bump        Bump   `yaml:"bump"`
}

// Review configures the sign-off gate
type Review struct {
	MaxLines int           `yaml:"max_lines"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Bump configures the version bump tool. An empty Command selects the
// built-in manifest bumper.
type Bump struct {
	Command []string `yaml:"command"`
	Message string   `yaml:"message"`
}

// Default returns the configuration used when no file is present
func Default() *Configuration {
	return &Configuration{
		Upstream: "origin",
		Mainline: "master",
		Manifest: "package.json",
		TLS:      "skip",
		Review:   Review{MaxLines: 200},
		Bump:     Bump{Message: "release %s"},
	}
}

// ReadConfig reads and parses the configuration file. A missing file yields
// the defaults; keys absent from the file keep their default value.
func ReadConfig(configPath string) (*Configuration, error) {
	config := Default()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve absolute path: %v", ErrConfigRead, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigRead, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, absPath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, absPath, err)
	}

	return config, nil
}

// Validate checks values that cannot be defaulted
func (c *Configuration) Validate() error {
	switch c.TLS {
	case "skip", "system":
	case "pinned":
		if c.CABundle == "" {
			return errors.New("tls: pinned requires ca_bundle")
		}
	default:
		return fmt.Errorf("tls must be skip, system or pinned, got %q", c.TLS)
	}
	if c.Upstream == "" || c.Mainline == "" || c.Manifest == "" {
		return errors.New("upstream, mainline and manifest must not be empty")
	}
	if c.Review.Timeout < 0 {
		return errors.New("review.timeout must not be negative")
	}
	return nil
}
