// Package config loads blogbuilder settings from an optional YAML file, .env
// files and BLOGBUILDER_* environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "blogbuilder.yaml"

// Config represents the application configuration.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Server     ServerConfig     `yaml:"server"`
	LiveReload LiveReloadConfig `yaml:"live_reload"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig locates the site sources and the build output.
type SiteConfig struct {
	PostsDir     string `yaml:"posts_dir"`
	TemplatesDir string `yaml:"templates_dir"`
	OutputDir    string `yaml:"output_dir"`
}

// ServerConfig controls the dev and serve HTTP listeners.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// MetricsPort enables the admin listener (/metrics, /health) when non-zero.
	MetricsPort int `yaml:"metrics_port"`
}

// LiveReloadConfig tunes the dev-mode watcher and browser polling.
type LiveReloadConfig struct {
	StatusPath   string        `yaml:"status_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Cooldown     time.Duration `yaml:"cooldown"`
	QueueSize    int           `yaml:"queue_size"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when it does not exist), then environment overrides. .env and
// .env.local in the working directory are loaded first without replacing
// variables that are already set.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, berrors.ConfigInvalid(".env", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, berrors.ConfigInvalid(path, err)
		default:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, berrors.ConfigInvalid(path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
