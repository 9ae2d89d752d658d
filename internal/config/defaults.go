package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultPostsDir     = "posts"
	DefaultTemplatesDir = "templates"
	DefaultOutputDir    = "dist"
	DefaultPort         = 8000
	DefaultStatusPath   = "/__livereload"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultCooldown     = 500 * time.Millisecond
	DefaultQueueSize    = 64
)

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			PostsDir:     DefaultPostsDir,
			TemplatesDir: DefaultTemplatesDir,
			OutputDir:    DefaultOutputDir,
		},
		Server: ServerConfig{Port: DefaultPort},
		LiveReload: LiveReloadConfig{
			StatusPath:   DefaultStatusPath,
			PollInterval: DefaultPollInterval,
			Cooldown:     DefaultCooldown,
			QueueSize:    DefaultQueueSize,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Normalize fills empty fields left by a partial YAML file and canonicalizes
// enumerated values.
func (c *Config) Normalize() {
	def := Default()
	if c.Site.PostsDir == "" {
		c.Site.PostsDir = def.Site.PostsDir
	}
	if c.Site.TemplatesDir == "" {
		c.Site.TemplatesDir = def.Site.TemplatesDir
	}
	if c.Site.OutputDir == "" {
		c.Site.OutputDir = def.Site.OutputDir
	}
	if c.LiveReload.StatusPath == "" {
		c.LiveReload.StatusPath = def.LiveReload.StatusPath
	}
	c.Site.PostsDir = filepath.Clean(c.Site.PostsDir)
	c.Site.TemplatesDir = filepath.Clean(c.Site.TemplatesDir)
	c.Site.OutputDir = filepath.Clean(c.Site.OutputDir)
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}
