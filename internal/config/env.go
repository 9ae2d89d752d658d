package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
)

// Environment variables that override file settings.
const (
	EnvPostsDir     = "BLOGBUILDER_POSTS_DIR"
	EnvTemplatesDir = "BLOGBUILDER_TEMPLATES_DIR"
	EnvOutputDir    = "BLOGBUILDER_OUTPUT_DIR"
	EnvPort         = "BLOGBUILDER_PORT"
	EnvLogLevel     = "BLOGBUILDER_LOG_LEVEL"
	EnvLogFormat    = "BLOGBUILDER_LOG_FORMAT"
)

// envFiles are tried in order; earlier files win since loading never
// overrides a variable that is already set.
var envFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads the .env files that exist in the working directory.
func LoadEnvFiles() error {
	var present []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvPostsDir); ok && v != "" {
		cfg.Site.PostsDir = v
	}
	if v, ok := os.LookupEnv(EnvTemplatesDir); ok && v != "" {
		cfg.Site.TemplatesDir = v
	}
	if v, ok := os.LookupEnv(EnvOutputDir); ok && v != "" {
		cfg.Site.OutputDir = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return berrors.ValidationFailed(EnvPort, "not an integer: "+v)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok && v != "" {
		cfg.Logging.Format = LogFormat(v)
	}
	return nil
}
