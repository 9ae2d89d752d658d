package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
)

// isolate runs the test from an empty directory with no BLOGBUILDER_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{EnvPostsDir, EnvTemplatesDir, EnvOutputDir, EnvPort, EnvLogLevel, EnvLogFormat} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, DefaultPath))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "posts", cfg.Site.PostsDir)
	require.Equal(t, "templates", cfg.Site.TemplatesDir)
	require.Equal(t, "dist", cfg.Site.OutputDir)
	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "/__livereload", cfg.LiveReload.StatusPath)
	require.Equal(t, 500*time.Millisecond, cfg.LiveReload.PollInterval)
	require.Equal(t, 500*time.Millisecond, cfg.LiveReload.Cooldown)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
site:
  posts_dir: content
server:
  port: 9000
  metrics_port: 9100
live_reload:
  poll_interval: 250ms
  cooldown: 1s
logging:
  level: DEBUG
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "content", cfg.Site.PostsDir)
	require.Equal(t, "templates", cfg.Site.TemplatesDir)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 9100, cfg.Server.MetricsPort)
	require.Equal(t, 250*time.Millisecond, cfg.LiveReload.PollInterval)
	require.Equal(t, time.Second, cfg.LiveReload.Cooldown)
	require.Equal(t, LogLevelDebug, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "server:\n  port: 9000\nsite:\n  output_dir: public\n")
	t.Setenv(EnvPort, "9001")
	t.Setenv(EnvOutputDir, "out")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9001, cfg.Server.Port)
	require.Equal(t, "out", cfg.Site.OutputDir)
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
}

func TestLoad_CleansSiteDirs(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "site:\n  posts_dir: ./content/\n  output_dir: dist/\n")
	t.Setenv(EnvTemplatesDir, "layout//")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "content", cfg.Site.PostsDir)
	require.Equal(t, "layout", cfg.Site.TemplatesDir)
	require.Equal(t, "dist", cfg.Site.OutputDir)
}

func TestLoad_ExpandsEnvInFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("BLOG_ROOT", "/srv/blog")
	path := writeConfig(t, dir, "site:\n  posts_dir: ${BLOG_ROOT}/posts\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/blog/posts", cfg.Site.PostsDir)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvPostsDir+"=from-dotenv\n"+EnvTemplatesDir+"=tpl-dotenv\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte(EnvTemplatesDir+"=tpl-local\n"), 0o600))
	t.Setenv(EnvPostsDir, "from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Site.PostsDir)
	require.Equal(t, "tpl-local", cfg.Site.TemplatesDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "site: [unterminated\n")

	_, err := Load(path)
	require.Error(t, err)
	require.True(t, berrors.IsCategory(err, berrors.CategoryConfig))
}

func TestLoad_InvalidPortEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPort, "eighty")

	_, err := Load("")
	require.Error(t, err)
	require.True(t, berrors.IsCategory(err, berrors.CategoryValidation))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port zero":           func(c *Config) { c.Server.Port = 0 },
		"port too large":      func(c *Config) { c.Server.Port = 70000 },
		"metrics equals port": func(c *Config) { c.Server.MetricsPort = c.Server.Port },
		"poll interval":       func(c *Config) { c.LiveReload.PollInterval = 0 },
		"cooldown":            func(c *Config) { c.LiveReload.Cooldown = -time.Second },
		"queue size":          func(c *Config) { c.LiveReload.QueueSize = 0 },
		"relative path":       func(c *Config) { c.LiveReload.StatusPath = "__livereload" },
		"root path":           func(c *Config) { c.LiveReload.StatusPath = "/" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, berrors.IsCategory(err, berrors.CategoryValidation))
		})
	}
	require.NoError(t, Default().Validate())
}

func TestNormalizeLogging(t *testing.T) {
	require.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("loud"))
	require.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	require.Equal(t, LogFormatText, NormalizeLogFormat(""))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	LoggingConfig{Level: LogLevelInfo, Format: LogFormatJSON}.NewLogger(&buf, false).Debug("hidden")
	require.Empty(t, buf.String())

	LoggingConfig{Level: LogLevelInfo, Format: LogFormatJSON}.NewLogger(&buf, true).Debug("shown")
	require.True(t, strings.HasPrefix(buf.String(), "{"))
	require.Contains(t, buf.String(), `"msg":"shown"`)
}
