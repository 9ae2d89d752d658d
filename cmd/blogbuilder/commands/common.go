// Package commands implements the blogbuilder CLI subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout receives user-facing messages; os.Stdout when nil.
	Stdout io.Writer
	// LogOutput receives log records; os.Stderr when nil.
	LogOutput io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (optional)" default:"blogbuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site once into the output directory"`
	Dev   DevCmd   `cmd:"" help:"Build, serve with live reload, and rebuild on changes"`
	Serve ServeCmd `cmd:"" help:"Serve an existing output directory"`
	Init  InitCmd  `cmd:"" help:"Create a sample site to start from"`
}

// setup loads the configuration and installs the configured logger as the default.
func setup(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	out := g.LogOutput
	if out == nil {
		out = os.Stderr
	}
	g.Logger = cfg.Logging.NewLogger(out, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

func (g *Global) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// buildConfig maps site settings onto the builder's configuration.
func buildConfig(cfg *config.Config) build.Config {
	return build.Config{
		PostsDir:     cfg.Site.PostsDir,
		TemplatesDir: cfg.Site.TemplatesDir,
		OutputDir:    cfg.Site.OutputDir,
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
