package commands

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/preview"
	"git.home.luguber.info/inful/blogbuilder/internal/server"
)

// ServeCmd implements the 'serve' command: plain static serving of a finished build.
type ServeCmd struct {
	Port        int    `short:"p" name:"port" help:"HTTP port (overrides config)"`
	MetricsPort int    `name:"metrics-port" help:"Serve /metrics and /health on this port"`
	Output      string `short:"o" name:"output" help:"Directory to serve (overrides config)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := setup(g, root)
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	if s.MetricsPort != 0 {
		cfg.Server.MetricsPort = s.MetricsPort
	}
	if s.Output != "" {
		cfg.Site.OutputDir = s.Output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := server.ValidateRoot(cfg.Site.OutputDir); err != nil {
		return err
	}

	opts := server.Options{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Root:      cfg.Site.OutputDir,
		AdminPort: cfg.Server.MetricsPort,
		Logger:    g.Logger,
	}
	if cfg.Server.MetricsPort != 0 {
		reg := prometheus.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
		opts.MetricsHandler = metrics.HTTPHandler(reg)
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(opts)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Serving %s at http://localhost:%d (Ctrl+C to stop)\n", cfg.Site.OutputDir, cfg.Server.Port)
	return srv.Wait(ctx, preview.ShutdownTimeout)
}
