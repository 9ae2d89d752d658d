package commands

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/preview"
)

// DevCmd implements the 'dev' command: build, serve with live reload, watch.
type DevCmd struct {
	Port        int    `short:"p" name:"port" help:"HTTP port (overrides config)"`
	MetricsPort int    `name:"metrics-port" help:"Serve /metrics and /health on this port"`
	Output      string `short:"o" name:"output" help:"Output directory (overrides config)"`
}

func (d *DevCmd) Run(g *Global, root *CLI) error {
	cfg, err := setup(g, root)
	if err != nil {
		return err
	}
	if d.Port != 0 {
		cfg.Server.Port = d.Port
	}
	if d.MetricsPort != 0 {
		cfg.Server.MetricsPort = d.MetricsPort
	}
	if d.Output != "" {
		cfg.Site.OutputDir = d.Output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := preview.Options{
		Build:        buildConfig(cfg),
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		StatusPath:   cfg.LiveReload.StatusPath,
		PollInterval: cfg.LiveReload.PollInterval,
		Cooldown:     cfg.LiveReload.Cooldown,
		QueueSize:    cfg.LiveReload.QueueSize,
		AdminPort:    cfg.Server.MetricsPort,
		Recorder:     metrics.NewPrometheusRecorder(reg),
		Logger:       g.Logger,
	}
	if cfg.Server.MetricsPort != 0 {
		opts.MetricsHandler = metrics.HTTPHandler(reg)
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, _ = fmt.Fprintf(g.stdout(), "Serving %s at http://localhost:%d (Ctrl+C to stop)\n", cfg.Site.OutputDir, cfg.Server.Port)
	return preview.Run(ctx, opts)
}
