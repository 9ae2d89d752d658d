package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" name:"output" help:"Output directory (overrides config)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := setup(g, root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Site.OutputDir = b.Output
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := build.NewBuilder(buildConfig(cfg)).WithLogger(g.Logger).Run(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Built %d posts into %s in %s\n", report.Posts, report.OutputDir, report.Duration.Round(time.Millisecond))
	return nil
}
