package commands

import (
	"fmt"

	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." type:"path" help:"Directory to create the site in"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	out := g.stdout()
	_, _ = fmt.Fprintf(out, "Creating sample site in %s\n", i.Dir)
	written, err := scaffold.Write(i.Dir, i.Force)
	if err != nil {
		return berrors.Wrap(err, berrors.CategoryFileSystem, berrors.SeverityFatal, "init failed").
			WithContext("dir", i.Dir)
	}
	for _, f := range written {
		_, _ = fmt.Fprintf(out, "  %s\n", f)
	}
	_, _ = fmt.Fprintln(out, "Run 'blogbuilder dev' to preview it.")
	return nil
}
