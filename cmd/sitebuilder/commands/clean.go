package commands

import (
	"git.home.luguber.info/inful/sitebuilder/internal/assembly"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if err := assembly.NewBuilder(cfg).WithLogger(g.Logger).Clean(); err != nil {
		return err
	}
	g.Logger.Info("Removed output directory", logfields.Output(cfg.Output))
	return nil
}
