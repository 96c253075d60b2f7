package cmd

import (
	"log/slog"

	"github.com/ccwaddey/myusbdevs/internal/dump"
	"github.com/ccwaddey/myusbdevs/internal/query"
)

// Config reports configuration descriptor summaries.
type Config struct {
	Number int `arg:"" optional:"" help:"1-based configuration number; the active configuration when omitted."`
}

func (c *Config) Run(g *Globals, logger *slog.Logger) error {
	idx, err := configIndex(c.Number)
	if err != nil {
		return err
	}
	return forEachController(g, logger, func(d *dump.Dumper, ctrl query.Controller) {
		d.Configs(ctrl, g.Addr, idx)
	})
}

// Full dumps a configuration's complete chained descriptor set.
type Full struct {
	Number int `arg:"" optional:"" help:"1-based configuration number; the active configuration when omitted."`
}

func (f *Full) Run(g *Globals, logger *slog.Logger) error {
	idx, err := configIndex(f.Number)
	if err != nil {
		return err
	}
	return forEachController(g, logger, func(d *dump.Dumper, ctrl query.Controller) {
		d.Full(ctrl, g.Addr, idx)
	})
}
