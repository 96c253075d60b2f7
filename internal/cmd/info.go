package cmd

import (
	"log/slog"

	"github.com/ccwaddey/myusbdevs/internal/dump"
	"github.com/ccwaddey/myusbdevs/internal/query"
)

// Info reports live device information, the tool's default mode.
type Info struct{}

func (Info) Run(g *Globals, logger *slog.Logger) error {
	return forEachController(g, logger, func(d *dump.Dumper, c query.Controller) {
		d.Devices(c, g.Addr)
	})
}

// Device reports the static device descriptor summary.
type Device struct{}

func (Device) Run(g *Globals, logger *slog.Logger) error {
	return forEachController(g, logger, func(d *dump.Dumper, c query.Controller) {
		d.DeviceDescriptors(c, g.Addr)
	})
}

// Stats reports per-controller transfer completion counters.
type Stats struct{}

func (Stats) Run(g *Globals, logger *slog.Logger) error {
	return forEachController(g, logger, func(d *dump.Dumper, c query.Controller) {
		d.Stats(c)
	})
}
