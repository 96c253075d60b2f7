// Package cmd defines the usbdevs command line surface. Each subcommand
// selects one report kind; shared flags pick the controller, the target
// address and the verbosity.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ccwaddey/myusbdevs/internal/dump"
	"github.com/ccwaddey/myusbdevs/internal/query"
	"github.com/ccwaddey/myusbdevs/internal/render"
	"github.com/ccwaddey/myusbdevs/usb"
)

// LogConfig configures the slog setup.
type LogConfig struct {
	Level string `help:"Log level." enum:"debug,info,warn,error" default:"info" env:"USBDEVS_LOG_LEVEL"`
	File  string `help:"Also write logs to this file." env:"USBDEVS_LOG_FILE"`
}

// Globals are the flags every report command shares.
type Globals struct {
	Addr       uint8  `short:"a" help:"Device address to query (1-127); 0 queries every address." default:"0"`
	Controller string `short:"d" help:"Controller to query (device path or usbN bus name); all controllers when empty." env:"USBDEVS_CONTROLLER"`
	Verbose    int    `short:"v" type:"counter" help:"Add report detail; repeat for per-port hub status."`
	ConfigFile string `name:"config-file" help:"Configuration file to load." type:"path" template:"-"`
}

func (g *Globals) Validate() error {
	if g.Addr >= usb.MaxDevices {
		return fmt.Errorf("addr %d out of range 1-%d", g.Addr, usb.MaxDevices-1)
	}
	return nil
}

// CLI is the kong root.
type CLI struct {
	Globals
	Log LogConfig `embed:"" prefix:"log."`

	Info     Info     `cmd:"" default:"withargs" help:"Report live device information (default)."`
	Device   Device   `cmd:"" help:"Report static device descriptors."`
	Config   Config   `cmd:"" help:"Report configuration descriptors."`
	Full     Full     `cmd:"" help:"Dump the full chained descriptor set of a configuration."`
	Stats    Stats    `cmd:"" help:"Report controller transfer statistics."`
	Template Template `cmd:"" help:"Generate a configuration file template."`
}

// forEachController runs one report against the selected controller, or
// against every controller on the host when none was named. Failures to
// open individual controllers are warnings; the report carries on with
// whatever opened.
func forEachController(g *Globals, logger *slog.Logger, fn func(*dump.Dumper, query.Controller)) error {
	r := render.New(os.Stdout, g.Verbose)
	d := dump.New(r, logger)

	backend, err := query.NewBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	if g.Controller != "" {
		ctrl, err := backend.Open(g.Controller)
		if err != nil {
			return err
		}
		defer ctrl.Close()
		fn(d, ctrl)
		return nil
	}

	ctrls, openErr := backend.Controllers()
	if openErr != nil {
		logger.Warn("some controllers could not be opened", "error", openErr)
	}
	for _, ctrl := range ctrls {
		fn(d, ctrl)
		_ = ctrl.Close()
	}
	if len(ctrls) == 0 && g.Verbose > 0 {
		r.NoControllers()
	}
	return nil
}

// configIndex converts a user-facing 1-based configuration number to the
// 0-based index the query layer wants, with 0 meaning "current".
func configIndex(number int) (int, error) {
	if number == 0 {
		return usb.CurrentConfig, nil
	}
	if number < 1 || number > usb.MaxConfigs {
		return 0, fmt.Errorf("config %d out of range 1-%d", number, usb.MaxConfigs)
	}
	return number - 1, nil
}
