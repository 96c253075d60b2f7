// Package dump drives the per-controller reports: it walks the address
// space, issues descriptor queries and hands the decoded records to the
// renderer. Per-address failures never escape this package; a missing
// device is skipped silently and anything else becomes a warning.
package dump

import (
	"errors"
	"log/slog"

	"github.com/ccwaddey/myusbdevs/internal/query"
	"github.com/ccwaddey/myusbdevs/internal/render"
	"github.com/ccwaddey/myusbdevs/usb"
)

// Dumper runs one report kind against controllers. It holds no state
// between calls; the duplicate-suppression markers live on the stack of
// each enumeration.
type Dumper struct {
	r   *render.Renderer
	log *slog.Logger
}

// New returns a Dumper writing reports through r and warnings through
// logger.
func New(r *render.Renderer, logger *slog.Logger) *Dumper {
	return &Dumper{r: r, log: logger}
}

// warn reports a query failure unless it only says the address is empty,
// which is the expected outcome of probing every address.
func (d *Dumper) warn(c query.Controller, addr uint8, err error) {
	if errors.Is(err, query.ErrNoDevice) {
		return
	}
	d.log.Warn("device query failed", "controller", c.Name(), "addr", addr, "error", err)
}

// Devices reports live device info: one address when addr is nonzero,
// otherwise every address on the controller in ascending order. The seen
// markers are reset here so repeated calls against one controller cannot
// double-report an address.
func (d *Dumper) Devices(c query.Controller, addr uint8) {
	var seen [usb.MaxDevices]bool
	if addr != 0 {
		d.device(c, addr, &seen)
		return
	}
	d.r.ControllerHeader(c.Name())
	for a := uint8(1); a < usb.MaxDevices; a++ {
		if !seen[a] {
			d.device(c, a, &seen)
		}
	}
}

func (d *Dumper) device(c query.Controller, addr uint8, seen *[usb.MaxDevices]bool) {
	di, err := c.LiveInfo(addr)
	if err != nil {
		d.warn(c, addr, err)
		return
	}
	seen[addr] = true
	d.r.DeviceInfo(di)
}

// DeviceDescriptors reports the static device descriptor line for one or
// all addresses.
func (d *Dumper) DeviceDescriptors(c query.Controller, addr uint8) {
	if addr != 0 {
		d.deviceDescriptor(c, addr)
		return
	}
	d.r.ControllerHeader(c.Name())
	for a := uint8(1); a < usb.MaxDevices; a++ {
		d.deviceDescriptor(c, a)
	}
}

func (d *Dumper) deviceDescriptor(c query.Controller, addr uint8) {
	dd, err := c.DeviceDescriptor(addr)
	if err != nil {
		d.warn(c, addr, err)
		return
	}
	d.r.DeviceDescriptor(addr, dd)
}

// Configs reports the configuration descriptor summary for one or all
// addresses. cfgIndex is 0-based, or usb.CurrentConfig.
func (d *Dumper) Configs(c query.Controller, addr uint8, cfgIndex int) {
	if addr != 0 {
		d.config(c, addr, cfgIndex)
		return
	}
	d.r.ControllerHeader(c.Name())
	for a := uint8(1); a < usb.MaxDevices; a++ {
		d.config(c, a, cfgIndex)
	}
}

func (d *Dumper) config(c query.Controller, addr uint8, cfgIndex int) {
	cd, err := c.ConfigDescriptor(addr, cfgIndex)
	if err != nil {
		d.warn(c, addr, err)
		return
	}
	d.r.Config(addr, cd)
}

// configTotalLength fetches the configuration descriptor solely for its
// wTotalLength, without rendering anything. 0 means the fetch failed and
// the full dump for this address should be skipped.
func (d *Dumper) configTotalLength(c query.Controller, addr uint8, cfgIndex int) uint16 {
	cd, err := c.ConfigDescriptor(addr, cfgIndex)
	if err != nil {
		d.warn(c, addr, err)
		return 0
	}
	return cd.TotalLength
}

// Full reports the complete chained descriptor set for one or all
// addresses.
func (d *Dumper) Full(c query.Controller, addr uint8, cfgIndex int) {
	if addr != 0 {
		d.full(c, addr, cfgIndex)
		return
	}
	d.r.ControllerHeader(c.Name())
	for a := uint8(1); a < usb.MaxDevices; a++ {
		d.full(c, a, cfgIndex)
	}
}

func (d *Dumper) full(c query.Controller, addr uint8, cfgIndex int) {
	total := d.configTotalLength(c, addr, cfgIndex)
	if total == 0 {
		return
	}
	buf := make([]byte, total)
	if err := c.FullDescriptor(addr, cfgIndex, buf); err != nil {
		d.warn(c, addr, err)
		return
	}
	d.r.FullHeader(addr)
	w := usb.NewChainWalker(buf)
	for sub, ok := w.Next(); ok; sub, ok = w.Next() {
		d.r.Sub(sub)
	}
	if err := w.Err(); err != nil {
		d.log.Warn("descriptor chain truncated",
			"controller", c.Name(), "addr", addr, "error", err)
	}
}

// Stats reports the controller's transfer counters.
func (d *Dumper) Stats(c query.Controller) {
	s, err := c.Stats()
	if err != nil {
		d.warn(c, 0, err)
		return
	}
	d.r.Stats(c.Name(), s)
}
