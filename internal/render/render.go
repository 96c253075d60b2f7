// Package render turns decoded USB records into the tool's line-oriented
// report format. Rendering is pure formatting: the same record always
// produces the same bytes, and device-supplied strings pass through
// vis.Escape before they reach the output stream.
package render

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ccwaddey/myusbdevs/internal/vis"
	"github.com/ccwaddey/myusbdevs/usb"
)

const defaultHexPerLine = 10

// Renderer writes reports to a single output stream. Verbosity selects
// how many tiers of the live device report are shown.
type Renderer struct {
	w          io.Writer
	verbose    int
	hexPerLine int
}

// New returns a renderer for w. When w is a terminal the hex dump width
// of unknown descriptors stretches to the terminal width.
func New(w io.Writer, verbose int) *Renderer {
	r := &Renderer{w: w, verbose: verbose, hexPerLine: defaultHexPerLine}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			// "0x00 " per byte after the indent.
			if n := (cols - 10) / 5; n > r.hexPerLine {
				r.hexPerLine = n
			}
		}
	}
	return r
}

// ControllerHeader introduces a controller's report block.
func (r *Renderer) ControllerHeader(name string) {
	fmt.Fprintf(r.w, "Controller %s:\n", name)
}

// NoControllers is printed when scanning found nothing to report on.
func (r *Renderer) NoControllers() {
	fmt.Fprintln(r.w, "usbdevs: no USB controllers found")
}

// DeviceInfo renders the live device report. The summary line always
// appears; verbosity 1 adds the detail tier and driver bindings,
// verbosity 2 adds per-port status for hubs.
func (r *Renderer) DeviceInfo(di *usb.DeviceInfo) {
	fmt.Fprintf(r.w, "addr %02d: %04x:%04x %s, %s, usb_bus: %d",
		di.Addr, di.VendorID, di.ProductID,
		vis.Escape(di.Vendor), vis.Escape(di.Product), di.Bus)

	if r.verbose > 0 {
		fmt.Fprintf(r.w, "\n\t ")
		if di.Speed != usb.SpeedUnknown {
			fmt.Fprintf(r.w, "%s speed", di.Speed)
		}
		if di.Power != 0 {
			fmt.Fprintf(r.w, ", power %d mA", di.Power)
		} else {
			fmt.Fprintf(r.w, ", self powered")
		}
		if di.Config != 0 {
			fmt.Fprintf(r.w, ", config %d", di.Config)
		} else {
			fmt.Fprintf(r.w, ", unconfigured")
		}
		fmt.Fprintf(r.w, ", rev %s (0x%x)", vis.Escape(di.Release), di.ReleaseCode)
		fmt.Fprintf(r.w, "\n\t class: %d, subclass: %d, protocol: %d",
			di.Class, di.SubClass, di.Protocol)
		if di.Serial != "" {
			fmt.Fprintf(r.w, ", iSerial %s", vis.Escape(di.Serial))
		}
	}
	fmt.Fprintln(r.w)

	if r.verbose > 0 {
		for _, name := range di.Drivers {
			fmt.Fprintf(r.w, "\t driver: %s\n", name)
		}
	}
	if r.verbose > 1 {
		for i, port := range di.Ports {
			fmt.Fprintf(r.w, "\t port %02d: %04x.%04x", i+1, port.Change, port.Status)
			for _, label := range port.Labels(di.Speed) {
				fmt.Fprintf(r.w, " %s", label)
			}
			fmt.Fprintln(r.w)
		}
	}
}

// DeviceDescriptor renders the static identity line.
func (r *Renderer) DeviceDescriptor(addr uint8, d *usb.DeviceDescriptor) {
	fmt.Fprintf(r.w, "addr %02d: max packet: %2d, num configs: %d, iManufacturer: %d\n",
		addr, d.MaxPacketSize, d.NumConfigurations, d.ManufacturerIndex)
}

// Config renders a configuration descriptor summary with its attribute
// flags line.
func (r *Renderer) Config(addr uint8, c *usb.ConfigDescriptor) {
	fmt.Fprintf(r.w, "addr %02d, config %02d: interfaces: %d, max-power: %dmA",
		addr, c.Value, c.NumInterfaces, c.PowerMilliamps())
	fmt.Fprintf(r.w, "\n\t attr 0x%02x:", uint8(c.Attributes))
	if c.Attributes&usb.AttrBusPowered != 0 {
		fmt.Fprintf(r.w, " bus-powered")
	}
	if c.Attributes&usb.AttrSelfPowered != 0 {
		fmt.Fprintf(r.w, " self-powered")
	}
	if c.Attributes&usb.AttrRemoteWakeup != 0 {
		fmt.Fprintf(r.w, " remote-wakeup")
	}
	fmt.Fprintln(r.w)
}

// FullHeader opens a device's full descriptor dump; the first chained
// sub-descriptor continues the same line.
func (r *Renderer) FullHeader(addr uint8) {
	fmt.Fprintf(r.w, "addr %02d, ", addr)
}

// Sub renders one decoded sub-descriptor from a chained dump.
func (r *Renderer) Sub(sub usb.SubDescriptor) {
	switch d := sub.(type) {
	case usb.ConfigSummary:
		fmt.Fprintf(r.w, "config %02d:\n", d.Value)
	case usb.InterfaceDesc:
		fmt.Fprintf(r.w, "\t iface: %02d, altset: %02d, numendpts: %02d, "+
			"class: %02d, subclass: %02d, protocol: %02d\n",
			d.Number, d.AltSetting, d.NumEndpoints, d.Class, d.SubClass, d.Protocol)
	case usb.EndpointDesc:
		fmt.Fprintf(r.w, "\t \t endpt_addr: %02d, dir: %s, %s, ",
			d.Number, d.Direction, d.Transfer)
		if d.Transfer == usb.TransferTypeIsochronous {
			fmt.Fprintf(r.w, "sync_type: %s, ", d.SyncType)
		}
		fmt.Fprintf(r.w, "max_packet: %d, polling_interval: %02d\n",
			d.MaxPacketSize, d.Interval)
	case usb.UnknownDesc:
		fmt.Fprintf(r.w, "\t unknown: %02d", uint8(d.Type))
		for i, b := range d.Raw {
			if i%r.hexPerLine == 0 {
				fmt.Fprintf(r.w, "\n\t ")
			}
			fmt.Fprintf(r.w, "0x%02x ", b)
		}
		fmt.Fprintln(r.w)
	}
}

// Stats renders a controller's transfer completion counters.
func (r *Renderer) Stats(name string, s *usb.ControllerStats) {
	fmt.Fprintf(r.w, "Controller %s:", name)
	fmt.Fprintf(r.w, "\n\t Transfers completed:")
	labels := [...]string{"Control", "Isochronous", "Bulk", "Interrupt"}
	for i, label := range labels {
		fmt.Fprintf(r.w, "\n\t %s: %d", label, s.Requests[i])
	}
	fmt.Fprintln(r.w)
}
