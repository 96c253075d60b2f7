//go:build !openbsd

package query

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/gousb"

	"github.com/ccwaddey/myusbdevs/usb"
)

const reqGetDescriptor = 0x06

// libusbBackend exposes each libusb bus as one controller. It owns a
// single gousb context shared by every controller it hands out.
type libusbBackend struct {
	ctx *gousb.Context
}

// NewBackend returns the libusb backend.
func NewBackend() (Backend, error) {
	return &libusbBackend{ctx: gousb.NewContext()}, nil
}

func (b *libusbBackend) Close() error { return b.ctx.Close() }

func (b *libusbBackend) Controllers() ([]Controller, error) {
	buses, err := b.scanBuses()
	if err != nil {
		return nil, err
	}
	ctrls := make([]Controller, 0, len(buses))
	for _, bus := range buses {
		ctrls = append(ctrls, &libusbController{ctx: b.ctx, bus: bus})
	}
	return ctrls, nil
}

func (b *libusbBackend) Open(name string) (Controller, error) {
	bus, err := strconv.Atoi(strings.TrimPrefix(name, "usb"))
	if err != nil {
		return nil, fmt.Errorf("controller %q: want a bus number or usbN name", name)
	}
	buses, err := b.scanBuses()
	if err != nil {
		return nil, err
	}
	for _, got := range buses {
		if got == bus {
			return &libusbController{ctx: b.ctx, bus: bus}, nil
		}
	}
	return nil, fmt.Errorf("controller %q: no such bus", name)
}

// scanBuses walks the device list once without opening anything, just to
// learn which bus numbers exist.
func (b *libusbBackend) scanBuses() ([]int, error) {
	seen := make(map[int]bool)
	_, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		seen[desc.Bus] = true
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate buses: %w", err)
	}
	buses := make([]int, 0, len(seen))
	for bus := range seen {
		buses = append(buses, bus)
	}
	sort.Ints(buses)
	return buses, nil
}

type libusbController struct {
	ctx *gousb.Context
	bus int
}

func (c *libusbController) Name() string { return fmt.Sprintf("usb%d", c.bus) }

// Close is a no-op; the gousb context belongs to the backend.
func (c *libusbController) Close() error { return nil }

func (c *libusbController) open(addr uint8) (*gousb.Device, error) {
	devs, err := c.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Bus == c.bus && desc.Address == int(addr)
	})
	if len(devs) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, ErrNoDevice
	}
	for _, d := range devs[1:] {
		_ = d.Close()
	}
	return devs[0], nil
}

func (c *libusbController) LiveInfo(addr uint8) (*usb.DeviceInfo, error) {
	dev, err := c.open(addr)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	desc := dev.Desc
	info := &usb.DeviceInfo{
		Addr:        addr,
		VendorID:    uint16(desc.Vendor),
		ProductID:   uint16(desc.Product),
		Release:     desc.Device.String(),
		ReleaseCode: uint16(desc.Device),
		Bus:         uint8(desc.Bus),
		Speed:       mapSpeed(desc.Speed),
		Class:       uint8(desc.Class),
		SubClass:    uint8(desc.SubClass),
		Protocol:    uint8(desc.Protocol),
	}
	// String reads need extra control transfers and may be refused;
	// missing strings just render empty.
	if s, err := dev.Manufacturer(); err == nil {
		info.Vendor = s
	}
	if s, err := dev.Product(); err == nil {
		info.Product = s
	}
	if s, err := dev.SerialNumber(); err == nil {
		info.Serial = s
	}
	if n, err := dev.ActiveConfigNum(); err == nil {
		info.Config = n
		if cfg, ok := desc.Configs[n]; ok && !cfg.SelfPowered {
			info.Power = int(cfg.MaxPower)
		}
	}
	// libusb does not expose bound kernel drivers or hub port status, so
	// Drivers and Ports stay empty here.
	return info, nil
}

func (c *libusbController) DeviceDescriptor(addr uint8) (*usb.DeviceDescriptor, error) {
	dev, err := c.open(addr)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	buf := make([]byte, deviceDescLen)
	if err := getDescriptor(dev, usb.DescriptorTypeDevice, 0, buf); err != nil {
		return nil, err
	}
	return parseDeviceDescriptor(buf)
}

func (c *libusbController) ConfigDescriptor(addr uint8, cfgIndex int) (*usb.ConfigDescriptor, error) {
	dev, err := c.open(addr)
	if err != nil {
		return nil, err
	}
	defer dev.Close()
	return readConfigDescriptor(dev, cfgIndex)
}

func (c *libusbController) FullDescriptor(addr uint8, cfgIndex int, buf []byte) error {
	dev, err := c.open(addr)
	if err != nil {
		return err
	}
	defer dev.Close()

	idx, err := resolveConfigIndex(dev, cfgIndex)
	if err != nil {
		return err
	}
	return getDescriptor(dev, usb.DescriptorTypeConfig, idx, buf)
}

// Stats has no libusb equivalent; the kernel keeps those counters.
func (c *libusbController) Stats() (*usb.ControllerStats, error) {
	return nil, errors.New("controller statistics are not available through libusb")
}

func readConfigDescriptor(dev *gousb.Device, cfgIndex int) (*usb.ConfigDescriptor, error) {
	idx, err := resolveConfigIndex(dev, cfgIndex)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, configDescLen)
	if err := getDescriptor(dev, usb.DescriptorTypeConfig, idx, buf); err != nil {
		return nil, err
	}
	return parseConfigDescriptor(buf)
}

// resolveConfigIndex maps usb.CurrentConfig to the 0-based index of the
// active configuration by matching bConfigurationValue across the
// device's configuration headers. Unconfigured devices fall back to
// index 0, like the kernel interface does.
func resolveConfigIndex(dev *gousb.Device, cfgIndex int) (int, error) {
	if cfgIndex != usb.CurrentConfig {
		return cfgIndex, nil
	}
	active, err := dev.ActiveConfigNum()
	if err != nil || active == 0 {
		return 0, nil
	}
	// GET_DESCRIPTOR indices run 0..bNumConfigurations-1 contiguously;
	// dev.Desc.Configs is keyed by bConfigurationValue, so only its
	// length is usable here, not its keys.
	for i := 0; i < len(dev.Desc.Configs); i++ {
		hdr := make([]byte, configDescLen)
		if err := getDescriptor(dev, usb.DescriptorTypeConfig, i, hdr); err != nil {
			break
		}
		if int(hdr[5]) == active {
			return i, nil
		}
	}
	return 0, nil
}

func getDescriptor(dev *gousb.Device, dt usb.DescriptorType, index int, buf []byte) error {
	val := uint16(dt)<<8 | uint16(index)
	n, err := dev.Control(gousb.ControlIn|gousb.ControlStandard|gousb.ControlDevice,
		reqGetDescriptor, val, 0, buf)
	if err != nil {
		return fmt.Errorf("get %s descriptor %d: %w", dt, index, err)
	}
	if n < len(buf) {
		return fmt.Errorf("get %s descriptor %d: short read %d of %d bytes", dt, index, n, len(buf))
	}
	return nil
}

func mapSpeed(s gousb.Speed) usb.Speed {
	switch s {
	case gousb.SpeedLow:
		return usb.SpeedLow
	case gousb.SpeedFull:
		return usb.SpeedFull
	case gousb.SpeedHigh:
		return usb.SpeedHigh
	case gousb.SpeedSuper:
		return usb.SpeedSuper
	default:
		return usb.SpeedUnknown
	}
}
