package dump

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccwaddey/myusbdevs/internal/query"
	"github.com/ccwaddey/myusbdevs/internal/render"
	"github.com/ccwaddey/myusbdevs/usb"
)

type fakeController struct {
	name      string
	infos     map[uint8]*usb.DeviceInfo
	descs     map[uint8]*usb.DeviceDescriptor
	configs   map[uint8]*usb.ConfigDescriptor
	fulls     map[uint8][]byte
	errs      map[uint8]error
	stats     *usb.ControllerStats
	liveCalls int
	fullCalls int
}

func (f *fakeController) Name() string { return f.name }
func (f *fakeController) Close() error { return nil }

func (f *fakeController) LiveInfo(addr uint8) (*usb.DeviceInfo, error) {
	f.liveCalls++
	if err := f.errs[addr]; err != nil {
		return nil, err
	}
	if di, ok := f.infos[addr]; ok {
		return di, nil
	}
	return nil, query.ErrNoDevice
}

func (f *fakeController) DeviceDescriptor(addr uint8) (*usb.DeviceDescriptor, error) {
	if err := f.errs[addr]; err != nil {
		return nil, err
	}
	if dd, ok := f.descs[addr]; ok {
		return dd, nil
	}
	return nil, query.ErrNoDevice
}

func (f *fakeController) ConfigDescriptor(addr uint8, cfgIndex int) (*usb.ConfigDescriptor, error) {
	if err := f.errs[addr]; err != nil {
		return nil, err
	}
	if cd, ok := f.configs[addr]; ok {
		return cd, nil
	}
	return nil, query.ErrNoDevice
}

func (f *fakeController) FullDescriptor(addr uint8, cfgIndex int, buf []byte) error {
	f.fullCalls++
	blob, ok := f.fulls[addr]
	if !ok {
		return query.ErrNoDevice
	}
	copy(buf, blob)
	return nil
}

func (f *fakeController) Stats() (*usb.ControllerStats, error) {
	if f.stats == nil {
		return nil, errors.New("stats unavailable")
	}
	return f.stats, nil
}

func newDumper(verbose int) (*Dumper, *bytes.Buffer, *bytes.Buffer) {
	var out, logs bytes.Buffer
	d := New(render.New(&out, verbose), slog.New(slog.NewTextHandler(&logs, nil)))
	return d, &out, &logs
}

func deviceAt(addr uint8) *usb.DeviceInfo {
	return &usb.DeviceInfo{Addr: addr, VendorID: 0x1d6b, ProductID: 0x0002, Vendor: "v", Product: "p"}
}

func TestDevicesScansFullAddressSpace(t *testing.T) {
	ctrl := &fakeController{
		name:  "usb0",
		infos: map[uint8]*usb.DeviceInfo{3: deviceAt(3), 7: deviceAt(7)},
	}
	d, out, logs := newDumper(0)
	d.Devices(ctrl, 0)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Controller usb0:", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "addr 03:"))
	assert.True(t, strings.HasPrefix(lines[2], "addr 07:"))

	// Empty addresses are expected misses: no warnings, one probe each.
	assert.Empty(t, logs.String())
	assert.Equal(t, usb.MaxDevices-1, ctrl.liveCalls)
}

func TestDevicesSingleAddress(t *testing.T) {
	ctrl := &fakeController{
		name:  "usb0",
		infos: map[uint8]*usb.DeviceInfo{3: deviceAt(3), 7: deviceAt(7)},
	}
	d, out, _ := newDumper(0)
	d.Devices(ctrl, 7)

	assert.NotContains(t, out.String(), "Controller")
	assert.True(t, strings.HasPrefix(out.String(), "addr 07:"))
	assert.Equal(t, 1, ctrl.liveCalls)
}

func TestDevicesWarnsAndContinuesOnQueryFailure(t *testing.T) {
	ctrl := &fakeController{
		name:  "usb0",
		infos: map[uint8]*usb.DeviceInfo{7: deviceAt(7)},
		errs:  map[uint8]error{5: errors.New("bus fault")},
	}
	d, out, logs := newDumper(0)
	d.Devices(ctrl, 0)

	assert.Contains(t, out.String(), "addr 07:")
	assert.Contains(t, logs.String(), "bus fault")
	assert.Contains(t, logs.String(), "addr=5")
}

func TestFullSkipsOnZeroTotalLength(t *testing.T) {
	ctrl := &fakeController{
		name:    "usb0",
		configs: map[uint8]*usb.ConfigDescriptor{3: {Value: 1, TotalLength: 0}},
	}
	d, out, logs := newDumper(0)
	d.Full(ctrl, 3, usb.CurrentConfig)

	assert.Zero(t, ctrl.fullCalls)
	assert.Empty(t, out.String())
	assert.Empty(t, logs.String())
}

func TestFullWalksChain(t *testing.T) {
	blob := []byte{
		9, 0x02, 25, 0, 1, 1, 0, 0xa0, 50, // config descriptor
		9, 0x04, 0, 0, 1, 3, 1, 1, 0, // interface descriptor
		7, 0x05, 0x81, 0x03, 8, 0, 10, // endpoint descriptor
	}
	ctrl := &fakeController{
		name:    "usb0",
		configs: map[uint8]*usb.ConfigDescriptor{3: {Value: 1, TotalLength: uint16(len(blob))}},
		fulls:   map[uint8][]byte{3: blob},
	}
	d, out, logs := newDumper(0)
	d.Full(ctrl, 3, usb.CurrentConfig)

	got := out.String()
	assert.Equal(t, 1, ctrl.fullCalls)
	assert.Contains(t, got, "addr 03, config 01:")
	assert.Contains(t, got, "iface: 00")
	assert.Contains(t, got, "endpt_addr: 01, dir: in, interrupt")
	assert.Empty(t, logs.String())
}

func TestFullWarnsOnMalformedChain(t *testing.T) {
	blob := []byte{9, 0x02, 12, 0, 1, 1, 0, 0xa0, 50, 0, 0, 0} // zero length byte mid-chain
	ctrl := &fakeController{
		name:    "usb0",
		configs: map[uint8]*usb.ConfigDescriptor{3: {Value: 1, TotalLength: uint16(len(blob))}},
		fulls:   map[uint8][]byte{3: blob},
	}
	d, out, logs := newDumper(0)
	d.Full(ctrl, 3, usb.CurrentConfig)

	assert.Contains(t, out.String(), "config 01:")
	assert.Contains(t, logs.String(), "descriptor chain truncated")
}

func TestConfigsRendersForEachDevice(t *testing.T) {
	ctrl := &fakeController{
		name: "usb0",
		configs: map[uint8]*usb.ConfigDescriptor{
			2: {Value: 1, NumInterfaces: 1, MaxPower: 50},
			9: {Value: 1, NumInterfaces: 3, MaxPower: 25},
		},
	}
	d, out, _ := newDumper(0)
	d.Configs(ctrl, 0, usb.CurrentConfig)

	got := out.String()
	assert.Contains(t, got, "Controller usb0:")
	assert.Contains(t, got, "addr 02, config 01: interfaces: 1, max-power: 100mA")
	assert.Contains(t, got, "addr 09, config 01: interfaces: 3, max-power: 50mA")
}

func TestDeviceDescriptors(t *testing.T) {
	ctrl := &fakeController{
		name:  "usb0",
		descs: map[uint8]*usb.DeviceDescriptor{4: {MaxPacketSize: 8, NumConfigurations: 1, ManufacturerIndex: 2}},
	}
	d, out, _ := newDumper(0)
	d.DeviceDescriptors(ctrl, 0)
	assert.Contains(t, out.String(), "addr 04: max packet:  8, num configs: 1, iManufacturer: 2")
}

func TestStats(t *testing.T) {
	ctrl := &fakeController{name: "usb0", stats: &usb.ControllerStats{Requests: [4]uint64{1, 2, 3, 4}}}
	d, out, _ := newDumper(0)
	d.Stats(ctrl)
	assert.Contains(t, out.String(), "Bulk: 3")

	ctrl.stats = nil
	d2, out2, logs2 := newDumper(0)
	d2.Stats(ctrl)
	assert.Empty(t, out2.String())
	assert.Contains(t, logs2.String(), "stats unavailable")
}

func TestRepeatedEnumerationIsIdempotent(t *testing.T) {
	ctrl := &fakeController{
		name:  "usb0",
		infos: map[uint8]*usb.DeviceInfo{3: deviceAt(3)},
	}
	run := func() string {
		d, out, _ := newDumper(1)
		d.Devices(ctrl, 0)
		return out.String()
	}
	first := run()
	assert.Equal(t, first, run())
}
