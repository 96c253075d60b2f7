// Package query gives the rest of the tool uniform access to USB host
// controllers. A Backend enumerates controllers; a Controller answers the
// four per-address descriptor queries. On OpenBSD the backend talks to
// the /dev/usbN ioctl interface, elsewhere it goes through libusb.
package query

import (
	"errors"

	"github.com/ccwaddey/myusbdevs/usb"
)

// ErrNoDevice reports that no device is attached at the queried address.
// Callers probing every address treat it as an expected miss, not a
// failure.
var ErrNoDevice = errors.New("query: no device at address")

// Controller is one USB host controller. Addresses run 1..MaxDevices-1.
// Every method performs a fresh kernel round trip; nothing is cached.
type Controller interface {
	// Name identifies the controller in reports and warnings.
	Name() string
	// LiveInfo fetches the kernel's live record for the device at addr.
	LiveInfo(addr uint8) (*usb.DeviceInfo, error)
	// DeviceDescriptor fetches the static device descriptor at addr.
	DeviceDescriptor(addr uint8) (*usb.DeviceDescriptor, error)
	// ConfigDescriptor fetches the configuration descriptor header for a
	// 0-based configuration index, or the active configuration when
	// cfgIndex is usb.CurrentConfig.
	ConfigDescriptor(addr uint8, cfgIndex int) (*usb.ConfigDescriptor, error)
	// FullDescriptor reads the configuration's full chained descriptor
	// blob into buf, which the caller sizes from TotalLength.
	FullDescriptor(addr uint8, cfgIndex int, buf []byte) error
	// Stats reports per-transfer-type completion counts.
	Stats() (*usb.ControllerStats, error)
	Close() error
}

// Backend opens controllers. Close releases whatever the platform
// implementation holds; controllers obtained from the backend must be
// closed before the backend.
type Backend interface {
	// Controllers opens every controller on the host. The error, if any,
	// is advisory: it describes controllers that could not be opened and
	// accompanies whatever subset did open.
	Controllers() ([]Controller, error)
	// Open opens one controller by name (a device path on OpenBSD, a bus
	// number or usbN name under libusb).
	Open(name string) (Controller, error)
	Close() error
}
