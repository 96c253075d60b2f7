//go:build openbsd

package query

import (
	"bytes"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ccwaddey/myusbdevs/usb"
)

// Controllers appear as /dev/usb0 through /dev/usb9.
const (
	usbDevPrefix   = "/dev/usb"
	maxControllers = 10
)

// Kernel structure limits from dev/usb/usb.h.
const (
	maxStringLen  = 127
	maxDevNameLen = 16
)

// ioctl request encoding, per sys/ioccom.h.
const (
	iocParmMask = 0x1fff
	iocOut      = 0x40000000
	iocIn       = 0x80000000
	iocInOut    = iocIn | iocOut
)

func ioc(inout uint32, group byte, num uint32, size uintptr) uint {
	return uint(inout | (uint32(size)&iocParmMask)<<16 | uint32(group)<<8 | num)
}

var (
	reqDeviceInfo  = ioc(iocInOut, 'U', 112, unsafe.Sizeof(usbDeviceInfo{}))
	reqDeviceDdesc = ioc(iocInOut, 'U', 113, unsafe.Sizeof(usbDeviceDdesc{}))
	reqDeviceCdesc = ioc(iocInOut, 'U', 114, unsafe.Sizeof(usbDeviceCdesc{}))
	reqDeviceFdesc = ioc(iocInOut, 'U', 115, unsafe.Sizeof(usbDeviceFdesc{}))
	reqDeviceStats = ioc(iocOut, 'U', 116, unsafe.Sizeof(usbDeviceStats{}))
)

// usbDeviceInfo mirrors struct usb_device_info from dev/usb/usb.h.
// Field order and padding must match the kernel exactly: the struct size
// is encoded into the ioctl request number, so any drift makes every
// request fail with EINVAL. Product precedes vendor in the kernel
// declaration, and a single pad byte after Speed puts Power at offset
// 276 for a total size of 540.
type usbDeviceInfo struct {
	Bus       uint8
	Addr      uint8
	Product   [maxStringLen]byte
	Vendor    [maxStringLen]byte
	Release   [8]byte
	ProductNo uint16
	VendorNo  uint16
	ReleaseNo uint16
	Class     uint8
	Subclass  uint8
	Protocol  uint8
	Config    uint8
	Speed     uint8
	_         [1]byte
	Power     int32
	Nports    int32
	Devnames  [usb.MaxDriverNames][maxDevNameLen]byte
	Ports     [usb.MaxPorts]uint32
	Serial    [maxStringLen]byte
}

// usbDeviceDdesc mirrors struct usb_device_ddesc.
type usbDeviceDdesc struct {
	Addr uint8
	Desc [deviceDescLen]byte
}

// usbDeviceCdesc mirrors struct usb_device_cdesc.
type usbDeviceCdesc struct {
	Addr        uint8
	_           [3]byte
	ConfigIndex int32
	Desc        [configDescLen]byte
}

// usbDeviceFdesc mirrors struct usb_device_fdesc.
type usbDeviceFdesc struct {
	Addr        uint8
	_           [3]byte
	ConfigIndex int32
	Size        uint32
	Data        *byte
}

// usbDeviceStats mirrors struct usb_device_stats.
type usbDeviceStats struct {
	Requests [4]uint64
}

type bsdBackend struct{}

// NewBackend returns the /dev/usbN ioctl backend.
func NewBackend() (Backend, error) {
	return bsdBackend{}, nil
}

func (bsdBackend) Close() error { return nil }

func (bsdBackend) Controllers() ([]Controller, error) {
	var (
		ctrls []Controller
		errs  []error
	)
	for i := 0; i < maxControllers; i++ {
		path := fmt.Sprintf("%s%d", usbDevPrefix, i)
		ctrl, err := openController(path)
		if err != nil {
			// Holes in the controller numbering are expected.
			if !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.ENXIO) {
				errs = append(errs, err)
			}
			continue
		}
		ctrls = append(ctrls, ctrl)
	}
	return ctrls, errors.Join(errs...)
}

func (bsdBackend) Open(name string) (Controller, error) {
	return openController(name)
}

func openController(path string) (Controller, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &bsdController{name: path, fd: fd}, nil
}

type bsdController struct {
	name string
	fd   int
}

func (c *bsdController) Name() string { return c.name }

func (c *bsdController) Close() error { return unix.Close(c.fd) }

func (c *bsdController) ioctl(req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), uintptr(req), uintptr(arg))
	switch errno {
	case 0:
		return nil
	case unix.ENXIO:
		return ErrNoDevice
	default:
		return errno
	}
}

func (c *bsdController) LiveInfo(addr uint8) (*usb.DeviceInfo, error) {
	di := usbDeviceInfo{Addr: addr}
	if err := c.ioctl(reqDeviceInfo, unsafe.Pointer(&di)); err != nil {
		return nil, err
	}
	info := &usb.DeviceInfo{
		Addr:        di.Addr,
		VendorID:    di.VendorNo,
		ProductID:   di.ProductNo,
		Vendor:      cstring(di.Vendor[:]),
		Product:     cstring(di.Product[:]),
		Release:     cstring(di.Release[:]),
		ReleaseCode: di.ReleaseNo,
		Bus:         di.Bus,
		Speed:       usb.Speed(di.Speed),
		Power:       int(di.Power),
		Config:      int(di.Config),
		Class:       di.Class,
		SubClass:    di.Subclass,
		Protocol:    di.Protocol,
		Serial:      cstring(di.Serial[:]),
	}
	for _, name := range di.Devnames {
		if s := cstring(name[:]); s != "" {
			info.Drivers = append(info.Drivers, s)
		}
	}
	nports := int(di.Nports)
	if nports > len(di.Ports) {
		nports = len(di.Ports)
	}
	for _, raw := range di.Ports[:nports] {
		info.Ports = append(info.Ports, usb.PortStatus{
			Status: uint16(raw),
			Change: uint16(raw >> 16),
		})
	}
	return info, nil
}

func (c *bsdController) DeviceDescriptor(addr uint8) (*usb.DeviceDescriptor, error) {
	dd := usbDeviceDdesc{Addr: addr}
	if err := c.ioctl(reqDeviceDdesc, unsafe.Pointer(&dd)); err != nil {
		return nil, err
	}
	return parseDeviceDescriptor(dd.Desc[:])
}

func (c *bsdController) ConfigDescriptor(addr uint8, cfgIndex int) (*usb.ConfigDescriptor, error) {
	cd := usbDeviceCdesc{Addr: addr, ConfigIndex: int32(cfgIndex)}
	if err := c.ioctl(reqDeviceCdesc, unsafe.Pointer(&cd)); err != nil {
		return nil, err
	}
	return parseConfigDescriptor(cd.Desc[:])
}

func (c *bsdController) FullDescriptor(addr uint8, cfgIndex int, buf []byte) error {
	if len(buf) == 0 {
		return errors.New("empty full descriptor buffer")
	}
	fd := usbDeviceFdesc{
		Addr:        addr,
		ConfigIndex: int32(cfgIndex),
		Size:        uint32(len(buf)),
		Data:        &buf[0],
	}
	return c.ioctl(reqDeviceFdesc, unsafe.Pointer(&fd))
}

func (c *bsdController) Stats() (*usb.ControllerStats, error) {
	var ds usbDeviceStats
	if err := c.ioctl(reqDeviceStats, unsafe.Pointer(&ds)); err != nil {
		return nil, err
	}
	return &usb.ControllerStats{Requests: ds.Requests}, nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
