// Package usb models the parts of the USB protocol the usbdevs tool
// reports on: device records returned by the kernel, descriptor records,
// hub port status words and the chained descriptor format used by
// configuration dumps.
package usb

import "strconv"

// Bus-wide limits. Device addresses run 1..MaxDevices-1; address 0 is
// reserved and means "every address" when used as a selector.
const (
	MaxDevices     = 128
	MaxConfigs     = 255
	MaxPorts       = 16
	MaxDriverNames = 4
)

// CurrentConfig selects whichever configuration the device currently has
// active, instead of an explicit 0-based configuration index.
const CurrentConfig = -1

// PowerFactor converts the raw bMaxPower field of a configuration
// descriptor to milliamperes.
const PowerFactor = 2

// DescriptorType is the type tag in the second byte of every descriptor.
type DescriptorType uint8

const (
	DescriptorTypeDevice    DescriptorType = 0x01
	DescriptorTypeConfig    DescriptorType = 0x02
	DescriptorTypeString    DescriptorType = 0x03
	DescriptorTypeInterface DescriptorType = 0x04
	DescriptorTypeEndpoint  DescriptorType = 0x05
)

var descriptorTypeDescription = map[DescriptorType]string{
	DescriptorTypeDevice:    "device",
	DescriptorTypeConfig:    "configuration",
	DescriptorTypeString:    "string",
	DescriptorTypeInterface: "interface",
	DescriptorTypeEndpoint:  "endpoint",
}

func (dt DescriptorType) String() string {
	if d, ok := descriptorTypeDescription[dt]; ok {
		return d
	}
	return strconv.Itoa(int(dt))
}

// Speed is the negotiated operating speed of a device. The values match
// the kernel's device info encoding.
type Speed uint8

const (
	SpeedUnknown Speed = iota
	SpeedLow
	SpeedFull
	SpeedHigh
	SpeedSuper
)

var speedDescription = map[Speed]string{
	SpeedLow:   "low",
	SpeedFull:  "full",
	SpeedHigh:  "high",
	SpeedSuper: "super",
}

func (s Speed) String() string {
	if d, ok := speedDescription[s]; ok {
		return d
	}
	return "unknown"
}

// TransferType is the transfer type of an endpoint, from the low two bits
// of the endpoint descriptor's bmAttributes.
type TransferType uint8

const (
	TransferTypeControl     TransferType = 0
	TransferTypeIsochronous TransferType = 1
	TransferTypeBulk        TransferType = 2
	TransferTypeInterrupt   TransferType = 3

	transferTypeMask = 0x03
)

var transferTypeDescription = map[TransferType]string{
	TransferTypeControl:     "control",
	TransferTypeIsochronous: "isochronous",
	TransferTypeBulk:        "bulk",
	TransferTypeInterrupt:   "interrupt",
}

func (tt TransferType) String() string {
	return transferTypeDescription[tt&transferTypeMask]
}

// IsoSyncType is the synchronization type of an isochronous endpoint,
// from bits 2..3 of bmAttributes.
type IsoSyncType uint8

const (
	IsoSyncNone     IsoSyncType = 0
	IsoSyncAsync    IsoSyncType = 1
	IsoSyncAdaptive IsoSyncType = 2
	IsoSyncSync     IsoSyncType = 3

	isoSyncShift = 2
	isoSyncMask  = 0x03
)

var isoSyncTypeDescription = map[IsoSyncType]string{
	IsoSyncNone:     "none",
	IsoSyncAsync:    "async",
	IsoSyncAdaptive: "adaptive",
	IsoSyncSync:     "sync",
}

func (st IsoSyncType) String() string {
	return isoSyncTypeDescription[st&isoSyncMask]
}

// EndpointDirection is the direction bit of an endpoint address.
type EndpointDirection uint8

const (
	EndpointOut EndpointDirection = 0x00
	EndpointIn  EndpointDirection = 0x80

	endpointNumMask       = 0x0f
	endpointDirectionMask = 0x80
)

func (d EndpointDirection) String() string {
	if d&endpointDirectionMask != 0 {
		return "in"
	}
	return "out"
}

// ConfigAttributes is the bmAttributes bitfield of a configuration
// descriptor.
type ConfigAttributes uint8

const (
	AttrBusPowered   ConfigAttributes = 0x80
	AttrSelfPowered  ConfigAttributes = 0x40
	AttrRemoteWakeup ConfigAttributes = 0x20
)

// DeviceInfo is the live record the kernel keeps for an attached device.
// One is produced per address per query and discarded after rendering.
type DeviceInfo struct {
	Addr        uint8
	VendorID    uint16
	ProductID   uint16
	Vendor      string
	Product     string
	Release     string
	ReleaseCode uint16
	Bus         uint8
	Speed       Speed
	Power       int // milliamperes; 0 means self powered
	Config      int // active configuration value; 0 means unconfigured
	Class       uint8
	SubClass    uint8
	Protocol    uint8
	Serial      string
	Drivers     []string     // names of bound kernel drivers
	Ports       []PortStatus // hub-capable devices only
}

// DeviceDescriptor is the slice of the static device descriptor the tool
// reports on.
type DeviceDescriptor struct {
	MaxPacketSize     uint8
	NumConfigurations uint8
	ManufacturerIndex uint8
}

// ConfigDescriptor is a decoded configuration descriptor header.
// TotalLength is the byte length of the configuration's full chained
// descriptor blob and sizes the follow-up full-descriptor fetch.
type ConfigDescriptor struct {
	Value         uint8
	NumInterfaces uint8
	Attributes    ConfigAttributes
	MaxPower      uint8 // raw units; multiply by PowerFactor for mA
	TotalLength   uint16
}

// PowerMilliamps returns the configuration's maximum power draw in mA.
func (c ConfigDescriptor) PowerMilliamps() int {
	return int(c.MaxPower) * PowerFactor
}

// ControllerStats counts completed transfers per transfer type, indexed
// by TransferType.
type ControllerStats struct {
	Requests [4]uint64
}
