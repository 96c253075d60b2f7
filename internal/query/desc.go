package query

import (
	"encoding/binary"
	"fmt"

	"github.com/ccwaddey/myusbdevs/usb"
)

// Fixed descriptor sizes from the USB spec.
const (
	deviceDescLen = 18
	configDescLen = 9
)

func parseDeviceDescriptor(b []byte) (*usb.DeviceDescriptor, error) {
	if len(b) < deviceDescLen {
		return nil, fmt.Errorf("device descriptor is %d bytes, want %d", len(b), deviceDescLen)
	}
	return &usb.DeviceDescriptor{
		MaxPacketSize:     b[7],
		ManufacturerIndex: b[14],
		NumConfigurations: b[17],
	}, nil
}

func parseConfigDescriptor(b []byte) (*usb.ConfigDescriptor, error) {
	if len(b) < configDescLen {
		return nil, fmt.Errorf("config descriptor is %d bytes, want %d", len(b), configDescLen)
	}
	return &usb.ConfigDescriptor{
		TotalLength:   binary.LittleEndian.Uint16(b[2:]),
		NumInterfaces: b[4],
		Value:         b[5],
		Attributes:    usb.ConfigAttributes(b[7]),
		MaxPower:      b[8],
	}, nil
}
