package usb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedChain reports a zero-length sub-descriptor or one whose
// declared length runs past the end of the buffer. The walk stops at the
// offending descriptor without reading beyond the buffer.
var ErrMalformedChain = errors.New("usb: malformed descriptor chain")

// SubDescriptor is one decoded entry of a chained descriptor buffer.
// The concrete types are ConfigSummary, InterfaceDesc, EndpointDesc and
// UnknownDesc.
type SubDescriptor interface {
	subDescriptor()
}

// ConfigSummary is a configuration descriptor encountered inside a chain.
// Only the configuration value is reported at this level; the standalone
// configuration report carries the full header.
type ConfigSummary struct {
	Value uint8
}

// InterfaceDesc is a decoded interface descriptor.
type InterfaceDesc struct {
	Number       uint8
	AltSetting   uint8
	NumEndpoints uint8
	Class        uint8
	SubClass     uint8
	Protocol     uint8
}

// EndpointDesc is a decoded endpoint descriptor. SyncType is only
// meaningful when Transfer is TransferTypeIsochronous.
type EndpointDesc struct {
	Number        uint8
	Direction     EndpointDirection
	Transfer      TransferType
	SyncType      IsoSyncType
	MaxPacketSize uint16
	Interval      uint8
}

// UnknownDesc is any sub-descriptor the tool does not decode, including
// string descriptors. Raw holds the complete sub-descriptor, length byte
// included.
type UnknownDesc struct {
	Type DescriptorType
	Raw  []byte
}

func (ConfigSummary) subDescriptor() {}
func (InterfaceDesc) subDescriptor() {}
func (EndpointDesc) subDescriptor()  {}
func (UnknownDesc) subDescriptor()   {}

// view is a bounds-checked window over one sub-descriptor. Fields are
// read at fixed offsets from the sub-descriptor start and reads beyond
// the declared length fail instead of spilling into the neighbor.
type view []byte

func (v view) byteAt(off int) (byte, error) {
	if off >= len(v) {
		return 0, fmt.Errorf("offset %d beyond descriptor length %d", off, len(v))
	}
	return v[off], nil
}

func (v view) u16At(off int) (uint16, error) {
	if off+2 > len(v) {
		return 0, fmt.Errorf("offset %d beyond descriptor length %d", off, len(v))
	}
	return binary.LittleEndian.Uint16(v[off:]), nil
}

// ChainWalker iterates the back-to-back sub-descriptors of a full
// configuration descriptor blob. It makes a single forward pass; a
// zero-length or out-of-bounds sub-descriptor ends the walk and is
// reported by Err.
type ChainWalker struct {
	buf []byte
	off int
	err error
}

// NewChainWalker returns a walker over buf. The walker does not modify
// the buffer and holds it only for the duration of the walk.
func NewChainWalker(buf []byte) *ChainWalker {
	return &ChainWalker{buf: buf}
}

// Next decodes the sub-descriptor at the cursor and advances by its
// declared length. It returns false when the buffer is exhausted or the
// chain turned out to be malformed.
func (w *ChainWalker) Next() (SubDescriptor, bool) {
	if w.err != nil || w.off >= len(w.buf) {
		return nil, false
	}
	length := int(w.buf[w.off])
	if length == 0 {
		w.err = fmt.Errorf("%w: zero-length descriptor at offset %d", ErrMalformedChain, w.off)
		return nil, false
	}
	if w.off+length > len(w.buf) {
		w.err = fmt.Errorf("%w: descriptor at offset %d declares %d bytes with %d remaining",
			ErrMalformedChain, w.off, length, len(w.buf)-w.off)
		return nil, false
	}
	sub := decodeSub(view(w.buf[w.off : w.off+length]))
	w.off += length
	return sub, true
}

// Err reports whether the walk ended on a malformed sub-descriptor. It is
// meaningful once Next has returned false.
func (w *ChainWalker) Err() error {
	return w.err
}

// decodeSub turns one length-delimited sub-descriptor into its variant.
// A descriptor too short for its own tag format is reported raw rather
// than partially decoded.
func decodeSub(v view) SubDescriptor {
	tag, err := v.byteAt(1)
	if err != nil {
		return unknown(0, v)
	}
	switch DescriptorType(tag) {
	case DescriptorTypeConfig:
		value, err := v.byteAt(5)
		if err != nil {
			return unknown(DescriptorType(tag), v)
		}
		return ConfigSummary{Value: value}
	case DescriptorTypeInterface:
		return decodeInterface(v)
	case DescriptorTypeEndpoint:
		return decodeEndpoint(v)
	default:
		return unknown(DescriptorType(tag), v)
	}
}

func decodeInterface(v view) SubDescriptor {
	var fields [6]byte
	for i := range fields {
		b, err := v.byteAt(2 + i)
		if err != nil {
			return unknown(DescriptorTypeInterface, v)
		}
		fields[i] = b
	}
	return InterfaceDesc{
		Number:       fields[0],
		AltSetting:   fields[1],
		NumEndpoints: fields[2],
		Class:        fields[3],
		SubClass:     fields[4],
		Protocol:     fields[5],
	}
}

func decodeEndpoint(v view) SubDescriptor {
	addr, err := v.byteAt(2)
	if err != nil {
		return unknown(DescriptorTypeEndpoint, v)
	}
	attrs, err := v.byteAt(3)
	if err != nil {
		return unknown(DescriptorTypeEndpoint, v)
	}
	maxPacket, err := v.u16At(4)
	if err != nil {
		return unknown(DescriptorTypeEndpoint, v)
	}
	interval, err := v.byteAt(6)
	if err != nil {
		return unknown(DescriptorTypeEndpoint, v)
	}
	ep := EndpointDesc{
		Number:        addr & endpointNumMask,
		Direction:     EndpointDirection(addr & endpointDirectionMask),
		Transfer:      TransferType(attrs & transferTypeMask),
		MaxPacketSize: maxPacket,
		Interval:      interval,
	}
	if ep.Transfer == TransferTypeIsochronous {
		ep.SyncType = IsoSyncType(attrs >> isoSyncShift & isoSyncMask)
	}
	return ep
}

func unknown(tag DescriptorType, v view) UnknownDesc {
	raw := make([]byte, len(v))
	copy(raw, v)
	return UnknownDesc{Type: tag, Raw: raw}
}
