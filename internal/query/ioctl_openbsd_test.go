//go:build openbsd

package query

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

// The kernel identifies ioctl requests partly by argument size, so the
// mirror structs must reproduce dev/usb/usb.h byte for byte. These
// offsets are the C layout on OpenBSD (ILP32 int, 4-byte alignment for
// the ints, pointer-aligned udf_data).
func TestUsbDeviceInfoLayout(t *testing.T) {
	var di usbDeviceInfo

	assert.Equal(t, uintptr(0), unsafe.Offsetof(di.Bus))
	assert.Equal(t, uintptr(1), unsafe.Offsetof(di.Addr))
	assert.Equal(t, uintptr(2), unsafe.Offsetof(di.Product))
	assert.Equal(t, uintptr(129), unsafe.Offsetof(di.Vendor))
	assert.Equal(t, uintptr(256), unsafe.Offsetof(di.Release))
	assert.Equal(t, uintptr(264), unsafe.Offsetof(di.ProductNo))
	assert.Equal(t, uintptr(266), unsafe.Offsetof(di.VendorNo))
	assert.Equal(t, uintptr(268), unsafe.Offsetof(di.ReleaseNo))
	assert.Equal(t, uintptr(270), unsafe.Offsetof(di.Class))
	assert.Equal(t, uintptr(271), unsafe.Offsetof(di.Subclass))
	assert.Equal(t, uintptr(272), unsafe.Offsetof(di.Protocol))
	assert.Equal(t, uintptr(273), unsafe.Offsetof(di.Config))
	assert.Equal(t, uintptr(274), unsafe.Offsetof(di.Speed))
	assert.Equal(t, uintptr(276), unsafe.Offsetof(di.Power))
	assert.Equal(t, uintptr(280), unsafe.Offsetof(di.Nports))
	assert.Equal(t, uintptr(284), unsafe.Offsetof(di.Devnames))
	assert.Equal(t, uintptr(348), unsafe.Offsetof(di.Ports))
	assert.Equal(t, uintptr(412), unsafe.Offsetof(di.Serial))
	assert.Equal(t, uintptr(540), unsafe.Sizeof(di))
}

func TestDescriptorRequestLayouts(t *testing.T) {
	var dd usbDeviceDdesc
	assert.Equal(t, uintptr(1), unsafe.Offsetof(dd.Desc))
	assert.Equal(t, uintptr(19), unsafe.Sizeof(dd))

	var cd usbDeviceCdesc
	assert.Equal(t, uintptr(4), unsafe.Offsetof(cd.ConfigIndex))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(cd.Desc))
	assert.Equal(t, uintptr(20), unsafe.Sizeof(cd))

	var fd usbDeviceFdesc
	assert.Equal(t, uintptr(4), unsafe.Offsetof(fd.ConfigIndex))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(fd.Size))
	assert.Equal(t, unsafe.Alignof(fd.Data)+8, unsafe.Offsetof(fd.Data))
}
