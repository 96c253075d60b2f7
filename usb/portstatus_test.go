package usb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortStatusLabelsBySpeed(t *testing.T) {
	// SuperSpeed power bit plus link state U3 in the 4-bit field.
	raw := uint16(PortPowerSS) | uint16(LinkStateU3)<<portLinkStateShift

	tests := []struct {
		name   string
		status uint16
		speed  Speed
		want   []string
	}{
		{
			name:   "superspeed power and U3",
			status: raw,
			speed:  SpeedSuper,
			want:   []string{"power", "U3"},
		},
		{
			// The same raw bits mean something else below SuperSpeed:
			// 0x0200 is not a status bit there and bit 5 of the link
			// state field is L1.
			name:   "same bits on high speed device",
			status: raw,
			speed:  SpeedHigh,
			want:   []string{"l1"},
		},
		{
			name:   "full speed power",
			status: PortConnect | PortEnabled | PortPower,
			speed:  SpeedFull,
			want:   []string{"connect", "enabled", "power"},
		},
		{
			name:   "superspeed link state without power",
			status: uint16(LinkStateRxDetect << portLinkStateShift),
			speed:  SpeedSuper,
			want:   []string{"Rx.detect"},
		},
		{
			name:   "reserved link state renders nothing",
			status: uint16(13 << portLinkStateShift),
			speed:  SpeedSuper,
			want:   nil,
		},
		{
			name:   "suspend and overcurrent",
			status: PortSuspend | PortOvercurrent,
			speed:  SpeedLow,
			want:   []string{"suspend", "overcurrent"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PortStatus{Status: tt.status}
			assert.Equal(t, tt.want, p.Labels(tt.speed))
		})
	}
}

func TestPortStatusLinkState(t *testing.T) {
	p := PortStatus{Status: uint16(LinkStateCompMod) << portLinkStateShift}
	assert.Equal(t, LinkStateCompMod, p.LinkState())
	assert.Equal(t, "comp.mod", p.LinkState().String())
}

func TestConfigDescriptorPowerScaling(t *testing.T) {
	c := ConfigDescriptor{MaxPower: 50}
	assert.Equal(t, 100, c.PowerMilliamps())
}
