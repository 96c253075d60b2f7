package usb

// PortStatus is one hub port's status word, split into the current status
// half and the change-since-last-read half.
type PortStatus struct {
	Status uint16
	Change uint16
}

// Port status bits. L1 and Power are only meaningful below SuperSpeed;
// PowerSS and the link state field replace them at SuperSpeed and above.
const (
	PortConnect     = 0x0001
	PortEnabled     = 0x0002
	PortSuspend     = 0x0004
	PortOvercurrent = 0x0008
	PortL1          = 0x0020
	PortPower       = 0x0100
	PortPowerSS     = 0x0200

	portLinkStateShift = 5
	portLinkStateMask  = 0x0f
)

// LinkState is the 4-bit USB 3.x link state field of a SuperSpeed port
// status word.
type LinkState uint8

const (
	LinkStateU0 LinkState = iota
	LinkStateU1
	LinkStateU2
	LinkStateU3
	LinkStateSSDisabled
	LinkStateRxDetect
	LinkStateSSInactive
	LinkStatePolling
	LinkStateRecovery
	LinkStateHotReset
	LinkStateCompMod
	LinkStateLoopback
)

var linkStateDescription = map[LinkState]string{
	LinkStateU0:         "U0",
	LinkStateU1:         "U1",
	LinkStateU2:         "U2",
	LinkStateU3:         "U3",
	LinkStateSSDisabled: "SS.disabled",
	LinkStateRxDetect:   "Rx.detect",
	LinkStateSSInactive: "ss.inactive",
	LinkStatePolling:    "polling",
	LinkStateRecovery:   "recovery",
	LinkStateHotReset:   "hot.reset",
	LinkStateCompMod:    "comp.mod",
	LinkStateLoopback:   "loopback",
}

func (ls LinkState) String() string {
	if d, ok := linkStateDescription[ls]; ok {
		return d
	}
	return ""
}

// LinkState extracts the link state field. It only carries meaning for
// SuperSpeed and faster devices.
func (p PortStatus) LinkState() LinkState {
	return LinkState(p.Status >> portLinkStateShift & portLinkStateMask)
}

// Labels decodes the status half into human-readable flag names. The bit
// layout differs by device speed, so the owning device's speed selects
// which label set applies.
func (p PortStatus) Labels(speed Speed) []string {
	var labels []string
	if p.Status&PortConnect != 0 {
		labels = append(labels, "connect")
	}
	if p.Status&PortEnabled != 0 {
		labels = append(labels, "enabled")
	}
	if p.Status&PortSuspend != 0 {
		labels = append(labels, "suspend")
	}
	if p.Status&PortOvercurrent != 0 {
		labels = append(labels, "overcurrent")
	}
	if speed < SpeedSuper {
		if p.Status&PortL1 != 0 {
			labels = append(labels, "l1")
		}
		if p.Status&PortPower != 0 {
			labels = append(labels, "power")
		}
		return labels
	}
	if p.Status&PortPowerSS != 0 {
		labels = append(labels, "power")
	}
	if name := p.LinkState().String(); name != "" {
		labels = append(labels, name)
	}
	return labels
}
