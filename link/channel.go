package link

// DefaultScanList is the 4-channel regulatory-conservative plan.
var DefaultScanList = []byte{2, 5, 8, 11}

// Extended14ScanList is used when BuildInfo.Allow14Channels permits the
// wider band.
var Extended14ScanList = []byte{2, 5, 8, 11, 14}

// ChannelPlan tracks the ordered scan list used during Pairing and the
// single source of truth for which channel the radio is tuned to.
type ChannelPlan struct {
	ScanList       []byte
	ScanCursor     int
	CurrentChannel byte
	Max            byte // 11 or 14, for StepChannel's wraparound
}

// NewChannelPlan builds a plan from the regulatory flag.
func NewChannelPlan(allow14 bool) *ChannelPlan {
	if allow14 {
		return &ChannelPlan{ScanList: append([]byte{}, Extended14ScanList...), Max: 14}
	}
	return &ChannelPlan{ScanList: append([]byte{}, DefaultScanList...), Max: 11}
}

// AdvanceScan moves the scan cursor to the next entry in the scan list
// and tunes the radio to it.
func (p *ChannelPlan) AdvanceScan(radio RadioDriver) {
	p.ScanCursor = (p.ScanCursor + 1) % len(p.ScanList)
	p.SetChannel(radio, p.ScanList[p.ScanCursor])
}

// StepChannel moves CurrentChannel by one, wrapping 1<->Max, and tunes
// the radio to it. Used during Connecting to probe around the gateway's
// likely channel.
func (p *ChannelPlan) StepChannel(radio RadioDriver, reverse bool) {
	ch := p.CurrentChannel
	if ch < 1 || ch > p.Max {
		ch = 1
	}
	if reverse {
		if ch <= 1 {
			ch = p.Max
		} else {
			ch--
		}
	} else {
		if ch >= p.Max {
			ch = 1
		} else {
			ch++
		}
	}
	p.SetChannel(radio, ch)
}

// SetChannel directly commands the radio to ch, used when the gateway
// tells us an explicit channel (announcement, handshake response).
func (p *ChannelPlan) SetChannel(radio RadioDriver, ch byte) {
	if err := radio.SetChannel(ch); err != nil {
		return
	}
	p.CurrentChannel = ch
}

// RetreatScanCursor steps the scan cursor back by one, wrapping. Used
// after a missed-heartbeat disconnection to bias the next Pairing scan
// toward the channel the gateway was last heard on.
func (p *ChannelPlan) RetreatScanCursor() {
	p.ScanCursor--
	if p.ScanCursor < 0 {
		p.ScanCursor = len(p.ScanList) - 1
	}
}
