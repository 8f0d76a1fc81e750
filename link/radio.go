package link

// SendResult is the outcome of one RadioDriver.Send call. The send queue
// (see queue.go) treats BufferFull and Other identically to Success at
// drain time: both still pop the head, and retries are the job of the
// periodic resenders in the state machine, not this layer.
type SendResult int

const (
	SendOK SendResult = iota
	SendBufferFull
	SendOther
)

// MAC is a raw 6-byte radio address.
type MAC [6]byte

// ZeroMAC is the all-zero address used to mean "no gateway bound".
var ZeroMAC MAC

func (m MAC) IsZero() bool { return m == ZeroMAC }

// ReceiveFunc is the shape of the receive callback a RadioDriver invokes
// for every inbound datagram. It must not block; it reads the frame and,
// through the Core it is bound to at construction, enqueues outbound
// replies. The Core's callback calls Send directly in one case only: the
// OtaAck triplet answering a validated EnterOta.
type ReceiveFunc func(src MAC, data []byte)

// RadioDriver is the link core's only dependency on the underlying radio.
// The core never imports a concrete radio package; two implementations
// ship in this repository (radio/simradio for hosts and tests,
// radio/espnow for an ESP32-class target), selected by build tag.
type RadioDriver interface {
	// Init brings up the underlying radio stack (station mode, vendor
	// driver init, recv callback installation). Core.setup calls it
	// exactly once, before the first AddPeer/SetChannel; a non-nil error
	// takes the core straight to StateFailed (§7) instead of panicking.
	Init() error

	// Send transmits data to mac. It is synchronous: the result is known
	// before Send returns.
	Send(mac MAC, data []byte) SendResult

	// AddPeer registers mac so it can be sent to. useDefaultRate selects
	// the driver's default PHY rate; false requests the gateway's
	// configured override rate.
	AddPeer(mac MAC, useDefaultRate bool)

	// DeletePeer removes a previously registered peer.
	DeletePeer(mac MAC)

	// SetChannel tunes the radio to channel ch.
	SetChannel(ch byte) error

	// LocalMAC returns this device's own radio address.
	LocalMAC() MAC

	// SetReceiveCallback registers the single receive handler for the
	// lifetime of the driver. Called once at setup.
	SetReceiveCallback(fn ReceiveFunc)
}
