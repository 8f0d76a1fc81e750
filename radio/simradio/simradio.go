// Package simradio is a host-side, in-memory radio simulator implementing
// link.RadioDriver. It is grounded on the teacher's driver/stub mock (a
// ring-buffered Tx/Rx pipe) and its transport_test.go ConnectDrivers
// helper, generalised from one point-to-point pipe to a shared Network of
// MAC-addressed peers that only hear each other when tuned to the same
// channel - the behaviour the real ESP-NOW radio has that a single pipe
// does not.
package simradio

import (
	"sync"

	"trackerlink/link"
)

// Network is a shared medium: every Driver registered on the same Network
// can reach every other Driver tuned to the same channel. Peer
// registration (AddPeer/DeletePeer) is recorded for HasPeer but is not
// checked on delivery. There is no actual concurrency here - Send delivers synchronously,
// matching link.RadioDriver's synchronous contract - but a mutex guards
// the peer table since tests may drive multiple Driver instances from
// goroutines representing "tracker" and "gateway" loops.
type Network struct {
	mu      sync.Mutex
	drivers map[link.MAC]*Driver
}

// NewNetwork returns an empty shared medium.
func NewNetwork() *Network {
	return &Network{drivers: make(map[link.MAC]*Driver)}
}

func (n *Network) register(d *Driver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drivers[d.mac] = d
}

// Driver is one station on a Network. It implements link.RadioDriver.
type Driver struct {
	net *Network
	mac link.MAC

	mu       sync.Mutex
	channel  byte
	peers    map[link.MAC]bool
	callback link.ReceiveFunc

	// sendHook, if set, is called before every Send attempt and its
	// return value is used as the SendResult instead of the usual
	// delivery logic. Tests use this to simulate BufferFull/Other
	// without needing a second Network.
	sendHook func(mac link.MAC, data []byte) (link.SendResult, bool)

	txLog [][]byte
}

// NewDriver creates a Driver with the given local MAC, registered on net.
func NewDriver(net *Network, mac link.MAC) *Driver {
	d := &Driver{net: net, mac: mac, channel: 1, peers: make(map[link.MAC]bool)}
	net.register(d)
	return d
}

// SetSendHook installs a test hook overriding Send's normal delivery
// logic; pass nil to remove it.
func (d *Driver) SetSendHook(hook func(mac link.MAC, data []byte) (link.SendResult, bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sendHook = hook
}

// TxLog returns every payload this driver has attempted to Send, in
// order, for test assertions.
func (d *Driver) TxLog() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.txLog))
	copy(out, d.txLog)
	return out
}

// Init is a no-op: the simulated medium has no vendor stack to bring up.
func (d *Driver) Init() error { return nil }

func (d *Driver) Send(mac link.MAC, data []byte) link.SendResult {
	d.mu.Lock()
	d.txLog = append(d.txLog, append([]byte{}, data...))
	hook := d.sendHook
	channel := d.channel
	d.mu.Unlock()

	if hook != nil {
		if result, handled := hook(mac, data); handled {
			return result
		}
	}

	d.net.mu.Lock()
	recipients := make([]*Driver, 0, 1)
	if mac == link.BroadcastMAC {
		for _, other := range d.net.drivers {
			if other != d {
				recipients = append(recipients, other)
			}
		}
	} else if other, ok := d.net.drivers[mac]; ok {
		recipients = append(recipients, other)
	}
	d.net.mu.Unlock()

	frame := append([]byte{}, data...)
	for _, r := range recipients {
		r.mu.Lock()
		sameChannel := r.channel == channel
		cb := r.callback
		r.mu.Unlock()
		if sameChannel && cb != nil {
			cb(d.mac, frame)
		}
	}
	return link.SendOK
}

func (d *Driver) AddPeer(mac link.MAC, _ bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers[mac] = true
}

func (d *Driver) DeletePeer(mac link.MAC) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, mac)
}

func (d *Driver) SetChannel(ch byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channel = ch
	return nil
}

// Channel returns the currently tuned channel, for test assertions.
func (d *Driver) Channel() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channel
}

func (d *Driver) LocalMAC() link.MAC { return d.mac }

func (d *Driver) SetReceiveCallback(fn link.ReceiveFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = fn
}

// HasPeer reports whether mac is currently registered, for test
// assertions about the gateway-peer lifecycle (§5).
func (d *Driver) HasPeer(mac link.MAC) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peers[mac]
}
