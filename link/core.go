// Package link implements the tracker/gateway link core: discovery,
// pairing, handshake, a liveness-monitored Connected state, telemetry
// scheduling and the secure OTA handoff. It is a single logical
// execution context (§5): one upkeep tick, driven by a caller-owned
// periodic timer, and one receive callback supplied by a RadioDriver.
// There are no goroutines or channels inside this package.
package link

import "log"

// BroadcastMAC is the radio broadcast address, registered once at setup
// and used for discovery and handshake traffic.
var BroadcastMAC = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Timing constants from §4.5, named rather than inlined so the state
// machine reads like the table it implements.
const (
	scanAdvanceIntervalMs  = 400
	pairingReqIntervalMs   = 200
	pairingTimeoutFastMs   = 10_000
	pairingTimeoutColdMs   = 60_000
	stepChannelIntervalMs  = 300
	handshakeReqIntervalMs = 150
	connectingTimeoutMs    = 60_000
	telemetryBackoffMs     = 500
	otaJoinTimeoutMs       = 30_000
	otaBeginTimeoutMs      = 60_000
)

// Core is the link state machine, explicitly constructed and held by the
// runtime that owns the upkeep timer and the radio's receive callback.
// There is no hidden global: every dependency is a field set once at
// construction.
type Core struct {
	radio   RadioDriver
	creds   CredentialStore
	sensors SensorProvider
	battery BatteryProvider
	status  StatusSink
	wifi    WifiJoiner
	build   BuildInfo
	clock   Clock

	queue     *SendQueue
	channel   *ChannelPlan
	heartbeat HeartbeatState
	binding   GatewayBinding
	state     LinkState

	trackerRateHz uint32
	debug         bool
	logger        *log.Logger

	priorBindingKnown bool
	pairingEnteredMs  int64
	lastScanAdvanceMs int64
	lastPairingReqMs  int64

	connectingEnteredMs int64
	lastStepChannelMs   int64
	lastHandshakeReqMs  int64

	lastHeartbeatTickMs int64
	lastHeartbeatSentMs int64

	sched telemetrySchedule

	ota              OtaJoinCredentials
	otaEnteredMs     int64
	otaJoinAttemptMs int64
	otaJoinedAtMs    int64
	otaJoined        bool
}

// Config bundles every collaborator Core needs. Fields with no sensible
// default (RadioDriver, CredentialStore) are required; others fall back
// to host-friendly no-ops when left zero.
type Config struct {
	Radio   RadioDriver
	Creds   CredentialStore
	Sensors SensorProvider
	Battery BatteryProvider
	Status  StatusSink
	Wifi    WifiJoiner
	Build   BuildInfo
	Clock   Clock

	// InitialTrackerRateHz seeds the telemetry cadence before any
	// SetTrackerRate frame arrives. Bounded to [1,1000] like any other
	// value this field takes.
	InitialTrackerRateHz uint32

	// Debug gates the verbose per-frame validation-failure log path
	// (§7); terse operational logs (state transitions, peer churn)
	// always print.
	Debug  bool
	Logger *log.Logger
}

// NewCore constructs a Core in StateNotSetup. Call Upkeep to begin
// running it; the first tick performs the one-time radio setup.
func NewCore(cfg Config) *Core {
	if cfg.Status == nil {
		cfg.Status = NoopStatusSink{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	rate := cfg.InitialTrackerRateHz
	if rate == 0 {
		rate = 60
	}
	if rate > 1000 {
		rate = 1000
	}
	c := &Core{
		radio:         cfg.Radio,
		creds:         cfg.Creds,
		sensors:       cfg.Sensors,
		battery:       cfg.Battery,
		status:        cfg.Status,
		wifi:          cfg.Wifi,
		build:         cfg.Build,
		clock:         cfg.Clock,
		queue:         NewSendQueue(),
		channel:       NewChannelPlan(cfg.Build.Allow14Channels),
		state:         StateNotSetup,
		trackerRateHz: rate,
		debug:         cfg.Debug,
		logger:        cfg.Logger,
	}
	c.radio.SetReceiveCallback(c.handleReceive)
	return c
}

// State returns the current LinkState, mainly for tests and status
// reporting.
func (c *Core) State() LinkState { return c.state }

// Binding returns the current gateway binding, mainly for tests.
func (c *Core) Binding() GatewayBinding { return c.binding }

func (c *Core) logInfo(format string, args ...any) {
	c.logger.Printf("link: "+format, args...)
}

func (c *Core) logDebug(format string, args ...any) {
	if c.debug {
		c.logger.Printf("link debug: "+format, args...)
	}
}

func (c *Core) transitionTo(s LinkState) {
	if s != c.state {
		c.logInfo("%s -> %s", c.state, s)
	}
	c.state = s
}

// Upkeep advances the state machine by one tick. It should be called
// from a periodic timer at >=200Hz; it never blocks. Inside OtaUpdate the
// Wi-Fi join is started once and then polled through WifiJoiner.Joined on
// each tick rather than waited on.
func (c *Core) Upkeep() {
	now := c.clock.NowMs()

	c.queue.Drain(c.clock, c.radio, c.onHeartbeatSent, c.onTelemetrySendFailed)

	switch c.state {
	case StateNotSetup:
		c.setup()
	case StateSearching:
		c.tickSearching()
	case StatePairing:
		c.tickPairing(now)
	case StateConnecting:
		c.tickConnecting(now)
	case StateConnected:
		c.tickConnected(now)
	case StateOtaUpdate:
		c.tickOta(now)
	case StateFailed:
		// terminal; nothing to do until the process restarts.
	}
}

func (c *Core) setup() {
	if err := c.radio.Init(); err != nil {
		c.logInfo("radio init failed: %v", err)
		c.transitionTo(StateFailed)
		return
	}
	c.radio.AddPeer(BroadcastMAC, true)
	c.channel.SetChannel(c.radio, c.channel.ScanList[0])
	c.transitionTo(StateSearching)
	c.tickSearching()
}

func (c *Core) tickSearching() {
	mac, hasMAC := c.creds.GetMAC()
	sec, hasSec := c.creds.GetSecurity()
	if hasMAC && hasSec {
		c.binding = GatewayBinding{MAC: mac, Security: sec, Present: true}
		c.priorBindingKnown = true
		c.status.Set(StatusWifiConnecting, false)
		c.status.Set(StatusPairingMode, false)
		c.transitionTo(StateConnecting)
		c.connectingEnteredMs = c.clock.NowMs()
		c.status.Set(StatusWifiConnecting, true)
		return
	}
	c.priorBindingKnown = false
	c.pairingEnteredMs = c.clock.NowMs()
	c.status.Set(StatusPairingMode, true)
	c.transitionTo(StatePairing)
}

func (c *Core) tickPairing(now int64) {
	timeout := int64(pairingTimeoutColdMs)
	if c.priorBindingKnown {
		timeout = pairingTimeoutFastMs
	}
	if now-c.pairingEnteredMs >= timeout {
		if c.binding.Present {
			c.radio.DeletePeer(c.binding.MAC)
		}
		c.binding = GatewayBinding{}
		c.transitionTo(StateSearching)
		return
	}

	if !c.binding.Present {
		if now-c.lastScanAdvanceMs >= scanAdvanceIntervalMs {
			c.lastScanAdvanceMs = now
			c.channel.AdvanceScan(c.radio)
		}
		return
	}

	if now-c.lastPairingReqMs >= pairingReqIntervalMs {
		c.lastPairingReqMs = now
		frame := pairingReqFrame(c.binding.Security)
		c.queue.Enqueue(PendingMessage{PeerMAC: c.binding.MAC, Payload: frame, Ephemeral: true})
	}
}

func (c *Core) tickConnecting(now int64) {
	if !c.binding.Present {
		c.transitionTo(StateSearching)
		return
	}
	if now-c.connectingEnteredMs >= connectingTimeoutMs {
		// The credential store still holds this binding, so the fast-pair
		// timeout applies on the way back through Pairing (§4.5).
		c.priorBindingKnown = true
		c.transitionTo(StatePairing)
		c.pairingEnteredMs = now
		return
	}
	if now-c.lastStepChannelMs >= stepChannelIntervalMs {
		c.lastStepChannelMs = now
		c.channel.StepChannel(c.radio, false)
	}
	if now-c.lastHandshakeReqMs >= handshakeReqIntervalMs {
		c.lastHandshakeReqMs = now
		frame := handshakeReqFrame(c.binding.Security)
		c.queue.Enqueue(PendingMessage{PeerMAC: BroadcastMAC, Payload: frame, UseDefaultRate: true})
	}
}

func (c *Core) tickConnected(now int64) {
	c.status.Set(StatusWifiConnecting, false)
	c.status.Set(StatusPairingMode, false)

	if now-c.lastHeartbeatTickMs >= HeartbeatIntervalMs {
		c.lastHeartbeatTickMs = now
		c.tickHeartbeat(now)
	}

	c.runTelemetry(now)
}

func (c *Core) tickHeartbeat(now int64) {
	if c.heartbeat.AwaitingResponse {
		c.heartbeat.Missed++
		if c.heartbeat.Missed >= MaxMissedHeartbeats {
			c.channel.RetreatScanCursor()
			c.radio.DeletePeer(c.binding.MAC)
			c.queue.RemoveForPeer(c.binding.MAC)
			c.transitionTo(StateConnecting)
			c.connectingEnteredMs = now
			c.heartbeat.Reset()
			return
		}
		c.heartbeat.AwaitingResponse = false
	}
	if !c.heartbeat.AwaitingResponse {
		seq := randomSequence()
		c.heartbeat.Sequence = seq
		c.heartbeat.AwaitingResponse = true
		c.heartbeat.SentAtMs = now
		frame := heartbeatEchoFrame(seq)
		c.queue.Enqueue(PendingMessage{PeerMAC: c.binding.MAC, Payload: frame, IsHeartbeat: true})
	}
}

func (c *Core) onHeartbeatSent() {
	c.lastHeartbeatSentMs = c.clock.NowMs()
}

// LastHeartbeatSentMs returns the monotonic time of the last successfully
// sent outbound HeartbeatEcho, mainly for tests and status reporting.
func (c *Core) LastHeartbeatSentMs() int64 { return c.lastHeartbeatSentMs }
