package link

import "trackerlink/protocol"

// handleReceive is the RadioDriver's receive callback, bound to this
// Core at construction (§9: no process-wide lookup table). It must not
// block; it parses the frame, validates it, and enqueues replies or
// mutates state. The one exception to enqueue-only replies is a validated
// EnterOta, whose three OtaAck frames handleEnterOta sends directly
// through the radio.
func (c *Core) handleReceive(src MAC, data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		c.logDebug("drop: decode error from %x: %v", src, err)
		return
	}

	// Unpair is handled ahead of the per-state switch because it is valid
	// in any state with a binding (§4.5); SetTrackerRate is consumed here
	// too, and honoured only while Connected.
	switch f := frame.(type) {
	case protocol.Unpair:
		c.handleUnpair(src, f)
		return
	case protocol.SetTrackerRate:
		if c.state == StateConnected {
			c.handleSetTrackerRate(src, f)
		}
		return
	}

	switch c.state {
	case StatePairing:
		c.handlePairingFrame(src, frame)
	case StateConnecting:
		c.handleConnectingFrame(src, frame)
	case StateConnected:
		c.handleConnectedFrame(src, frame)
	default:
		c.logDebug("drop: frame type %T in state %s", frame, c.state)
	}
}

func (c *Core) fromBoundGateway(src MAC) bool {
	return c.binding.Present && src == c.binding.MAC
}

func (c *Core) handleUnpair(src MAC, f protocol.Unpair) {
	if !c.binding.Present || src != c.binding.MAC || f.Security != c.binding.Security {
		c.logDebug("drop: unpair with bad source/security from %x", src)
		return
	}
	c.radio.DeletePeer(c.binding.MAC)
	c.queue.Flush()
	c.creds.Clear()
	c.binding = GatewayBinding{}
	c.heartbeat.Reset()
	// The credential store no longer holds a binding, so rescanning after
	// this Unpair uses the cold timeout, not a stale fast-pair one.
	c.priorBindingKnown = false
	c.transitionTo(StatePairing)
	c.pairingEnteredMs = c.clock.NowMs()
	c.status.Set(StatusPairingMode, true)
}

func (c *Core) handleSetTrackerRate(src MAC, f protocol.SetTrackerRate) {
	if !c.fromBoundGateway(src) {
		c.logDebug("drop: SetTrackerRate from unbound source %x", src)
		return
	}
	rate := f.RateHz
	if rate < 1 {
		rate = 1
	}
	if rate > 1000 {
		rate = 1000
	}
	c.trackerRateHz = rate
}

func (c *Core) handlePairingFrame(src MAC, frame protocol.Frame) {
	switch f := frame.(type) {
	case protocol.PairingAnnouncement:
		if c.binding.Present {
			return // already latched onto an announcement this pairing window
		}
		c.binding = GatewayBinding{MAC: src, Security: f.Security, Present: true}
		c.channel.SetChannel(c.radio, f.Channel)
		// Back-date so the pairingReqIntervalMs gate in tickPairing is
		// already open on the very next tick, however soon that is.
		c.lastPairingReqMs = c.clock.NowMs() - pairingReqIntervalMs
	case protocol.PairingResp:
		if !c.binding.Present || src != c.binding.MAC {
			return
		}
		c.creds.Set(c.binding.MAC, c.binding.Security)
		c.status.Set(StatusWifiConnecting, true)
		c.status.Set(StatusPairingMode, false)
		c.transitionTo(StateConnecting)
		c.connectingEnteredMs = c.clock.NowMs()
	}
}

func (c *Core) handleConnectingFrame(src MAC, frame protocol.Frame) {
	resp, ok := frame.(protocol.HandshakeResp)
	if !ok {
		return
	}
	if !c.fromBoundGateway(src) {
		c.logDebug("drop: HandshakeResp from unbound source %x", src)
		return
	}
	c.binding.TrackerID = resp.TrackerID
	c.channel.SetChannel(c.radio, resp.Channel)
	c.heartbeat.Reset()
	c.transitionTo(StateConnected)
}

func (c *Core) handleConnectedFrame(src MAC, frame protocol.Frame) {
	if !c.fromBoundGateway(src) {
		c.logDebug("drop: frame from unbound source %x while Connected", src)
		return
	}
	switch f := frame.(type) {
	case protocol.HeartbeatResp:
		c.heartbeat.OnResponse(f.Seq)
	case protocol.HeartbeatEcho:
		c.handleInboundHeartbeatEcho(f)
	case protocol.EnterOta:
		c.handleEnterOta(f)
	default:
		c.logDebug("drop: unexpected frame %T while Connected", frame)
	}
}

func (c *Core) handleInboundHeartbeatEcho(f protocol.HeartbeatEcho) {
	if c.heartbeat.OnInboundEcho(f.Seq) {
		return // duplicate suppression
	}
	resp := heartbeatRespFrame(f.Seq)
	// Sent twice deliberately: redundancy to survive single-frame loss
	// without raising the cost of a full retry (§4.6, §9).
	c.queue.Enqueue(PendingMessage{PeerMAC: c.binding.MAC, Payload: resp})
	c.queue.Enqueue(PendingMessage{PeerMAC: c.binding.MAC, Payload: resp})
}
