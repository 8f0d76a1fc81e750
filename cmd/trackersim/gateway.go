package main

import (
	"log"
	"time"

	"trackerlink/link"
	"trackerlink/protocol"
	"trackerlink/radio/simradio"
)

// gatewaySim is a minimal stand-in for the gateway side of the protocol:
// just enough of §4.5's gateway behaviour (announce, ack pairing, assign a
// channel and tracker ID, answer heartbeats) to carry one link.Core all
// the way to Connected over a radio/simradio.Network. It is not itself a
// second link.Core - the gateway side of this protocol is out of scope
// (spec.md §1) - so this is a hand-scripted responder, not a reusable
// package.
type gatewaySim struct {
	driver *simradio.Driver
	mac    link.MAC
	sec    link.Security

	// operatingChannel is the channel assigned to the tracker once
	// handshake completes; the gateway itself hops there to match, the
	// same way the test harness's h.gateway.SetChannel follows it.
	operatingChannel byte
	trackerID        byte

	bound           bool
	lastAnnounceMs  int64
	trackerMAC      link.MAC
	trackerMACKnown bool
}

func newGatewaySim(net *simradio.Network, mac link.MAC, sec link.Security, operatingChannel, trackerID byte) *gatewaySim {
	d := simradio.NewDriver(net, mac)
	d.SetChannel(link.DefaultScanList[0])
	g := &gatewaySim{
		driver:           d,
		mac:              mac,
		sec:              sec,
		operatingChannel: operatingChannel,
		trackerID:        trackerID,
	}
	d.SetReceiveCallback(g.onReceive)
	return g
}

// follow re-tunes the gateway to whatever channel tracker is currently
// on. A real gateway discovers this by listening; here, owning both ends
// of the loopback network, we just read it directly off the simulated
// driver rather than reimplementing a scanning receiver for a demo.
func (g *gatewaySim) follow(tracker *simradio.Driver) {
	if !g.bound {
		g.driver.SetChannel(tracker.Channel())
	}
}

// tick re-broadcasts the pairing announcement every 500ms until a tracker
// has bound.
func (g *gatewaySim) tick(nowMs int64) {
	if g.bound {
		return
	}
	if nowMs-g.lastAnnounceMs < 500 {
		return
	}
	g.lastAnnounceMs = nowMs
	ann := protocol.PairingAnnouncement{Channel: g.driver.Channel(), Security: g.sec}
	g.driver.Send(link.BroadcastMAC, protocol.Encode(ann))
}

func (g *gatewaySim) onReceive(src link.MAC, data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		log.Printf("gateway: decode error from %x: %v", src, err)
		return
	}
	switch f := frame.(type) {
	case protocol.PairingReq:
		if f.Security != g.sec {
			log.Printf("gateway: PairingReq from %x with wrong security, ignoring", src)
			return
		}
		g.trackerMAC, g.trackerMACKnown = src, true
		log.Printf("gateway: PairingReq from %x accepted, sending PairingResp", src)
		g.driver.Send(src, protocol.Encode(protocol.PairingResp{}))
	case protocol.HandshakeReq:
		if f.Security != g.sec {
			log.Printf("gateway: HandshakeReq from %x with wrong security, ignoring", src)
			return
		}
		if g.trackerMACKnown && src != g.trackerMAC {
			log.Printf("gateway: HandshakeReq from unexpected %x, expected %x", src, g.trackerMAC)
			return
		}
		g.bound = true
		log.Printf("gateway: HandshakeReq from %x, assigning channel %d / tracker id %d",
			src, g.operatingChannel, g.trackerID)
		g.driver.Send(src, protocol.Encode(protocol.HandshakeResp{
			Channel:   g.operatingChannel,
			TrackerID: g.trackerID,
		}))
		g.driver.SetChannel(g.operatingChannel)
	case protocol.HeartbeatEcho:
		log.Printf("gateway: HeartbeatEcho seq=%d from %x, answering", f.Seq, src)
		g.driver.Send(src, protocol.Encode(protocol.HeartbeatResp{Seq: f.Seq}))
	case protocol.TrackerData:
		g.logTelemetry(f.Payload)
	default:
		log.Printf("gateway: unexpected frame %T from %x", frame, src)
	}
}

func (g *gatewaySim) logTelemetry(payload []byte) {
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case protocol.TelemetryDeviceInfo:
		info, err := protocol.DecodeDeviceInfo(payload[1:])
		if err == nil {
			log.Printf("gateway: frame0 DeviceInfo board=%d mcu=%d mag=%d", info.BoardID, info.MCUID, info.MagStatus)
		}
	case protocol.TelemetryQuatAccel:
		qa, err := protocol.DecodeQuatAccel(payload[1:])
		if err == nil {
			log.Printf("gateway: frame1 QuatAccel q=(%.2f,%.2f,%.2f,%.2f) a=(%.2f,%.2f,%.2f)",
				qa.QX, qa.QY, qa.QZ, qa.QW, qa.AX, qa.AY, qa.AZ)
		}
	case protocol.TelemetryStatus:
		st, err := protocol.DecodeStatus(payload[1:])
		if err == nil {
			log.Printf("gateway: frame3 Status connected=%v trackerStatus=%d", st.ServerConnected, st.TrackerStatus)
		}
	case protocol.TelemetryQuatMag:
		qm, err := protocol.DecodeQuatMag(payload[1:])
		if err == nil {
			log.Printf("gateway: frame4 QuatMag q=(%.2f,%.2f,%.2f,%.2f) m=(%.2f,%.2f,%.2f)",
				qm.QX, qm.QY, qm.QZ, qm.QW, qm.MX, qm.MY, qm.MZ)
		}
	}
}

// nowMs is a small convenience so main.go can stay in terms of
// time.Duration while gatewaySim.tick wants the same millisecond clock
// the tracker core runs on.
func nowMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
