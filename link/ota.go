package link

import (
	"net"

	"trackerlink/protocol"
)

// otaPingPrefix is the literal 10 ASCII bytes the firmware sends as the
// out-of-band UDP ping once Wi-Fi infrastructure mode is joined.
const otaPingPrefix = "OTAREQUEST"

func (c *Core) handleEnterOta(f protocol.EnterOta) {
	if f.Security != c.binding.Security {
		c.logDebug("drop: EnterOta with bad security from %x", c.binding.MAC)
		return
	}

	c.ota = OtaJoinCredentials{
		Auth: f.Auth,
		IP:   f.IP,
		Port: f.Port,
		SSID: f.SSID,
		Pass: f.Pass,
	}

	c.queue.Flush()
	ack := otaAckFrame()
	for i := 0; i < 3; i++ {
		// Bypass the send queue's own spacing for this triplet: the
		// handoff is latency-sensitive and the queue is about to be
		// abandoned anyway.
		c.radio.Send(c.binding.MAC, ack)
	}
	c.radio.DeletePeer(c.binding.MAC)

	c.otaEnteredMs = c.clock.NowMs()
	c.otaJoined = false
	c.otaJoinAttemptMs = 0
	c.status.Set(StatusUpdating, true)
	c.transitionTo(StateOtaUpdate)
}

func (c *Core) tickOta(now int64) {
	if c.wifi == nil {
		c.abortOta()
		return
	}

	if !c.otaJoined {
		if c.wifi.Joined() {
			c.otaJoined = true
			c.otaJoinedAtMs = now
		} else {
			if c.otaJoinAttemptMs == 0 {
				c.otaJoinAttemptMs = now
				if err := c.wifi.Join(c.ota.SSID, c.ota.Pass); err != nil {
					c.logInfo("ota wifi join failed: %v", err)
				}
			}
			if now-c.otaEnteredMs >= otaJoinTimeoutMs {
				c.abortOta()
			}
			return
		}
	}

	if now-c.otaJoinedAtMs >= otaBeginTimeoutMs {
		c.abortOta()
		return
	}

	c.sendOtaPing()
}

func (c *Core) sendOtaPing() {
	addr := net.UDPAddr{IP: net.IPv4(c.ota.IP[0], c.ota.IP[1], c.ota.IP[2], c.ota.IP[3]), Port: int(c.ota.Port)}
	conn, err := net.Dial("udp4", addr.String())
	if err != nil {
		c.logDebug("ota ping dial failed: %v", err)
		return
	}
	defer conn.Close()

	payload := make([]byte, 0, len(otaPingPrefix)+len(c.ota.Auth))
	payload = append(payload, []byte(otaPingPrefix)...)
	payload = append(payload, c.ota.Auth[:]...)
	if _, err := conn.Write(payload); err != nil {
		c.logDebug("ota ping write failed: %v", err)
	}
}

func (c *Core) abortOta() {
	c.status.Set(StatusUpdating, false)
	c.transitionTo(StateNotSetup)
}
