package link

// MaxMissedHeartbeats is the threshold at which Connected gives up and
// falls back to Connecting (§4.5).
const MaxMissedHeartbeats = 5

// HeartbeatIntervalMs is how often, in Connected, the outbound side checks
// for a missed response and (if not already awaiting one) sends a new
// echo.
const HeartbeatIntervalMs = 1000

// HeartbeatState tracks both directions of the bidirectional heartbeat:
// the echo this tracker sends and waits on a response for, and the
// sequence of the last echo received from the gateway (for duplicate
// suppression).
type HeartbeatState struct {
	AwaitingResponse bool
	Sequence         uint16
	SentAtMs         int64
	Missed           byte

	HasLastEcho      bool
	LastEchoSequence uint16
}

// Reset clears heartbeat state in both directions (outbound tracking and
// the inbound duplicate-suppression sequence). Used when entering
// Connected, on loss-of-link and on Unpair.
func (h *HeartbeatState) Reset() {
	*h = HeartbeatState{}
}

// OnResponse processes an inbound HeartbeatResp. It clears
// AwaitingResponse and resets Missed only if seq matches the most
// recently sent outbound sequence; a mismatched seq changes nothing
// (§8: "responses with mismatched seq neither clear awaitingResponse
// nor reset missed").
func (h *HeartbeatState) OnResponse(seq uint16) {
	if !h.AwaitingResponse || seq != h.Sequence {
		return
	}
	h.AwaitingResponse = false
	h.Missed = 0
}

// OnInboundEcho records an inbound HeartbeatEcho's sequence and reports
// whether it is a duplicate of the last one seen (in which case the
// caller must not respond again).
func (h *HeartbeatState) OnInboundEcho(seq uint16) (duplicate bool) {
	if h.HasLastEcho && seq == h.LastEchoSequence {
		return true
	}
	h.HasLastEcho = true
	h.LastEchoSequence = seq
	return false
}
