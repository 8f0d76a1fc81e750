package link

import "sync"

// SendQueueCapacity is the fixed number of PendingMessage slots. The
// queue is array-backed, not a slice that grows, so its footprint is
// known at construction time.
const SendQueueCapacity = 32

// MaxQueuedPayload bounds PendingMessage.Payload, matching the wire
// frame's own 128-byte ceiling.
const MaxQueuedPayload = 128

// TSendMicros is the minimum spacing between two drained sends.
const TSendMicros = 5000

// PendingMessage is one queued outbound send.
type PendingMessage struct {
	PeerMAC        MAC
	Payload        []byte
	IsHeartbeat    bool
	IsTelemetry    bool
	Ephemeral      bool
	UseDefaultRate bool
}

// SendQueue is a bounded, array-backed ring buffer of PendingMessage. The
// receive callback and the upkeep tick are its only two writers; a single
// mutex guards head/tail bookkeeping, never the Send call itself (see
// SPEC_FULL.md §9 for why this beats a lock-free ring here: PendingMessage
// is a variable-size struct, not a byte stream).
type SendQueue struct {
	mu                sync.Mutex
	data              [SendQueueCapacity]PendingMessage
	head, tail, count int
	lastSendUs        int64
	haveLastSend      bool
	dropped           uint64
}

// NewSendQueue returns an empty queue.
func NewSendQueue() *SendQueue { return &SendQueue{} }

// Enqueue appends msg to the tail. It returns false, without blocking or
// evicting anything, if the queue is already at capacity - drop-new-on-
// full is the documented policy (§4.3): retransmits of stale telemetry
// would only make congestion worse.
func (q *SendQueue) Enqueue(msg PendingMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == SendQueueCapacity {
		q.dropped++
		return false
	}
	q.data[q.tail] = msg
	q.tail = (q.tail + 1) % SendQueueCapacity
	q.count++
	return true
}

// Dropped returns the number of messages rejected by a full queue.
func (q *SendQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Len returns the number of queued messages.
func (q *SendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// RemoveForPeer drops every queued message addressed to mac without
// sending it. Used on loss-of-link, when the gateway peer is torn down,
// so stale frames never reach a peer we are about to forget; Unpair and
// OTA entry flush the whole queue instead.
func (q *SendQueue) RemoveForPeer(mac MAC) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := make([]PendingMessage, 0, q.count)
	for i, c := 0, 0; c < q.count; i, c = (i+1)%SendQueueCapacity, c+1 {
		msg := q.data[(q.head+i)%SendQueueCapacity]
		if msg.PeerMAC != mac {
			kept = append(kept, msg)
		}
	}
	q.head, q.tail, q.count = 0, 0, 0
	for _, msg := range kept {
		q.data[q.tail] = msg
		q.tail = (q.tail + 1) % SendQueueCapacity
		q.count++
	}
}

// Flush drops every queued message, regardless of peer. Used on OTA
// entry.
func (q *SendQueue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.head, q.tail, q.count = 0, 0, 0
}

func (q *SendQueue) popHead() (PendingMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return PendingMessage{}, false
	}
	msg := q.data[q.head]
	q.head = (q.head + 1) % SendQueueCapacity
	q.count--
	return msg, true
}

// Drain attempts to send at most one queued message, subject to the
// TSendMicros spacing. radio is the driver to send through; onHeartbeatSent,
// if non-nil, is called after a successful heartbeat send; onTelemetryFail,
// if non-nil, is called when a telemetry-marked message's Send did not
// return SendOK (§4.7's backoff trigger).
func (q *SendQueue) Drain(clock Clock, radio RadioDriver, onHeartbeatSent func(), onTelemetryFail func()) {
	nowUs := clock.NowUs()
	q.mu.Lock()
	if q.haveLastSend && nowUs-q.lastSendUs < TSendMicros {
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	msg, ok := q.popHead()
	if !ok {
		return
	}

	if len(msg.Payload) < 1 || len(msg.Payload) > MaxQueuedPayload {
		return
	}

	radio.AddPeer(msg.PeerMAC, msg.UseDefaultRate)
	result := radio.Send(msg.PeerMAC, msg.Payload)

	q.mu.Lock()
	q.lastSendUs = nowUs
	q.haveLastSend = true
	q.mu.Unlock()

	if msg.Ephemeral {
		radio.DeletePeer(msg.PeerMAC)
	}
	if msg.IsHeartbeat && result == SendOK && onHeartbeatSent != nil {
		onHeartbeatSent()
	}
	if msg.IsTelemetry && result != SendOK && onTelemetryFail != nil {
		onTelemetryFail()
	}
}
