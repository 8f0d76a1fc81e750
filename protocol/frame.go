package protocol

import "encoding/binary"

// Frame is the tagged union of every on-air message. Decode returns a
// concrete variant behind this interface; Encode accepts any of them. There
// is no raw C-style union here - each variant is its own struct, and Decode
// is the single entry point that turns bytes into one of them or an error.
type Frame interface {
	Type() byte
}

// PairingReq is sent tracker -> gateway to start pairing.
type PairingReq struct {
	Security [SecuritySize]byte
}

func (PairingReq) Type() byte { return TypePairingReq }

// PairingResp is sent gateway -> tracker acknowledging a pairing request.
type PairingResp struct{}

func (PairingResp) Type() byte { return TypePairingResp }

// HandshakeReq is sent tracker -> gateway once a binding is known.
type HandshakeReq struct {
	Security [SecuritySize]byte
}

func (HandshakeReq) Type() byte { return TypeHandshakeReq }

// HandshakeResp assigns the tracker a channel and tracker ID.
type HandshakeResp struct {
	Channel   byte
	TrackerID byte
}

func (HandshakeResp) Type() byte { return TypeHandshakeResp }

// HeartbeatEcho carries a sequence number either side uses to detect loss.
type HeartbeatEcho struct {
	Seq uint16
}

func (HeartbeatEcho) Type() byte { return TypeHeartbeatEcho }

// HeartbeatResp answers a HeartbeatEcho with the same sequence number.
type HeartbeatResp struct {
	Seq uint16
}

func (HeartbeatResp) Type() byte { return TypeHeartbeatResp }

// TrackerData carries an opaque telemetry sub-frame (see telemetry.go).
type TrackerData struct {
	Payload []byte
}

func (TrackerData) Type() byte { return TypeTrackerData }

// PairingAnnouncement is broadcast gateway -> trackers during pairing mode.
type PairingAnnouncement struct {
	Channel  byte
	Security [SecuritySize]byte
}

func (PairingAnnouncement) Type() byte { return TypePairingAnnouncement }

// Unpair clears a binding on both sides.
type Unpair struct {
	Security [SecuritySize]byte
}

func (Unpair) Type() byte { return TypeUnpair }

// SetTrackerRate adjusts the telemetry Frame-1 cadence.
type SetTrackerRate struct {
	RateHz uint32
}

func (SetTrackerRate) Type() byte { return TypeSetTrackerRate }

// EnterOta is the authenticated command that hands the tracker off to
// firmware-update mode.
type EnterOta struct {
	Security [SecuritySize]byte
	Auth     [OtaAuthSize]byte
	Port     uint32
	IP       [4]byte
	SSID     string // at most 32 bytes, NUL-padded on the wire
	Pass     string // at most 64 bytes, NUL-padded on the wire
}

func (EnterOta) Type() byte { return TypeEnterOta }

// OtaAck acknowledges EnterOta.
type OtaAck struct{}

func (OtaAck) Type() byte { return TypeOtaAck }

// Encode serialises any known Frame variant into its on-air byte layout:
// little-endian, packed, tag byte first.
func Encode(f Frame) []byte {
	switch v := f.(type) {
	case PairingReq:
		return append([]byte{TypePairingReq}, v.Security[:]...)
	case PairingResp:
		return []byte{TypePairingResp}
	case HandshakeReq:
		return append([]byte{TypeHandshakeReq}, v.Security[:]...)
	case HandshakeResp:
		return []byte{TypeHandshakeResp, v.Channel, v.TrackerID}
	case HeartbeatEcho:
		return encodeSeq(TypeHeartbeatEcho, v.Seq)
	case HeartbeatResp:
		return encodeSeq(TypeHeartbeatResp, v.Seq)
	case TrackerData:
		n := len(v.Payload)
		if n > MaxFramePayload {
			n = MaxFramePayload
		}
		out := make([]byte, 2+n)
		out[0] = TypeTrackerData
		out[1] = byte(n)
		copy(out[2:], v.Payload[:n])
		return out
	case PairingAnnouncement:
		out := make([]byte, 2+SecuritySize)
		out[0] = TypePairingAnnouncement
		out[1] = v.Channel
		copy(out[2:], v.Security[:])
		return out
	case Unpair:
		return append([]byte{TypeUnpair}, v.Security[:]...)
	case SetTrackerRate:
		out := make([]byte, 5)
		out[0] = TypeSetTrackerRate
		binary.LittleEndian.PutUint32(out[1:5], v.RateHz)
		return out
	case EnterOta:
		return encodeEnterOta(v)
	case OtaAck:
		return []byte{TypeOtaAck}
	default:
		return nil
	}
}

func encodeSeq(tag byte, seq uint16) []byte {
	out := make([]byte, 3)
	out[0] = tag
	binary.LittleEndian.PutUint16(out[1:3], seq)
	return out
}

func encodeEnterOta(v EnterOta) []byte {
	const size = 1 + SecuritySize + OtaAuthSize + 4 + 4 + SSIDSize + PassSize
	out := make([]byte, size)
	out[0] = TypeEnterOta
	off := 1
	copy(out[off:], v.Security[:])
	off += SecuritySize
	copy(out[off:], v.Auth[:])
	off += OtaAuthSize
	binary.LittleEndian.PutUint32(out[off:off+4], v.Port)
	off += 4
	copy(out[off:off+4], v.IP[:])
	off += 4
	putCString(out[off:off+SSIDSize], v.SSID)
	off += SSIDSize
	putCString(out[off:off+PassSize], v.Pass)
	return out
}

func putCString(dst []byte, s string) {
	n := len(s)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst, s[:n])
	// remainder, including the NUL terminator slot, is already zero
}

func getCString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

// Decode parses a single on-air frame, dispatching on its tag byte. It
// returns ErrUnknownFrame for an unrecognised tag and ErrTruncatedFrame if
// the buffer is shorter than the tag's fixed layout requires.
func Decode(data []byte) (Frame, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedFrame
	}
	tag, body := data[0], data[1:]
	switch tag {
	case TypePairingReq:
		sec, err := takeSecurity(body)
		if err != nil {
			return nil, err
		}
		return PairingReq{Security: sec}, nil
	case TypePairingResp:
		return PairingResp{}, nil
	case TypeHandshakeReq:
		sec, err := takeSecurity(body)
		if err != nil {
			return nil, err
		}
		return HandshakeReq{Security: sec}, nil
	case TypeHandshakeResp:
		if len(body) < 2 {
			return nil, ErrTruncatedFrame
		}
		return HandshakeResp{Channel: body[0], TrackerID: body[1]}, nil
	case TypeHeartbeatEcho:
		seq, err := takeSeq(body)
		if err != nil {
			return nil, err
		}
		return HeartbeatEcho{Seq: seq}, nil
	case TypeHeartbeatResp:
		seq, err := takeSeq(body)
		if err != nil {
			return nil, err
		}
		return HeartbeatResp{Seq: seq}, nil
	case TypeTrackerData:
		if len(body) < 1 {
			return nil, ErrTruncatedFrame
		}
		n := int(body[0])
		if len(body) < 1+n {
			return nil, ErrTruncatedFrame
		}
		payload := make([]byte, n)
		copy(payload, body[1:1+n])
		return TrackerData{Payload: payload}, nil
	case TypePairingAnnouncement:
		if len(body) < 1+SecuritySize {
			return nil, ErrTruncatedFrame
		}
		var sec [SecuritySize]byte
		copy(sec[:], body[1:1+SecuritySize])
		return PairingAnnouncement{Channel: body[0], Security: sec}, nil
	case TypeUnpair:
		sec, err := takeSecurity(body)
		if err != nil {
			return nil, err
		}
		return Unpair{Security: sec}, nil
	case TypeSetTrackerRate:
		if len(body) < 4 {
			return nil, ErrTruncatedFrame
		}
		return SetTrackerRate{RateHz: binary.LittleEndian.Uint32(body[:4])}, nil
	case TypeEnterOta:
		return decodeEnterOta(body)
	case TypeOtaAck:
		return OtaAck{}, nil
	default:
		return nil, ErrUnknownFrame
	}
}

func takeSecurity(body []byte) ([SecuritySize]byte, error) {
	var sec [SecuritySize]byte
	if len(body) < SecuritySize {
		return sec, ErrTruncatedFrame
	}
	copy(sec[:], body[:SecuritySize])
	return sec, nil
}

func takeSeq(body []byte) (uint16, error) {
	if len(body) < 2 {
		return 0, ErrTruncatedFrame
	}
	return binary.LittleEndian.Uint16(body[:2]), nil
}

func decodeEnterOta(body []byte) (Frame, error) {
	const size = SecuritySize + OtaAuthSize + 4 + 4 + SSIDSize + PassSize
	if len(body) < size {
		return nil, ErrTruncatedFrame
	}
	var v EnterOta
	off := 0
	copy(v.Security[:], body[off:off+SecuritySize])
	off += SecuritySize
	copy(v.Auth[:], body[off:off+OtaAuthSize])
	off += OtaAuthSize
	v.Port = binary.LittleEndian.Uint32(body[off : off+4])
	off += 4
	copy(v.IP[:], body[off:off+4])
	off += 4
	v.SSID = getCString(body[off : off+SSIDSize])
	off += SSIDSize
	v.Pass = getCString(body[off : off+PassSize])
	return v, nil
}
