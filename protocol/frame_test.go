package protocol

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var sec [SecuritySize]byte
	copy(sec[:], []byte("ABCDEFGH"))

	tests := []struct {
		name  string
		frame Frame
	}{
		{"pairing req", PairingReq{Security: sec}},
		{"pairing resp", PairingResp{}},
		{"handshake req", HandshakeReq{Security: sec}},
		{"handshake resp", HandshakeResp{Channel: 11, TrackerID: 3}},
		{"heartbeat echo", HeartbeatEcho{Seq: 0xBEEF}},
		{"heartbeat resp", HeartbeatResp{Seq: 0xBEEF}},
		{"tracker data", TrackerData{Payload: bytes.Repeat([]byte{0xAA}, TelemetryFrameSize)}},
		{"tracker data empty", TrackerData{Payload: nil}},
		{"pairing announcement", PairingAnnouncement{Channel: 5, Security: sec}},
		{"unpair", Unpair{Security: sec}},
		{"set tracker rate", SetTrackerRate{RateHz: 100}},
		{"ota ack", OtaAck{}},
		{"enter ota", EnterOta{
			Security: sec,
			Auth:     [OtaAuthSize]byte{1, 2, 3, 4},
			Port:     5060,
			IP:       [4]byte{192, 168, 1, 1},
			SSID:     "gateway-net",
			Pass:     "hunter2hunter2",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.frame)
			if len(encoded) == 0 {
				t.Fatal("Encode() returned empty buffer")
			}
			if encoded[0] != tt.frame.Type() {
				t.Fatalf("tag byte = %v, want %v", encoded[0], tt.frame.Type())
			}

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if decoded.Type() != tt.frame.Type() {
				t.Errorf("decoded type = %v, want %v", decoded.Type(), tt.frame.Type())
			}

			reEncoded := Encode(decoded)
			if !bytes.Equal(reEncoded, encoded) {
				t.Errorf("re-encoded bytes differ: got %x, want %x", reEncoded, encoded)
			}
		})
	}
}

func TestTrackerDataPayloadTruncation(t *testing.T) {
	oversized := bytes.Repeat([]byte{0xFF}, MaxFramePayload+50)
	encoded := Encode(TrackerData{Payload: oversized})

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	td, ok := decoded.(TrackerData)
	if !ok {
		t.Fatalf("decoded type = %T, want TrackerData", decoded)
	}
	if len(td.Payload) != MaxFramePayload {
		t.Errorf("payload length = %v, want %v", len(td.Payload), MaxFramePayload)
	}
}

func TestDecodeInvalidFrames(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"nil data", nil, ErrTruncatedFrame},
		{"unknown type", []byte{0xFF}, ErrUnknownFrame},
		{"truncated pairing req", []byte{TypePairingReq, 1, 2, 3}, ErrTruncatedFrame},
		{"truncated handshake resp", []byte{TypeHandshakeResp, 1}, ErrTruncatedFrame},
		{"truncated heartbeat echo", []byte{TypeHeartbeatEcho, 1}, ErrTruncatedFrame},
		{"truncated tracker data length", []byte{TypeTrackerData, 10, 1, 2}, ErrTruncatedFrame},
		{"truncated set tracker rate", []byte{TypeSetTrackerRate, 1, 2}, ErrTruncatedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if err != tt.wantErr {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnterOtaStringTruncationAndNulTermination(t *testing.T) {
	longSSID := bytes.Repeat([]byte{'x'}, SSIDSize+10)
	frame := EnterOta{
		Port: 9999,
		SSID: string(longSSID),
		Pass: "short",
	}
	encoded := Encode(frame)

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ota := decoded.(EnterOta)
	if len(ota.SSID) > SSIDSize-1 {
		t.Errorf("decoded SSID length = %v, want <= %v", len(ota.SSID), SSIDSize-1)
	}
	if ota.Pass != "short" {
		t.Errorf("decoded Pass = %q, want %q", ota.Pass, "short")
	}
}
