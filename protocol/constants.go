// Package protocol implements the wire format of the tracker/gateway link:
// the tagged frame union, telemetry packet packing, and the saturating
// fixed-point helpers the packing needs. Higher layers (link) depend on
// this package; it depends on nothing project-specific.
package protocol

// Frame type tags. The first byte of every on-air frame is one of these.
const (
	TypePairingReq          byte = 0
	TypePairingResp         byte = 1
	TypeHandshakeReq        byte = 2
	TypeHandshakeResp       byte = 3
	TypeHeartbeatEcho       byte = 4
	TypeHeartbeatResp       byte = 5
	TypeTrackerData         byte = 6
	TypePairingAnnouncement byte = 7
	TypeUnpair              byte = 8
	TypeSetTrackerRate      byte = 9
	TypeEnterOta            byte = 10
	TypeOtaAck              byte = 11
)

// Field widths shared by several frames.
const (
	MACSize      = 6
	SecuritySize = 8
	OtaAuthSize  = 16
	SSIDSize     = 33 // 32 chars + NUL
	PassSize     = 65 // 64 chars + NUL

	// MaxFramePayload bounds the variable part of TrackerData (the telemetry
	// sub-frame). The spec fixes telemetry sub-frames at 16 bytes, but the
	// codec itself tolerates anything up to this limit.
	MaxFramePayload = 128

	// TelemetryFrameSize is the fixed size of every Frame 0/1/3/4 sub-frame.
	TelemetryFrameSize = 16
)

// Telemetry sub-frame type tags, carried as the first byte of a
// TrackerData payload.
const (
	TelemetryDeviceInfo byte = 0
	TelemetryQuatAccel  byte = 1
	TelemetryStatus     byte = 3
	TelemetryQuatMag    byte = 4
)

// Magnetometer status values for Frame 0.
const (
	MagNotSupported byte = 0
	MagDisabled     byte = 1
	MagEnabled      byte = 2
)
