package protocol

import "encoding/binary"

// Telemetry sub-frames are the fixed 16-byte payloads carried inside a
// TrackerData frame's payload, each beginning with a frame-type byte and a
// trackerId byte. Layouts mirror the firmware's sendPacket0/1/3/4
// functions exactly, with fixed-point packing delegated to the helpers in
// fixedpoint.go.

// DeviceInfo is telemetry frame 0: battery state, hardware identity,
// magnetometer presence and firmware build stamp. Cadence 250ms.
type DeviceInfo struct {
	TrackerID      byte
	BatteryEncoded byte
	VoltageEncoded byte
	TempEncoded    byte
	BoardID        byte
	MCUID          byte
	IMUID          byte
	MagStatus      byte // MagNotSupported/MagDisabled/MagEnabled
	FirmwareDate   uint16
	FirmwareMajor  byte
	FirmwareMinor  byte
	FirmwarePatch  byte
}

// EncodeDeviceInfo packs a DeviceInfo into its fixed 16-byte wire layout.
func EncodeDeviceInfo(d DeviceInfo) []byte {
	out := make([]byte, TelemetryFrameSize)
	out[0] = TelemetryDeviceInfo
	out[1] = d.TrackerID
	out[2] = d.BatteryEncoded
	out[3] = d.VoltageEncoded
	out[4] = d.TempEncoded
	out[5] = d.BoardID
	out[6] = d.MCUID
	out[7] = 0 // reserved
	out[8] = d.IMUID
	out[9] = d.MagStatus
	binary.LittleEndian.PutUint16(out[10:12], d.FirmwareDate)
	out[12] = d.FirmwareMajor
	out[13] = d.FirmwareMinor
	out[14] = d.FirmwarePatch
	out[15] = 0 // rssi placeholder
	return out
}

// DecodeDeviceInfo unpacks a telemetry frame produced by EncodeDeviceInfo.
// body excludes the leading frame-type byte.
func DecodeDeviceInfo(body []byte) (DeviceInfo, error) {
	if len(body) < TelemetryFrameSize-1 {
		return DeviceInfo{}, ErrInvalidPayload
	}
	return DeviceInfo{
		TrackerID:      body[0],
		BatteryEncoded: body[1],
		VoltageEncoded: body[2],
		TempEncoded:    body[3],
		BoardID:        body[4],
		MCUID:          body[5],
		IMUID:          body[7],
		MagStatus:      body[8],
		FirmwareDate:   binary.LittleEndian.Uint16(body[9:11]),
		FirmwareMajor:  body[11],
		FirmwareMinor:  body[12],
		FirmwarePatch:  body[13],
	}, nil
}

// QuatAccel is telemetry frame 1: IMU orientation and linear acceleration.
// Emitted at the tracker's configured rate, only on fresh data.
type QuatAccel struct {
	TrackerID      byte
	QX, QY, QZ, QW float64 // unit quaternion, [-1,1]
	AX, AY, AZ     float64 // acceleration, m/s^2
}

// EncodeQuatAccel packs a QuatAccel reading into its fixed 16-byte wire
// layout: qx,qy,qz,qw at scale 32767, then ax,ay,az at scale 127.
func EncodeQuatAccel(q QuatAccel) []byte {
	out := make([]byte, TelemetryFrameSize)
	out[0] = TelemetryQuatAccel
	out[1] = q.TrackerID
	binary.LittleEndian.PutUint16(out[2:4], uint16(QuatFixed(q.QX)))
	binary.LittleEndian.PutUint16(out[4:6], uint16(QuatFixed(q.QY)))
	binary.LittleEndian.PutUint16(out[6:8], uint16(QuatFixed(q.QZ)))
	binary.LittleEndian.PutUint16(out[8:10], uint16(QuatFixed(q.QW)))
	binary.LittleEndian.PutUint16(out[10:12], uint16(AccelFixed(q.AX)))
	binary.LittleEndian.PutUint16(out[12:14], uint16(AccelFixed(q.AY)))
	binary.LittleEndian.PutUint16(out[14:16], uint16(AccelFixed(q.AZ)))
	return out
}

// DecodeQuatAccel unpacks a telemetry frame produced by EncodeQuatAccel.
// body excludes the leading frame-type byte.
func DecodeQuatAccel(body []byte) (QuatAccel, error) {
	if len(body) < TelemetryFrameSize-1 {
		return QuatAccel{}, ErrInvalidPayload
	}
	return QuatAccel{
		TrackerID: body[0],
		QX:        float64(int16(binary.LittleEndian.Uint16(body[1:3]))) / 32767,
		QY:        float64(int16(binary.LittleEndian.Uint16(body[3:5]))) / 32767,
		QZ:        float64(int16(binary.LittleEndian.Uint16(body[5:7]))) / 32767,
		QW:        float64(int16(binary.LittleEndian.Uint16(body[7:9]))) / 32767,
		AX:        float64(int16(binary.LittleEndian.Uint16(body[9:11]))) / 127,
		AY:        float64(int16(binary.LittleEndian.Uint16(body[11:13]))) / 127,
		AZ:        float64(int16(binary.LittleEndian.Uint16(body[13:15]))) / 127,
	}, nil
}

// Status is telemetry frame 3: coarse link/tracker health. Cadence 1s.
type Status struct {
	TrackerID       byte
	ServerConnected bool
	TrackerStatus   byte
}

// EncodeStatus packs a Status reading into its fixed 16-byte wire layout.
func EncodeStatus(s Status) []byte {
	out := make([]byte, TelemetryFrameSize)
	out[0] = TelemetryStatus
	out[1] = s.TrackerID
	if s.ServerConnected {
		out[2] = 1
	}
	out[3] = s.TrackerStatus
	// out[4:15] reserved, zero
	out[15] = 0 // rssi placeholder
	return out
}

// DecodeStatus unpacks a telemetry frame produced by EncodeStatus. body
// excludes the leading frame-type byte.
func DecodeStatus(body []byte) (Status, error) {
	if len(body) < TelemetryFrameSize-1 {
		return Status{}, ErrInvalidPayload
	}
	return Status{
		TrackerID:       body[0],
		ServerConnected: body[1] != 0,
		TrackerStatus:   body[2],
	}, nil
}

// QuatMag is telemetry frame 4: IMU orientation and magnetometer reading.
// Emitted only when a magnetometer is attached and fresh.
type QuatMag struct {
	TrackerID      byte
	QX, QY, QZ, QW float64 // unit quaternion, [-1,1]
	MX, MY, MZ     float64 // magnetic field, +/-32 G range
}

// EncodeQuatMag packs a QuatMag reading into its fixed 16-byte wire
// layout: qx,qy,qz,qw at scale 32767, then mx,my,mz at scale 1023.
func EncodeQuatMag(q QuatMag) []byte {
	out := make([]byte, TelemetryFrameSize)
	out[0] = TelemetryQuatMag
	out[1] = q.TrackerID
	binary.LittleEndian.PutUint16(out[2:4], uint16(QuatFixed(q.QX)))
	binary.LittleEndian.PutUint16(out[4:6], uint16(QuatFixed(q.QY)))
	binary.LittleEndian.PutUint16(out[6:8], uint16(QuatFixed(q.QZ)))
	binary.LittleEndian.PutUint16(out[8:10], uint16(QuatFixed(q.QW)))
	binary.LittleEndian.PutUint16(out[10:12], uint16(MagFixed(q.MX)))
	binary.LittleEndian.PutUint16(out[12:14], uint16(MagFixed(q.MY)))
	binary.LittleEndian.PutUint16(out[14:16], uint16(MagFixed(q.MZ)))
	return out
}

// DecodeQuatMag unpacks a telemetry frame produced by EncodeQuatMag. body
// excludes the leading frame-type byte.
func DecodeQuatMag(body []byte) (QuatMag, error) {
	if len(body) < TelemetryFrameSize-1 {
		return QuatMag{}, ErrInvalidPayload
	}
	return QuatMag{
		TrackerID: body[0],
		QX:        float64(int16(binary.LittleEndian.Uint16(body[1:3]))) / 32767,
		QY:        float64(int16(binary.LittleEndian.Uint16(body[3:5]))) / 32767,
		QZ:        float64(int16(binary.LittleEndian.Uint16(body[5:7]))) / 32767,
		QW:        float64(int16(binary.LittleEndian.Uint16(body[7:9]))) / 32767,
		MX:        float64(int16(binary.LittleEndian.Uint16(body[9:11]))) / 1023,
		MY:        float64(int16(binary.LittleEndian.Uint16(body[11:13]))) / 1023,
		MZ:        float64(int16(binary.LittleEndian.Uint16(body[13:15]))) / 1023,
	}, nil
}
