package link

import (
	"fmt"
	"strconv"
	"strings"

	"trackerlink/protocol"
)

// SensorStatus is the health of one sensor slot as reported by a
// SensorProvider.
type SensorStatus int

const (
	SensorOK SensorStatus = iota
	SensorOffline
)

// SensorProvider is the read-only data contract the telemetry scheduler
// consumes. It enumerates a fixed set of slots; no driver code lives
// behind this interface in this repository, only the contract and a
// deterministic test double (see link_test.go).
type SensorProvider interface {
	SlotCount() int
	Status(slot int) SensorStatus
	TypeID(slot int) byte
	HasMagnetometer(slot int) bool

	// Quaternion, Acceleration and MagneticField return the last reading
	// and whether it is fresh (not yet consumed by a telemetry frame).
	Quaternion(slot int) (q [4]float64, fresh bool)
	Acceleration(slot int) (a [3]float64, fresh bool)
	MagneticField(slot int) (m [3]float64, fresh bool)

	// Temperature returns the last reading; ok is false if the slot has
	// never reported one.
	Temperature(slot int) (celsius float64, ok bool)

	// ClearFresh is called by the scheduler after a reading has been
	// consumed into a telemetry frame.
	ClearFresh(slot int, quat, accel, mag bool)
}

// BatteryProvider is the read-only battery data contract. Voltage() == 0
// means "no battery fitted".
type BatteryProvider interface {
	Voltage() float64
	Level() float64
}

// Status indicator names, matching the firmware's boolean status LEDs.
const (
	StatusWifiConnecting = "WIFI_CONNECTING"
	StatusPairingMode    = "PAIRING_MODE"
	StatusUpdating       = "UPDATING"
)

// StatusSink receives named boolean indicator changes. It never returns
// an error: observability here is best-effort, never load-bearing.
type StatusSink interface {
	Set(name string, on bool)
}

// NoopStatusSink discards every update; it is the default when a caller
// has no LED or display to drive.
type NoopStatusSink struct{}

func (NoopStatusSink) Set(string, bool) {}

// RecordingStatusSink records the last value set for each name, for test
// assertions.
type RecordingStatusSink struct {
	values map[string]bool
}

func NewRecordingStatusSink() *RecordingStatusSink {
	return &RecordingStatusSink{values: make(map[string]bool)}
}

func (s *RecordingStatusSink) Set(name string, on bool) { s.values[name] = on }
func (s *RecordingStatusSink) Get(name string) bool     { return s.values[name] }

// CredentialStore is the get/set/clear contract the core uses to persist
// a gateway binding across restarts. Its on-disk format, if any, is out
// of scope here; see credstore/ for two concrete adaptors.
type CredentialStore interface {
	GetMAC() (MAC, bool)
	GetSecurity() (Security, bool)
	Set(mac MAC, sec Security)
	Clear()
}

// Security is the 8-byte shared secret exchanged during pairing.
type Security [8]byte

// WifiJoiner abstracts the infrastructure-mode Wi-Fi join the OTA handoff
// performs. The core never imports a concrete networking/radio-mode-
// switch package; see wifi/simjoin and wifi/stajoin.
type WifiJoiner interface {
	Join(ssid, pass string) error
	Joined() bool
}

// BuildInfo carries the identifiers and build stamp the telemetry
// scheduler packs into Frame 0. All fields are resolved once at
// construction time; nothing here is read from a clock at runtime.
type BuildInfo struct {
	Board           byte
	MCU             byte
	FirmwareVersion [3]byte
	FirmwareDate    uint16
	Allow14Channels bool
}

// NewBuildInfo parses a dotted version triple ("1.4.2") and a
// YYYY-MM-DD build date string into a BuildInfo. It is meant to be
// called once, at program startup, with constants baked in at compile
// time (or injected via -ldflags), never with a runtime-varying date.
func NewBuildInfo(board, mcu byte, version, buildDate string, allow14 bool) (BuildInfo, error) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return BuildInfo{}, fmt.Errorf("firmware version %q: want MAJOR.MINOR.PATCH", version)
	}
	var fv [3]byte
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return BuildInfo{}, fmt.Errorf("firmware version %q: component %q out of range", version, p)
		}
		fv[i] = byte(n)
	}

	dateParts := strings.Split(buildDate, "-")
	if len(dateParts) != 3 {
		return BuildInfo{}, fmt.Errorf("build date %q: want YYYY-MM-DD", buildDate)
	}
	year, err := strconv.Atoi(dateParts[0])
	if err != nil {
		return BuildInfo{}, fmt.Errorf("build date %q: bad year", buildDate)
	}
	month, err := strconv.Atoi(dateParts[1])
	if err != nil {
		return BuildInfo{}, fmt.Errorf("build date %q: bad month", buildDate)
	}
	day, err := strconv.Atoi(dateParts[2])
	if err != nil {
		return BuildInfo{}, fmt.Errorf("build date %q: bad day", buildDate)
	}

	return BuildInfo{
		Board:           board,
		MCU:             mcu,
		FirmwareVersion: fv,
		FirmwareDate:    protocol.EncodeFirmwareDate(year, month, day),
		Allow14Channels: allow14,
	}, nil
}
