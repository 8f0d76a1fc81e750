package link

// LinkState is the tracker's current phase in the discovery/pair/connect
// lifecycle. Exactly one is active at a time.
type LinkState int

const (
	StateNotSetup LinkState = iota
	StateSearching
	StatePairing
	StateConnecting
	StateConnected
	StateOtaUpdate
	StateFailed
)

func (s LinkState) String() string {
	switch s {
	case StateNotSetup:
		return "NotSetup"
	case StateSearching:
		return "Searching"
	case StatePairing:
		return "Pairing"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateOtaUpdate:
		return "OtaUpdate"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// GatewayBinding is the persisted association with one gateway. When
// Present is false, MAC and Security are meaningless and MAC must read
// as all zero (§8 invariant).
type GatewayBinding struct {
	MAC       MAC
	Security  Security
	TrackerID byte
	Present   bool
}

// OtaJoinCredentials is populated once, inside a validated EnterOta
// frame, and is never persisted.
type OtaJoinCredentials struct {
	Auth [16]byte
	IP   [4]byte
	Port uint32
	SSID string
	Pass string
}
