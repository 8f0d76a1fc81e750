package protocol

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"
)

// RandomSequence returns a random 16-bit heartbeat sequence number.
// Falls back to math/rand if crypto/rand is unavailable (rare on host,
// and on some embedded targets with no hardware RNG wired up).
func RandomSequence() uint16 {
	var b [2]byte
	if _, err := crand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint16(b[:])
	}
	src := mrand.NewSource(time.Now().UnixNano())
	return uint16(mrand.New(src).Uint32())
}
