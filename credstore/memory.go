// Package credstore provides link.CredentialStore adaptors: an in-memory
// store for tests and the loopback demo, and a flash-shaped store that
// persists the binding as a small embedded-JSON document.
package credstore

import (
	"sync"

	"trackerlink/link"
)

// Memory is an in-process CredentialStore with no backing persistence.
// It is the default for tests and for the host-side demo.
type Memory struct {
	mu     sync.Mutex
	mac    link.MAC
	sec    link.Security
	hasMAC bool
	hasSec bool
}

// NewMemory returns an empty store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) GetMAC() (link.MAC, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mac, m.hasMAC
}

func (m *Memory) GetSecurity() (link.Security, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sec, m.hasSec
}

func (m *Memory) Set(mac link.MAC, sec link.Security) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mac, m.sec = mac, sec
	m.hasMAC, m.hasSec = true, true
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mac, m.sec = link.MAC{}, link.Security{}
	m.hasMAC, m.hasSec = false, false
}
