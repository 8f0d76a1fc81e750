// Package simjoin is a host-side link.WifiJoiner stub for tests and the
// loopback demo: it never touches a real radio, only a configurable
// failure mode, so OTA-timeout and happy-path scenarios (§4.5 OtaUpdate)
// can be exercised deterministically.
package simjoin

import "sync"

// Joiner simulates an infrastructure Wi-Fi join. By default it joins
// instantly; SetFail lets a test exercise the OTA abort path.
type Joiner struct {
	mu       sync.Mutex
	joined   bool
	fail     bool
	requests int
}

// New returns a Joiner that joins on the first Join call.
func New() *Joiner { return &Joiner{} }

// SetFail makes every future Join call fail without joining.
func (j *Joiner) SetFail(fail bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fail = fail
}

// Join attempts to associate with ssid/pass. In this simulator it
// succeeds immediately unless SetFail(true) was called.
func (j *Joiner) Join(ssid, pass string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.requests++
	if j.fail {
		return errJoinFailed
	}
	j.joined = true
	return nil
}

// Joined reports whether a Join has succeeded since construction or the
// last Reset. A later failed Join does not clear it.
func (j *Joiner) Joined() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.joined
}

// Requests returns how many times Join has been called, for test
// assertions about retry behaviour.
func (j *Joiner) Requests() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.requests
}

// Reset clears joined state, for reuse across test table cases.
func (j *Joiner) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.joined = false
	j.requests = 0
}

type joinError struct{ msg string }

func (e *joinError) Error() string { return e.msg }

var errJoinFailed = &joinError{"simjoin: join failed"}
