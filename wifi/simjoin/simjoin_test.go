package simjoin

import "testing"

func TestJoiner_JoinsByDefault(t *testing.T) {
	j := New()
	if j.Joined() {
		t.Fatal("Joined() = true before any Join call")
	}
	if err := j.Join("ssid", "pass"); err != nil {
		t.Fatalf("Join() error = %v, want nil", err)
	}
	if !j.Joined() {
		t.Error("Joined() = false after a successful Join")
	}
	if j.Requests() != 1 {
		t.Errorf("Requests() = %d, want 1", j.Requests())
	}
}

func TestJoiner_SetFailPreventsJoining(t *testing.T) {
	j := New()
	j.SetFail(true)
	if err := j.Join("ssid", "pass"); err == nil {
		t.Fatal("Join() error = nil, want an error once SetFail(true)")
	}
	if j.Joined() {
		t.Error("Joined() = true after a failed Join")
	}
	if j.Requests() != 1 {
		t.Errorf("Requests() = %d, want 1 (a failed attempt still counts)", j.Requests())
	}
}

func TestJoiner_ResetClearsState(t *testing.T) {
	j := New()
	j.Join("ssid", "pass")
	j.Reset()

	if j.Joined() {
		t.Error("Joined() = true after Reset")
	}
	if j.Requests() != 0 {
		t.Errorf("Requests() = %d, want 0 after Reset", j.Requests())
	}
}

func TestJoiner_SetFailThenClearedAllowsJoining(t *testing.T) {
	j := New()
	j.SetFail(true)
	j.Join("ssid", "pass")
	j.SetFail(false)
	if err := j.Join("ssid", "pass"); err != nil {
		t.Fatalf("Join() error = %v after clearing SetFail", err)
	}
	if !j.Joined() {
		t.Error("Joined() = false after a successful Join following a failed one")
	}
	if j.Requests() != 2 {
		t.Errorf("Requests() = %d, want 2", j.Requests())
	}
}
