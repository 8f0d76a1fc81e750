package credstore

import (
	"encoding/hex"
	"sync"

	"github.com/andreyvit/tinyjson"

	"trackerlink/link"
)

// FlashFile is the small set of file operations Flash needs against the
// board's flash filesystem: read the whole document, or write it back
// atomically. The on-disk layout and the filesystem implementation
// behind this interface are explicitly out of scope (spec §1); Flash
// only needs Get/Set/Clear to round-trip through it.
type FlashFile interface {
	ReadAll() ([]byte, error)
	WriteAll(data []byte) error
}

// Flash is a CredentialStore backed by a single small JSON document on
// the board's flash filesystem, read with tinyjson.Raw the way
// services/config parses its embedded device config: no encoding/json
// reflection on an MCU-class target. Writing is a hand-built document
// (tinyjson's API this repository pulls in is decode-only) of exactly
// two hex-encoded fields, small enough that a string builder is simpler
// and cheaper than pulling in a JSON encoder for it.
type Flash struct {
	mu   sync.Mutex
	file FlashFile
}

// NewFlash wraps file as a CredentialStore.
func NewFlash(file FlashFile) *Flash {
	return &Flash{file: file}
}

type binding struct {
	MAC      string `json:"mac"`
	Security string `json:"security"`
}

func (f *Flash) read() (binding, bool) {
	raw, err := f.file.ReadAll()
	if err != nil || len(raw) == 0 {
		return binding{}, false
	}
	rawJSON := tinyjson.Raw(raw)
	val := rawJSON.Value()
	obj, ok := val.(map[string]any)
	if !ok {
		return binding{}, false
	}
	mac, _ := obj["mac"].(string)
	sec, _ := obj["security"].(string)
	if mac == "" || sec == "" {
		return binding{}, false
	}
	return binding{MAC: mac, Security: sec}, true
}

func (f *Flash) GetMAC() (link.MAC, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.read()
	if !ok {
		return link.MAC{}, false
	}
	raw, err := hex.DecodeString(b.MAC)
	if err != nil || len(raw) != len(link.MAC{}) {
		return link.MAC{}, false
	}
	var mac link.MAC
	copy(mac[:], raw)
	return mac, true
}

func (f *Flash) GetSecurity() (link.Security, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.read()
	if !ok {
		return link.Security{}, false
	}
	raw, err := hex.DecodeString(b.Security)
	if err != nil || len(raw) != len(link.Security{}) {
		return link.Security{}, false
	}
	var sec link.Security
	copy(sec[:], raw)
	return sec, true
}

func (f *Flash) Set(mac link.MAC, sec link.Security) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := "{\"mac\":\"" + hex.EncodeToString(mac[:]) + "\",\"security\":\"" + hex.EncodeToString(sec[:]) + "\"}"
	_ = f.file.WriteAll([]byte(doc))
}

func (f *Flash) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = f.file.WriteAll([]byte("{}"))
}
