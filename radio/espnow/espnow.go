//go:build esp32

// Package espnow is the hardware-backed link.RadioDriver for an
// ESP32-class target, talking to the vendor ESP-NOW C API via cgo.
// Grounded on original_source/network/espnowhandler.cpp's use of
// esp_now_init/esp_now_register_recv_cb/esp_now_add_peer/esp_now_send/
// esp_now_del_peer and WiFi.setChannel/WiFi.macAddress, and on the
// teacher's driver/nrf package for the "register-poking driver behind
// the consumer's interface, selected by build tag" shape.
package espnow

/*
#include <esp_now.h>
#include <esp_wifi.h>
#include <string.h>

static esp_now_recv_cb_t go_espnow_recv_cb;

void espnowGoRecvTrampoline(const esp_now_recv_info_t *info, const uint8_t *data, int len);

static void espnowInstallRecvCallback(void) {
    esp_now_register_recv_cb(espnowGoRecvTrampoline);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"trackerlink/link"
)

// Driver is the link core's RadioDriver on real ESP32 hardware. There is
// exactly one instance per process: esp_now_register_recv_cb takes a bare
// C function pointer, so the single-writer slot below (§9: "no process-
// wide lookup table") is how that one C callback gets routed back to a
// single Go-side *Driver.
type Driver struct {
	mu       sync.Mutex
	callback link.ReceiveFunc
}

var (
	activeMu     sync.Mutex
	activeDriver *Driver
)

// New returns an unstarted Driver. Call Init before registering it as the
// link core's RadioDriver; Init is where the vendor stack actually comes
// up.
func New() *Driver {
	return &Driver{}
}

// Init brings the vendor stack up in station mode and installs the
// single recv trampoline. A non-nil error here is the init-failure path
// into link.StateFailed (§7) - Core.setup calls Init and faults the
// state machine on error instead of this package panicking.
func (d *Driver) Init() error {
	if C.esp_wifi_set_mode(C.WIFI_MODE_STA) != C.ESP_OK {
		return errInitFailed
	}
	if C.esp_now_init() != C.ESP_OK {
		return errInitFailed
	}

	activeMu.Lock()
	activeDriver = d
	activeMu.Unlock()

	C.espnowInstallRecvCallback()
	return nil
}

//export espnowGoRecvTrampoline
func espnowGoRecvTrampoline(info *C.esp_now_recv_info_t, data *C.uint8_t, length C.int) {
	activeMu.Lock()
	d := activeDriver
	activeMu.Unlock()
	if d == nil {
		return
	}

	var src link.MAC
	C.memcpy(unsafe.Pointer(&src[0]), unsafe.Pointer(info.src_addr), 6)

	buf := unsafe.Slice((*byte)(unsafe.Pointer(data)), int(length))

	d.mu.Lock()
	cb := d.callback
	d.mu.Unlock()
	if cb != nil {
		cb(src, buf)
	}
}

func toCMac(mac link.MAC) [6]C.uint8_t {
	var out [6]C.uint8_t
	for i, b := range mac {
		out[i] = C.uint8_t(b)
	}
	return out
}

func (d *Driver) Send(mac link.MAC, data []byte) link.SendResult {
	cmac := toCMac(mac)
	result := C.esp_now_send((*C.uint8_t)(unsafe.Pointer(&cmac[0])), (*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(len(data)))
	switch result {
	case C.ESP_OK:
		return link.SendOK
	case C.ESP_ERR_ESPNOW_NO_MEM:
		return link.SendBufferFull
	default:
		return link.SendOther
	}
}

func (d *Driver) AddPeer(mac link.MAC, useDefaultRate bool) {
	cmac := toCMac(mac)
	if C.esp_now_is_peer_exist((*C.uint8_t)(unsafe.Pointer(&cmac[0]))) != 0 {
		return
	}
	var info C.esp_now_peer_info_t
	C.memcpy(unsafe.Pointer(&info.peer_addr[0]), unsafe.Pointer(&cmac[0]), 6)
	C.esp_now_add_peer(&info)
	_ = useDefaultRate // per-peer PHY rate override is set via esp_now_set_peer_rate_config on real hardware; not modeled here
}

func (d *Driver) DeletePeer(mac link.MAC) {
	cmac := toCMac(mac)
	C.esp_now_del_peer((*C.uint8_t)(unsafe.Pointer(&cmac[0])))
}

func (d *Driver) SetChannel(ch byte) error {
	if C.esp_wifi_set_channel(C.uint8_t(ch), C.WIFI_SECOND_CHAN_NONE) != C.ESP_OK {
		return errInvalidChannel
	}
	return nil
}

func (d *Driver) LocalMAC() link.MAC {
	var raw [6]C.uint8_t
	C.esp_wifi_get_mac(C.WIFI_IF_STA, (*C.uint8_t)(unsafe.Pointer(&raw[0])))
	var out link.MAC
	for i := range out {
		out[i] = byte(raw[i])
	}
	return out
}

func (d *Driver) SetReceiveCallback(fn link.ReceiveFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = fn
}

var errInvalidChannel = &channelError{}

type channelError struct{}

func (*channelError) Error() string { return "espnow: invalid channel" }

var errInitFailed = &initError{}

type initError struct{}

func (*initError) Error() string { return "espnow: vendor stack init failed" }
