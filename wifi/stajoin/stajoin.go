//go:build esp32

// Package stajoin is the hardware-backed link.WifiJoiner for an
// ESP32-class target, grounded on original_source/network/
// espnowhandler.cpp's use of WiFi.mode(WIFI_STA)/WiFi.begin(ssid,pass)/
// WiFi.status() to join infrastructure Wi-Fi once OTA has been entered.
package stajoin

/*
#include <esp_wifi.h>
#include <string.h>
#include <stdlib.h>
*/
import "C"

import "unsafe"

// Joiner talks to the real ESP32 Wi-Fi stack in station mode.
type Joiner struct{}

// New returns a Joiner bound to the hardware Wi-Fi stack.
func New() *Joiner { return &Joiner{} }

// Join configures station-mode credentials and starts connecting. It
// does not block for association; the core's tickOta polls Joined.
func (j *Joiner) Join(ssid, pass string) error {
	var cfg C.wifi_config_t
	sta := (*C.wifi_sta_config_t)(unsafe.Pointer(&cfg))
	copyCString((*C.char)(unsafe.Pointer(&sta.ssid[0])), len(sta.ssid), ssid)
	copyCString((*C.char)(unsafe.Pointer(&sta.password[0])), len(sta.password), pass)

	if C.esp_wifi_set_config(C.WIFI_IF_STA, &cfg) != C.ESP_OK {
		return errConfigFailed
	}
	if C.esp_wifi_connect() != C.ESP_OK {
		return errConnectFailed
	}
	return nil
}

// Joined reports whether the station interface is currently associated
// with an access point; it does not check whether an IP has been assigned.
func (j *Joiner) Joined() bool {
	var info C.wifi_ap_record_t
	return C.esp_wifi_sta_get_ap_info(&info) == C.ESP_OK
}

func copyCString(dst *C.char, capacity int, s string) {
	n := len(s)
	if n > capacity-1 {
		n = capacity - 1
	}
	cs := C.CString(s[:n])
	defer C.free(unsafe.Pointer(cs))
	C.memcpy(unsafe.Pointer(dst), unsafe.Pointer(cs), C.size_t(n))
}

type joinError struct{ msg string }

func (e *joinError) Error() string { return e.msg }

var (
	errConfigFailed  = &joinError{"stajoin: esp_wifi_set_config failed"}
	errConnectFailed = &joinError{"stajoin: esp_wifi_connect failed"}
)
