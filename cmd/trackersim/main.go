// Command trackersim is a host-side loopback demo: one link.Core
// ("tracker") and a minimal hand-scripted gateway stand-in, wired
// through a shared radio/simradio.Network instead of real ESP-NOW
// hardware. It runs discovery, pairing, handshake and a few seconds of
// Connected heartbeat/telemetry traffic, logging every state transition
// and every frame the gateway stand-in receives.
package main

import (
	"log"
	"time"

	"trackerlink/credstore"
	"trackerlink/link"
	"trackerlink/radio/simradio"
	"trackerlink/wifi/simjoin"
)

var (
	trackerMAC = link.MAC{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0x01}
	gatewayMAC = link.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0x01}
	security   = link.Security{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7}
)

const (
	demoOperatingChannel byte = 6
	demoTrackerID        byte = 1
	demoDuration              = 8 * time.Second
	demoTickInterval          = 20 * time.Millisecond
)

func main() {
	build, err := link.NewBuildInfo(1, 1, "1.0.0", "2026-01-01", false)
	if err != nil {
		log.Fatalf("trackersim: bad build info: %v", err)
	}

	network := simradio.NewNetwork()
	trackerDriver := simradio.NewDriver(network, trackerMAC)
	gateway := newGatewaySim(network, gatewayMAC, security, demoOperatingChannel, demoTrackerID)

	status := link.NewRecordingStatusSink()
	core := link.NewCore(link.Config{
		Radio:   trackerDriver,
		Creds:   credstore.NewMemory(),
		Sensors: newDemoSensors(),
		Battery: demoBattery{},
		Status:  status,
		Wifi:    simjoin.New(),
		Build:   build,
	})

	log.Printf("trackersim: starting loopback demo, gateway mac=%x security=%x", gatewayMAC, security)

	start := time.Now()
	lastState := core.State()
	ticker := time.NewTicker(demoTickInterval)
	defer ticker.Stop()

	for range ticker.C {
		gateway.follow(trackerDriver)
		gateway.tick(nowMs(start))
		core.Upkeep()

		if s := core.State(); s != lastState {
			log.Printf("trackersim: tracker %s -> %s", lastState, s)
			lastState = s
		}
		if time.Since(start) >= demoDuration {
			break
		}
	}

	log.Printf("trackersim: demo finished in state %s (binding present=%v, trackerID=%d)",
		core.State(), core.Binding().Present, core.Binding().TrackerID)
}
