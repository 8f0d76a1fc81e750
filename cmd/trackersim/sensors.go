package main

import (
	"math"

	"trackerlink/link"
)

// demoSensors is a single-slot link.SensorProvider producing a slowly
// drifting orientation instead of a fixed reading, so frame1/frame4
// telemetry logged by the gateway stand-in visibly changes tick to tick.
type demoSensors struct {
	step   int
	hasQ   bool
	hasA   bool
	hasM   bool
}

func newDemoSensors() *demoSensors {
	return &demoSensors{hasQ: true, hasA: true, hasM: true}
}

func (d *demoSensors) SlotCount() int               { return 1 }
func (d *demoSensors) Status(int) link.SensorStatus { return link.SensorOK }
func (d *demoSensors) TypeID(int) byte              { return 7 } // arbitrary IMU type id
func (d *demoSensors) HasMagnetometer(int) bool     { return true }

func (d *demoSensors) Quaternion(int) ([4]float64, bool) {
	d.step++
	theta := float64(d.step%360) * math.Pi / 180
	return [4]float64{0, 0, math.Sin(theta / 2), math.Cos(theta / 2)}, d.hasQ
}

func (d *demoSensors) Acceleration(int) ([3]float64, bool) {
	return [3]float64{0, 0, 9.8}, d.hasA
}

func (d *demoSensors) MagneticField(int) ([3]float64, bool) {
	return [3]float64{20, 5, 45}, d.hasM
}

func (d *demoSensors) Temperature(int) (float64, bool) { return 28.5, true }

// ClearFresh immediately re-arms every flag it's asked to clear, so the
// demo keeps emitting telemetry indefinitely instead of going stale
// after the first frame of each kind.
func (d *demoSensors) ClearFresh(_ int, quat, accel, mag bool) {
	if quat {
		d.hasQ = true
	}
	if accel {
		d.hasA = true
	}
	if mag {
		d.hasM = true
	}
}

type demoBattery struct{}

func (demoBattery) Voltage() float64 { return 3.9 }
func (demoBattery) Level() float64   { return 0.82 }
