package link

import "trackerlink/protocol"

// telemetryCadenceMs are the minimum inter-frame intervals for the three
// cadence-driven frames (§4.7). Frame 1 has no fixed cadence here: its
// interval is derived from trackerRateHz at send time.
const (
	deviceInfoCadenceMs = 250
	statusCadenceMs     = 1000
	quatMagCadenceMs    = 200
)

// telemetrySchedule tracks per-frame-type last-emission times and the
// send-error backoff window, plus the currently elected primary sensor.
type telemetrySchedule struct {
	primary      int
	havePrimary  bool
	lastFrame0Ms int64
	lastFrame3Ms int64
	lastFrame1Us int64
	haveFrame1   bool
	lastFrame4Ms int64
	backoffUntil int64
}

// runTelemetry is invoked once per upkeep tick while Connected (§4.7). It
// re-elects the primary sensor, then emits whichever of Frame 0/1/3/4 are
// due, enqueuing each as a TrackerData frame addressed to the bound
// gateway.
func (c *Core) runTelemetry(nowMs int64) {
	if c.sensors == nil {
		return
	}
	if !c.electPrimary() {
		return
	}

	nowUs := c.clock.NowUs()

	if nowMs-c.sched.lastFrame0Ms >= deviceInfoCadenceMs {
		c.sched.lastFrame0Ms = nowMs
		c.emitDeviceInfo()
	}

	if nowMs-c.sched.lastFrame3Ms >= statusCadenceMs {
		c.sched.lastFrame3Ms = nowMs
		c.emitStatus()
	}

	backoffActive := nowMs < c.sched.backoffUntil

	if !backoffActive {
		c.maybeEmitQuatAccel(nowUs)
	}

	if nowMs-c.sched.lastFrame4Ms >= quatMagCadenceMs {
		c.maybeEmitQuatMag(nowMs)
	}
}

// electPrimary keeps the current primary sensor if it is still healthy,
// otherwise picks the lowest-index OK slot. Returns false if no slot
// reports OK, in which case the caller skips all telemetry this tick.
func (c *Core) electPrimary() bool {
	n := c.sensors.SlotCount()
	if c.sched.havePrimary && c.sched.primary < n && c.sensors.Status(c.sched.primary) == SensorOK {
		return true
	}
	for slot := 0; slot < n; slot++ {
		if c.sensors.Status(slot) == SensorOK {
			c.sched.primary = slot
			c.sched.havePrimary = true
			return true
		}
	}
	c.sched.havePrimary = false
	return false
}

func (c *Core) emitDeviceInfo() {
	var batteryEncoded, voltageEncoded byte
	if c.battery != nil {
		v := c.battery.Voltage()
		hasBattery := v != 0
		batteryEncoded = protocol.EncodeBatteryLevel(hasBattery, c.battery.Level())
		if hasBattery {
			voltageEncoded = protocol.EncodeBatteryVoltage(v)
		}
	}

	tempEncoded := byte(0)
	if celsius, ok := c.sensors.Temperature(c.sched.primary); ok {
		tempEncoded = protocol.EncodeTemperature(celsius)
	}

	magStatus := byte(protocol.MagNotSupported)
	if c.sensors.HasMagnetometer(c.sched.primary) {
		magStatus = protocol.MagEnabled
	}

	frame := protocol.EncodeDeviceInfo(protocol.DeviceInfo{
		TrackerID:      c.binding.TrackerID,
		BatteryEncoded: batteryEncoded,
		VoltageEncoded: voltageEncoded,
		TempEncoded:    tempEncoded,
		BoardID:        c.build.Board,
		MCUID:          c.build.MCU,
		IMUID:          c.sensors.TypeID(c.sched.primary),
		MagStatus:      magStatus,
		FirmwareDate:   c.build.FirmwareDate,
		FirmwareMajor:  c.build.FirmwareVersion[0],
		FirmwareMinor:  c.build.FirmwareVersion[1],
		FirmwarePatch:  c.build.FirmwareVersion[2],
	})
	c.enqueueTelemetry(frame)
}

func (c *Core) emitStatus() {
	frame := protocol.EncodeStatus(protocol.Status{
		TrackerID:       c.binding.TrackerID,
		ServerConnected: c.state == StateConnected,
		TrackerStatus:   byte(c.sensors.Status(c.sched.primary)),
	})
	c.enqueueTelemetry(frame)
}

func (c *Core) maybeEmitQuatAccel(nowUs int64) {
	quat, freshQ := c.sensors.Quaternion(c.sched.primary)
	accel, freshA := c.sensors.Acceleration(c.sched.primary)
	if !freshQ || !freshA {
		return
	}
	intervalUs := int64(1_000_000) / int64(c.trackerRateHz)
	if c.sched.haveFrame1 && nowUs-c.sched.lastFrame1Us < intervalUs {
		return
	}
	c.sched.lastFrame1Us = nowUs
	c.sched.haveFrame1 = true

	frame := protocol.EncodeQuatAccel(protocol.QuatAccel{
		TrackerID: c.binding.TrackerID,
		QX:        quat[0], QY: quat[1], QZ: quat[2], QW: quat[3],
		AX: accel[0], AY: accel[1], AZ: accel[2],
	})
	c.sensors.ClearFresh(c.sched.primary, true, true, false)
	c.enqueueTelemetry(frame)
}

func (c *Core) maybeEmitQuatMag(nowMs int64) {
	if !c.sensors.HasMagnetometer(c.sched.primary) {
		return
	}
	// The latest orientation is used regardless of its own freshness: §4.7
	// only conditions Frame 4 on fresh magnetometer data.
	quat, _ := c.sensors.Quaternion(c.sched.primary)
	mag, freshM := c.sensors.MagneticField(c.sched.primary)
	if !freshM {
		return
	}
	c.sched.lastFrame4Ms = nowMs

	frame := protocol.EncodeQuatMag(protocol.QuatMag{
		TrackerID: c.binding.TrackerID,
		QX:        quat[0], QY: quat[1], QZ: quat[2], QW: quat[3],
		MX: mag[0], MY: mag[1], MZ: mag[2],
	})
	c.sensors.ClearFresh(c.sched.primary, false, false, true)
	c.enqueueTelemetry(frame)
}

// enqueueTelemetry wraps a 16-byte telemetry sub-frame in a TrackerData
// frame and enqueues it to the bound gateway, marked IsTelemetry so the
// queue drain's send-error callback can trigger the backoff window
// (§4.7) if the eventual Send fails. A failed enqueue (queue already
// full) is treated the same way: the link is congested either way.
func (c *Core) enqueueTelemetry(sub []byte) {
	wire := protocol.Encode(protocol.TrackerData{Payload: sub})
	msg := PendingMessage{PeerMAC: c.binding.MAC, Payload: wire, IsTelemetry: true}
	if !c.queue.Enqueue(msg) {
		c.onTelemetrySendFailed()
	}
}

func (c *Core) onTelemetrySendFailed() {
	c.sched.backoffUntil = c.clock.NowMs() + telemetryBackoffMs
}
