package protocol

import "golang.org/x/exp/constraints"

// Clamp restricts v to the closed range [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundHalfAway(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}

// quantise scales v by scale, rounds to the nearest integer, and saturates
// to the range of an int16. This is the firmware's TO_FIXED_n idiom
// generalised to an arbitrary scale factor instead of a power of two.
func quantise(v, scale float64) int16 {
	r := roundHalfAway(v * scale)
	return int16(Clamp(r, int64(-32768), int64(32767)))
}

// QuatFixed packs a unit quaternion component ([-1,1]) at scale 32767,
// saturating on out-of-range input.
func QuatFixed(v float64) int16 { return quantise(v, 32767) }

// AccelFixed packs an acceleration component (m/s^2, +/-256 range) at
// scale 127, saturating on out-of-range input.
func AccelFixed(v float64) int16 { return quantise(v, 127) }

// MagFixed packs a magnetometer component (+/-32 G range) at scale 1023,
// saturating on out-of-range input.
func MagFixed(v float64) int16 { return quantise(v, 1023) }

// EncodeBatteryLevel maps a battery fraction in [0,1] to the wire byte:
// 0 means no battery; otherwise the high bit is set and the low 7 bits
// carry the percentage, clamped to [0,100].
func EncodeBatteryLevel(hasBattery bool, fraction float64) byte {
	if !hasBattery {
		return 0
	}
	pct := int(roundHalfAway(fraction * 100))
	return 0x80 | byte(Clamp(pct, 0, 100))
}

// DecodeBatteryLevel reverses EncodeBatteryLevel.
func DecodeBatteryLevel(b byte) (hasBattery bool, percent int) {
	if b == 0 {
		return false, 0
	}
	return true, int(b &^ 0x80)
}

// EncodeBatteryVoltage packs a voltage reading in volts:
// clip(round(V*1000)/10 - 245, 0, 255).
func EncodeBatteryVoltage(volts float64) byte {
	millivolts := roundHalfAway(volts * 1000)
	units := millivolts/10 - 245
	return byte(Clamp(units, 0, 255))
}

// DecodeBatteryVoltage reverses EncodeBatteryVoltage (lossy: 0.01V steps).
func DecodeBatteryVoltage(b byte) float64 {
	return (float64(b) + 245) / 100
}

// EncodeTemperature packs a Celsius reading: clip(round((T-25)*2+128.5),
// 1, 255); byte value 0 is reserved to mean "no data" and is never
// produced by this function - callers with no reading should write 0
// directly rather than calling it.
func EncodeTemperature(celsius float64) byte {
	r := roundHalfAway((celsius-25)*2 + 128.5)
	return byte(Clamp(r, 1, 255))
}

// DecodeTemperature reverses EncodeTemperature. The caller is responsible
// for treating 0 as "no data" before calling this.
func DecodeTemperature(b byte) float64 {
	return (float64(b)-128.5)/2 + 25
}

// EncodeFirmwareDate packs a build date into the wire's 16-bit layout:
// ((year-2020)&0x7F)<<9 | (month&0xF)<<5 | (day&0x1F).
func EncodeFirmwareDate(year, month, day int) uint16 {
	y := uint16(year-2020) & 0x7F
	m := uint16(month) & 0x0F
	d := uint16(day) & 0x1F
	return y<<9 | m<<5 | d
}

// DecodeFirmwareDate reverses EncodeFirmwareDate. The returned year is
// only meaningful for the 2020-2147 range the 7-bit field can represent.
func DecodeFirmwareDate(v uint16) (year, month, day int) {
	year = int(v>>9&0x7F) + 2020
	month = int(v >> 5 & 0x0F)
	day = int(v & 0x1F)
	return
}
