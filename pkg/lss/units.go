// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import "math"

// scaleOf returns the wire-units-per-physical-unit factor for u.
// Millivolts, deci-Celsius, milliamps, RPM and raw values pass through
// unscaled; angular units travel as tenths.
func scaleOf(u Unit) int64 {
	switch u {
	case UnitDeciDegree, UnitDeciDegreePerSec:
		return 10
	default:
		return 1
	}
}

// ToWire converts a physical value to the wire integer for cmd, truncating
// toward zero per the protocol's angle encoding (45.07 degrees -> 450).
// Conversion is total: it never fails, and it does not clamp — range policy
// belongs to the Servo handle.
func ToWire(cmd Command, physical float64) int64 {
	spec := MustSpec(cmd)
	v := physical * float64(scaleOf(spec.Unit))
	// Nudge off the binary representation error so values that are exact
	// in decimal (0.3 * 10) land on their integer instead of one below.
	v += math.Copysign(1e-9, v)
	return int64(math.Trunc(v))
}

// FromWire converts a raw wire integer for cmd to its physical value.
func FromWire(cmd Command, raw int64) float64 {
	spec := MustSpec(cmd)
	return float64(raw) / float64(scaleOf(spec.Unit))
}

// UnitSuffix returns a display suffix for cmd's unit, used by the frame
// formatter.
func UnitSuffix(u Unit) string {
	switch u {
	case UnitDeciDegree:
		return "°"
	case UnitDeciDegreePerSec:
		return "°/s"
	case UnitMillivolt:
		return "mV"
	case UnitDeciCelsius:
		return "d°C"
	case UnitMilliamp:
		return "mA"
	case UnitRPM:
		return "rpm"
	default:
		return ""
	}
}
