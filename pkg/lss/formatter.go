// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"fmt"
	"strings"
)

// FormatFrame formats a decoded frame into a human-readable line for the
// bus monitor.
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp.Format("15:04:05.000")

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s id=%-3d %-5s %s", timestamp, f.Kind, f.ID, f.Command, CommandName(f.Command))

	spec, _ := Spec(f.Command)
	switch {
	case f.HasValue:
		fmt.Fprintf(&b, " value=%d", f.Value)
		if spec.Unit != UnitRaw {
			fmt.Fprintf(&b, " (%g%s)", FromWire(f.Command, f.Value), UnitSuffix(spec.Unit))
		}
	case f.Text != "":
		fmt.Fprintf(&b, " value=%q", f.Text)
	}

	for _, m := range f.Modifiers {
		switch m.Token {
		case ModTimedMove:
			fmt.Fprintf(&b, " time=%dms", m.Value)
		case ModSpeedLimit:
			fmt.Fprintf(&b, " speed=%d", m.Value)
		}
	}

	b.WriteByte('\n')
	return b.String()
}

// CommandName returns the human-readable name for a command token.
func CommandName(cmd Command) string {
	switch cmd {
	case CmdReset:
		return "RESET"
	case CmdLimp:
		return "LIMP"
	case CmdHold:
		return "HOLD"
	case CmdMove:
		return "MOVE_ABSOLUTE"
	case CmdMoveRelative:
		return "MOVE_RELATIVE"
	case CmdWheel:
		return "WHEEL"
	case CmdWheelRPM:
		return "WHEEL_RPM"
	case CmdOriginOffset, CmdConfigOriginOffset:
		return "ORIGIN_OFFSET"
	case CmdAngularRange, CmdConfigAngularRange:
		return "ANGULAR_RANGE"
	case CmdMaxSpeed, CmdConfigMaxSpeed:
		return "MAX_SPEED"
	case CmdMaxSpeedRPM, CmdConfigMaxSpeedRPM:
		return "MAX_SPEED_RPM"
	case CmdLEDColor, CmdConfigLEDColor:
		return "LED_COLOR"
	case CmdGyre, CmdConfigGyre:
		return "GYRE"
	case CmdStiffness, CmdConfigStiffness:
		return "STIFFNESS"
	case CmdHoldingStiffness, CmdConfigHoldingStiffness:
		return "HOLDING_STIFFNESS"
	case CmdAcceleration, CmdConfigAcceleration:
		return "ACCELERATION"
	case CmdDeceleration, CmdConfigDeceleration:
		return "DECELERATION"
	case CmdMotionControl:
		return "MOTION_CONTROL"
	case CmdQueryStatus:
		return "QUERY_STATUS"
	case CmdQueryOriginOffset:
		return "QUERY_ORIGIN_OFFSET"
	case CmdQueryAngularRange:
		return "QUERY_ANGULAR_RANGE"
	case CmdQueryPositionPulse:
		return "QUERY_POSITION_PULSE"
	case CmdQueryPosition:
		return "QUERY_POSITION"
	case CmdQuerySpeed:
		return "QUERY_SPEED"
	case CmdQuerySpeedRPM:
		return "QUERY_SPEED_RPM"
	case CmdQuerySpeedPulse:
		return "QUERY_SPEED_PULSE"
	case CmdQueryMaxSpeed:
		return "QUERY_MAX_SPEED"
	case CmdQueryMaxSpeedRPM:
		return "QUERY_MAX_SPEED_RPM"
	case CmdQueryLEDColor:
		return "QUERY_LED_COLOR"
	case CmdQueryGyre:
		return "QUERY_GYRE"
	case CmdQueryID:
		return "QUERY_ID"
	case CmdQueryBaud:
		return "QUERY_BAUD"
	case CmdQueryFirstPosition:
		return "QUERY_FIRST_POSITION"
	case CmdQueryModel:
		return "QUERY_MODEL"
	case CmdQuerySerialNumber:
		return "QUERY_SERIAL_NUMBER"
	case CmdQueryFirmware:
		return "QUERY_FIRMWARE"
	case CmdQueryVoltage:
		return "QUERY_VOLTAGE"
	case CmdQueryTemperature:
		return "QUERY_TEMPERATURE"
	case CmdQueryCurrent:
		return "QUERY_CURRENT"
	case CmdQueryStiffness:
		return "QUERY_STIFFNESS"
	case CmdQueryHoldingStiffness:
		return "QUERY_HOLDING_STIFFNESS"
	case CmdQueryAcceleration:
		return "QUERY_ACCELERATION"
	case CmdQueryDeceleration:
		return "QUERY_DECELERATION"
	case CmdQueryMotionControl:
		return "QUERY_MOTION_CONTROL"
	case CmdQueryBlinkingLED:
		return "QUERY_BLINKING_LED"
	case CmdConfigID:
		return "CONFIG_ID"
	case CmdConfigBaud:
		return "CONFIG_BAUD"
	case CmdConfigFirstPosition:
		return "CONFIG_FIRST_POSITION"
	case CmdConfigMode:
		return "CONFIG_MODE"
	case CmdConfigBlinkingLED:
		return "CONFIG_BLINKING_LED"
	default:
		return "UNKNOWN"
	}
}
