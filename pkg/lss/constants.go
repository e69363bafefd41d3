// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

// Package lss provides a host-side driver for the Lynxmotion Smart Servo
// (LSS) ASCII serial protocol.
//
// The package covers frame encoding/decoding, command registry, unit
// conversion, and the synchronous request/reply exchange engine. Opening
// and configuring the serial port itself is left to the caller; any
// transport satisfying the Transport interface works.
package lss

import "time"

// Protocol framing bytes. Requests travel as `#<id><cmd>[<value>]\r`,
// replies as `*<id><cmd><value>\r`.
const (
	RequestStart byte = '#'
	ReplyStart   byte = '*'
	Terminator   byte = '\r'
)

// Bus parameters.
const (
	DefaultBaudRate = 115200
	DefaultTimeout  = 100 * time.Millisecond

	// Upper bound on one frame: start byte, three-digit address, a token
	// of up to five bytes, a signed eighteen-digit value, terminator.
	MaxFrameSize = 31
)

// Servo ID range. 254 addresses every servo on the bus (no reply expected);
// 255 is the protocol's wildcard/recovery ID.
const (
	MinID       = 0
	MaxID       = 250
	BroadcastID = 254
	WildcardID  = 255
)

// FirstPositionDisabled is the textual value a servo returns for a
// first-position query when no first position is configured.
const FirstPositionDisabled = "DIS"

// Status reports the motion state of a servo (reply to CmdQueryStatus).
type Status int

// Servo status codes.
const (
	StatusUnknown Status = iota
	StatusLimp
	StatusFreeMoving
	StatusAccelerating
	StatusTraveling
	StatusDecelerating
	StatusHolding
	StatusOutsideLimits
	StatusStuck
	StatusBlocked
	StatusSafeMode
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusLimp:
		return "LIMP"
	case StatusFreeMoving:
		return "FREE_MOVING"
	case StatusAccelerating:
		return "ACCELERATING"
	case StatusTraveling:
		return "TRAVELING"
	case StatusDecelerating:
		return "DECELERATING"
	case StatusHolding:
		return "HOLDING"
	case StatusOutsideLimits:
		return "OUTSIDE_LIMITS"
	case StatusStuck:
		return "STUCK"
	case StatusBlocked:
		return "BLOCKED"
	case StatusSafeMode:
		return "SAFE_MODE"
	default:
		return "INVALID"
	}
}

// Scope selects whether a query or setter targets the current session or
// the servo's persistent configuration.
type Scope int

// Query/setter scopes.
const (
	ScopeSession Scope = 0
	ScopeConfig  Scope = 1
)

// Extended scopes for the max-speed query: instead of a stored limit the
// servo reports the live shaft speed or the planned travel speed.
const (
	ScopeInstantaneousSpeed Scope = 2
	ScopeTargetTravelSpeed  Scope = 3
)

// LEDColor selects the servo's RGB LED color.
type LEDColor int

// LED color codes.
const (
	LEDBlack LEDColor = iota
	LEDRed
	LEDGreen
	LEDBlue
	LEDYellow
	LEDCyan
	LEDMagenta
	LEDWhite
)

func (c LEDColor) String() string {
	names := [...]string{"BLACK", "RED", "GREEN", "BLUE", "YELLOW", "CYAN", "MAGENTA", "WHITE"}
	if c < 0 || int(c) >= len(names) {
		return "INVALID"
	}
	return names[c]
}

// GyreDirection is the servo's rotation convention.
type GyreDirection int

const (
	GyreClockwise        GyreDirection = 1
	GyreCounterClockwise GyreDirection = -1
)

func (g GyreDirection) String() string {
	switch g {
	case GyreClockwise:
		return "CW"
	case GyreCounterClockwise:
		return "CCW"
	default:
		return "INVALID"
	}
}

// OperatingMode selects serial control or one of the RC PWM modes
// (CmdConfigMode).
type OperatingMode int

const (
	ModeSerial     OperatingMode = 0
	ModePositionRC OperatingMode = 1
	ModeWheelRC    OperatingMode = 2
)

// Known servo model identifier strings (reply to CmdQueryModel).
const (
	ModelHighTorque = "LSS-HT1"
	ModelStandard   = "LSS-ST1"
	ModelHighSpeed  = "LSS-HS1"
)

// ModelName returns the product name for a model identifier string, or the
// identifier unchanged when it is not a known model.
func ModelName(model string) string {
	switch model {
	case ModelHighTorque:
		return "High Torque"
	case ModelStandard:
		return "Standard"
	case ModelHighSpeed:
		return "High Speed"
	default:
		return model
	}
}

// Command is a wire command token. The full set of supported commands is
// the closed table in registry.go; tokens match the published LSS protocol
// one-for-one.
type Command string

// Action commands. Actions take effect for the current session and produce
// no reply.
const (
	CmdReset            Command = "RESET"
	CmdLimp             Command = "L"
	CmdHold             Command = "H"
	CmdMove             Command = "D"
	CmdMoveRelative     Command = "MD"
	CmdWheel            Command = "WD"
	CmdWheelRPM         Command = "WR"
	CmdOriginOffset     Command = "O"
	CmdAngularRange     Command = "AR"
	CmdMaxSpeed         Command = "SD"
	CmdMaxSpeedRPM      Command = "SR"
	CmdLEDColor         Command = "LED"
	CmdGyre             Command = "G"
	CmdStiffness        Command = "AS"
	CmdHoldingStiffness Command = "AH"
	CmdAcceleration     Command = "AA"
	CmdDeceleration     Command = "AD"
	CmdMotionControl    Command = "EM"
)

// Query commands. Each query produces exactly one reply frame.
const (
	CmdQueryStatus           Command = "Q"
	CmdQueryOriginOffset     Command = "QO"
	CmdQueryAngularRange     Command = "QAR"
	CmdQueryPositionPulse    Command = "QP"
	CmdQueryPosition         Command = "QD"
	CmdQuerySpeed            Command = "QWD"
	CmdQuerySpeedRPM         Command = "QWR"
	CmdQuerySpeedPulse       Command = "QS"
	CmdQueryMaxSpeed         Command = "QSD"
	CmdQueryMaxSpeedRPM      Command = "QSR"
	CmdQueryLEDColor         Command = "QLED"
	CmdQueryGyre             Command = "QG"
	CmdQueryID               Command = "QID"
	CmdQueryBaud             Command = "QB"
	CmdQueryFirstPosition    Command = "QFD"
	CmdQueryModel            Command = "QMS"
	CmdQuerySerialNumber     Command = "QN"
	CmdQueryFirmware         Command = "QF"
	CmdQueryVoltage          Command = "QV"
	CmdQueryTemperature      Command = "QT"
	CmdQueryCurrent          Command = "QC"
	CmdQueryStiffness        Command = "QAS"
	CmdQueryHoldingStiffness Command = "QAH"
	CmdQueryAcceleration     Command = "QAA"
	CmdQueryDeceleration     Command = "QAD"
	CmdQueryMotionControl    Command = "QEM"
	CmdQueryBlinkingLED      Command = "QLB"
)

// Configuration commands. Configs persist across power cycles and produce
// no reply.
const (
	CmdConfigID               Command = "CID"
	CmdConfigBaud             Command = "CB"
	CmdConfigOriginOffset     Command = "CO"
	CmdConfigAngularRange     Command = "CAR"
	CmdConfigMaxSpeed         Command = "CSD"
	CmdConfigMaxSpeedRPM      Command = "CSR"
	CmdConfigLEDColor         Command = "CLED"
	CmdConfigGyre             Command = "CG"
	CmdConfigFirstPosition    Command = "CFD"
	CmdConfigMode             Command = "CRC"
	CmdConfigStiffness        Command = "CAS"
	CmdConfigHoldingStiffness Command = "CAH"
	CmdConfigAcceleration     Command = "CAA"
	CmdConfigDeceleration     Command = "CAD"
	CmdConfigBlinkingLED      Command = "CLB"
)

// ModifierToken is a modifier suffix appended to a motion command,
// e.g. `#5D450T2500\r` for a timed move.
type ModifierToken string

// Motion command modifiers.
const (
	ModTimedMove  ModifierToken = "T" // travel time in milliseconds
	ModSpeedLimit ModifierToken = "S" // speed limit in microseconds/pulse units
)

// ValidID reports whether id is usable as a request address: a unicast
// servo ID, the broadcast ID, or the wildcard ID.
func ValidID(id int) bool {
	return (id >= MinID && id <= MaxID) || id == BroadcastID || id == WildcardID
}

// ValidUnicastID reports whether id uniquely addresses one servo.
func ValidUnicastID(id int) bool {
	return id >= MinID && id <= MaxID
}
