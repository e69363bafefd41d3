// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"context"
	"fmt"
)

// ClampPolicy controls what a motion method does with a target outside the
// handle's travel range.
type ClampPolicy int

const (
	// ClampToRange silently clamps the target to the nearest range bound
	// before encoding. This alters caller intent; it is the default
	// because a servo driven past its angular range stalls against its
	// limit with full torque.
	ClampToRange ClampPolicy = iota
	// RejectOutOfRange surfaces ErrOutOfRange before any bytes are sent.
	RejectOutOfRange
)

// TravelRange bounds motion targets, in degrees.
type TravelRange struct {
	Min float64
	Max float64
}

// DefaultTravelRange matches the stock ±180° angular range of the servo
// family.
var DefaultTravelRange = TravelRange{Min: -180, Max: 180}

// Servo binds one logical servo address to an exchange engine and exposes
// typed operations over it. Handles are cheap; build one per servo and
// share the Exchanger. Every operation issues exactly one exchange — no
// hidden retries, no caching of prior replies.
type Servo struct {
	ex     *Exchanger
	id     int
	policy ClampPolicy
	travel TravelRange
}

// NewServo creates a handle for the servo at id. The id must be a unicast
// or broadcast address.
func NewServo(ex *Exchanger, id int) (*Servo, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return &Servo{
		ex:     ex,
		id:     id,
		policy: ClampToRange,
		travel: DefaultTravelRange,
	}, nil
}

// ID returns the servo's bus address.
func (s *Servo) ID() int {
	return s.id
}

// SetClampPolicy switches between clamping out-of-range motion targets and
// rejecting them.
func (s *Servo) SetClampPolicy(p ClampPolicy) {
	s.policy = p
}

// SetTravelRange replaces the range used by the clamp policy.
func (s *Servo) SetTravelRange(r TravelRange) {
	s.travel = r
}

// applyRangePolicy resolves a motion target against the travel range.
func (s *Servo) applyRangePolicy(cmd Command, degrees float64) (float64, error) {
	if degrees >= s.travel.Min && degrees <= s.travel.Max {
		return degrees, nil
	}
	if s.policy == RejectOutOfRange {
		return 0, &ServoError{ID: s.id, Cmd: cmd, Err: fmt.Errorf("%w: %.1f° not in [%.1f°, %.1f°]", ErrOutOfRange, degrees, s.travel.Min, s.travel.Max)}
	}
	if degrees < s.travel.Min {
		return s.travel.Min, nil
	}
	return s.travel.Max, nil
}

// act issues a reply-less command carrying one value.
func (s *Servo) act(ctx context.Context, cmd Command, value int64, mods ...Modifier) error {
	_, err := s.ex.Exchange(ctx, &Request{ID: s.id, Command: cmd, Value: &value, Modifiers: mods})
	return err
}

// actBare issues a reply-less command with no value.
func (s *Servo) actBare(ctx context.Context, cmd Command) error {
	_, err := s.ex.Exchange(ctx, NewRequest(s.id, cmd))
	return err
}

// queryRaw issues a query and returns the reply's wire integer.
func (s *Servo) queryRaw(ctx context.Context, cmd Command) (int64, error) {
	reply, err := s.ex.Exchange(ctx, NewRequest(s.id, cmd))
	if err != nil {
		return 0, err
	}
	return reply.Value, nil
}

// queryScoped issues a scope-selected query and returns the wire integer.
func (s *Servo) queryScoped(ctx context.Context, cmd Command, scope Scope) (int64, error) {
	v := int64(scope)
	reply, err := s.ex.Exchange(ctx, &Request{ID: s.id, Command: cmd, Value: &v})
	if err != nil {
		return 0, err
	}
	return reply.Value, nil
}

// setScoped routes a setter to its session (action) or persistent (config)
// command per scope.
func (s *Servo) setScoped(ctx context.Context, session, config Command, scope Scope, value int64) error {
	cmd := session
	if scope == ScopeConfig {
		cmd = config
	}
	return s.act(ctx, cmd, value)
}

// Motion

// MoveTo commands an absolute move in degrees. The target is resolved
// against the travel range per the handle's clamp policy (see
// ClampPolicy). Optional modifiers bound the move's time or speed.
func (s *Servo) MoveTo(ctx context.Context, degrees float64, mods ...Modifier) error {
	degrees, err := s.applyRangePolicy(CmdMove, degrees)
	if err != nil {
		return err
	}
	return s.act(ctx, CmdMove, ToWire(CmdMove, degrees), mods...)
}

// MoveBy commands a move relative to the current position, in degrees.
// Relative targets are not range-checked: the servo's own angular range
// bounds the result.
func (s *Servo) MoveBy(ctx context.Context, degrees float64, mods ...Modifier) error {
	return s.act(ctx, CmdMoveRelative, ToWire(CmdMoveRelative, degrees), mods...)
}

// Wheel starts continuous rotation at the given speed in degrees/second.
func (s *Servo) Wheel(ctx context.Context, degreesPerSec float64) error {
	return s.act(ctx, CmdWheel, ToWire(CmdWheel, degreesPerSec))
}

// WheelRPM starts continuous rotation at the given speed in RPM.
func (s *Servo) WheelRPM(ctx context.Context, rpm int64) error {
	return s.act(ctx, CmdWheelRPM, rpm)
}

// Limp releases torque; the output shaft moves freely.
func (s *Servo) Limp(ctx context.Context) error {
	return s.actBare(ctx, CmdLimp)
}

// Hold applies torque at the current position.
func (s *Servo) Hold(ctx context.Context) error {
	return s.actBare(ctx, CmdHold)
}

// Reset soft-resets the servo. The servo drops off the bus while it
// reboots; allow for its startup time before the next exchange.
func (s *Servo) Reset(ctx context.Context) error {
	return s.actBare(ctx, CmdReset)
}

// Telemetry

// Position reads the current position in degrees.
func (s *Servo) Position(ctx context.Context) (float64, error) {
	raw, err := s.queryRaw(ctx, CmdQueryPosition)
	if err != nil {
		return 0, err
	}
	return FromWire(CmdQueryPosition, raw), nil
}

// PositionPulse reads the current position in RC pulse units.
func (s *Servo) PositionPulse(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryPositionPulse)
}

// Speed reads the instantaneous speed in degrees/second.
func (s *Servo) Speed(ctx context.Context) (float64, error) {
	raw, err := s.queryRaw(ctx, CmdQuerySpeed)
	if err != nil {
		return 0, err
	}
	return FromWire(CmdQuerySpeed, raw), nil
}

// SpeedRPM reads the instantaneous speed in RPM.
func (s *Servo) SpeedRPM(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQuerySpeedRPM)
}

// Voltage reads the supply voltage in millivolts.
func (s *Servo) Voltage(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryVoltage)
}

// Temperature reads the internal temperature in tenths of a degree
// Celsius.
func (s *Servo) Temperature(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryTemperature)
}

// Current reads the motor current in milliamps.
func (s *Servo) Current(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryCurrent)
}

// Status reads the servo's motion status.
func (s *Servo) Status(ctx context.Context) (Status, error) {
	raw, err := s.queryRaw(ctx, CmdQueryStatus)
	if err != nil {
		return StatusUnknown, err
	}
	return Status(raw), nil
}

// Identity

// Model reads the servo's model identifier string, e.g. "LSS-HT1".
func (s *Servo) Model(ctx context.Context) (string, error) {
	reply, err := s.ex.Exchange(ctx, NewRequest(s.id, CmdQueryModel))
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// SerialNumber reads the servo's serial number.
func (s *Servo) SerialNumber(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQuerySerialNumber)
}

// FirmwareVersion reads the firmware version number.
func (s *Servo) FirmwareVersion(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryFirmware)
}

// QueryID asks the servo to report its own bus address. Useful against a
// single-servo bus when the address is unknown.
func (s *Servo) QueryID(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryID)
}

// QueryBaud reads the servo's active baud rate.
func (s *Servo) QueryBaud(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryBaud)
}

// Session and persistent settings

// OriginOffset reads the origin offset in degrees for the given scope.
func (s *Servo) OriginOffset(ctx context.Context, scope Scope) (float64, error) {
	raw, err := s.queryScoped(ctx, CmdQueryOriginOffset, scope)
	if err != nil {
		return 0, err
	}
	return FromWire(CmdQueryOriginOffset, raw), nil
}

// SetOriginOffset sets the origin offset in degrees.
func (s *Servo) SetOriginOffset(ctx context.Context, degrees float64, scope Scope) error {
	return s.setScoped(ctx, CmdOriginOffset, CmdConfigOriginOffset, scope, ToWire(CmdOriginOffset, degrees))
}

// AngularRange reads the allowed angular range in degrees.
func (s *Servo) AngularRange(ctx context.Context, scope Scope) (float64, error) {
	raw, err := s.queryScoped(ctx, CmdQueryAngularRange, scope)
	if err != nil {
		return 0, err
	}
	return FromWire(CmdQueryAngularRange, raw), nil
}

// SetAngularRange sets the allowed angular range in degrees.
func (s *Servo) SetAngularRange(ctx context.Context, degrees float64, scope Scope) error {
	return s.setScoped(ctx, CmdAngularRange, CmdConfigAngularRange, scope, ToWire(CmdAngularRange, degrees))
}

// MaxSpeed reads the speed limit in degrees/second.
func (s *Servo) MaxSpeed(ctx context.Context, scope Scope) (float64, error) {
	raw, err := s.queryScoped(ctx, CmdQueryMaxSpeed, scope)
	if err != nil {
		return 0, err
	}
	return FromWire(CmdQueryMaxSpeed, raw), nil
}

// SetMaxSpeed sets the speed limit in degrees/second.
func (s *Servo) SetMaxSpeed(ctx context.Context, degreesPerSec float64, scope Scope) error {
	return s.setScoped(ctx, CmdMaxSpeed, CmdConfigMaxSpeed, scope, ToWire(CmdMaxSpeed, degreesPerSec))
}

// MaxSpeedRPM reads the speed limit in RPM.
func (s *Servo) MaxSpeedRPM(ctx context.Context, scope Scope) (int64, error) {
	return s.queryScoped(ctx, CmdQueryMaxSpeedRPM, scope)
}

// SetMaxSpeedRPM sets the speed limit in RPM.
func (s *Servo) SetMaxSpeedRPM(ctx context.Context, rpm int64, scope Scope) error {
	return s.setScoped(ctx, CmdMaxSpeedRPM, CmdConfigMaxSpeedRPM, scope, rpm)
}

// InstantaneousSpeed reads the speed the output shaft is moving at right
// now, in degrees/second, through the extended scope of the max-speed
// query.
func (s *Servo) InstantaneousSpeed(ctx context.Context) (float64, error) {
	raw, err := s.queryScoped(ctx, CmdQueryMaxSpeed, ScopeInstantaneousSpeed)
	if err != nil {
		return 0, err
	}
	return FromWire(CmdQueryMaxSpeed, raw), nil
}

// TargetTravelSpeed reads the speed the servo planned for the move in
// progress, in degrees/second.
func (s *Servo) TargetTravelSpeed(ctx context.Context) (float64, error) {
	raw, err := s.queryScoped(ctx, CmdQueryMaxSpeed, ScopeTargetTravelSpeed)
	if err != nil {
		return 0, err
	}
	return FromWire(CmdQueryMaxSpeed, raw), nil
}

// LEDColor reads the LED color.
func (s *Servo) LEDColor(ctx context.Context, scope Scope) (LEDColor, error) {
	raw, err := s.queryScoped(ctx, CmdQueryLEDColor, scope)
	if err != nil {
		return LEDBlack, err
	}
	return LEDColor(raw), nil
}

// SetLEDColor sets the LED color.
func (s *Servo) SetLEDColor(ctx context.Context, color LEDColor, scope Scope) error {
	return s.setScoped(ctx, CmdLEDColor, CmdConfigLEDColor, scope, int64(color))
}

// Gyre reads the rotation direction convention.
func (s *Servo) Gyre(ctx context.Context, scope Scope) (GyreDirection, error) {
	raw, err := s.queryScoped(ctx, CmdQueryGyre, scope)
	if err != nil {
		return 0, err
	}
	return GyreDirection(raw), nil
}

// SetGyre sets the rotation direction convention.
func (s *Servo) SetGyre(ctx context.Context, gyre GyreDirection, scope Scope) error {
	return s.setScoped(ctx, CmdGyre, CmdConfigGyre, scope, int64(gyre))
}

// Stiffness reads the angular stiffness.
func (s *Servo) Stiffness(ctx context.Context, scope Scope) (int64, error) {
	return s.queryScoped(ctx, CmdQueryStiffness, scope)
}

// SetStiffness sets the angular stiffness (-10..10).
func (s *Servo) SetStiffness(ctx context.Context, value int64, scope Scope) error {
	return s.setScoped(ctx, CmdStiffness, CmdConfigStiffness, scope, value)
}

// HoldingStiffness reads the angular holding stiffness.
func (s *Servo) HoldingStiffness(ctx context.Context, scope Scope) (int64, error) {
	return s.queryScoped(ctx, CmdQueryHoldingStiffness, scope)
}

// SetHoldingStiffness sets the angular holding stiffness.
func (s *Servo) SetHoldingStiffness(ctx context.Context, value int64, scope Scope) error {
	return s.setScoped(ctx, CmdHoldingStiffness, CmdConfigHoldingStiffness, scope, value)
}

// Acceleration reads the angular acceleration in 10°/s² increments.
func (s *Servo) Acceleration(ctx context.Context, scope Scope) (int64, error) {
	return s.queryScoped(ctx, CmdQueryAcceleration, scope)
}

// SetAcceleration sets the angular acceleration.
func (s *Servo) SetAcceleration(ctx context.Context, value int64, scope Scope) error {
	return s.setScoped(ctx, CmdAcceleration, CmdConfigAcceleration, scope, value)
}

// Deceleration reads the angular deceleration in 10°/s² increments.
func (s *Servo) Deceleration(ctx context.Context, scope Scope) (int64, error) {
	return s.queryScoped(ctx, CmdQueryDeceleration, scope)
}

// SetDeceleration sets the angular deceleration.
func (s *Servo) SetDeceleration(ctx context.Context, value int64, scope Scope) error {
	return s.setScoped(ctx, CmdDeceleration, CmdConfigDeceleration, scope, value)
}

// FirstPosition reads the power-on first position in degrees. enabled is
// false when the servo reports the feature disabled.
func (s *Servo) FirstPosition(ctx context.Context) (degrees float64, enabled bool, err error) {
	reply, err := s.ex.Exchange(ctx, NewRequest(s.id, CmdQueryFirstPosition))
	if err != nil {
		return 0, false, err
	}
	if reply.Disabled() {
		return 0, false, nil
	}
	return FromWire(CmdQueryFirstPosition, reply.Value), true, nil
}

// SetFirstPosition configures the power-on first position in degrees.
func (s *Servo) SetFirstPosition(ctx context.Context, degrees float64) error {
	return s.act(ctx, CmdConfigFirstPosition, ToWire(CmdConfigFirstPosition, degrees))
}

// ClearFirstPosition disables the power-on first position.
func (s *Servo) ClearFirstPosition(ctx context.Context) error {
	return s.actBare(ctx, CmdConfigFirstPosition)
}

// MotionControlEnabled reads whether the motion control engine is active.
func (s *Servo) MotionControlEnabled(ctx context.Context) (bool, error) {
	raw, err := s.queryRaw(ctx, CmdQueryMotionControl)
	if err != nil {
		return false, err
	}
	return raw != 0, nil
}

// SetMotionControl enables or disables the motion control engine.
func (s *Servo) SetMotionControl(ctx context.Context, enabled bool) error {
	var v int64
	if enabled {
		v = 1
	}
	return s.act(ctx, CmdMotionControl, v)
}

// BlinkingLED reads the LED blink state bitmask.
func (s *Servo) BlinkingLED(ctx context.Context) (int64, error) {
	return s.queryRaw(ctx, CmdQueryBlinkingLED)
}

// SetBlinkingLED sets the bitmask of servo states the LED blinks on.
func (s *Servo) SetBlinkingLED(ctx context.Context, mask int64) error {
	return s.act(ctx, CmdConfigBlinkingLED, mask)
}

// ConfigureID persistently renumbers the servo. The handle keeps its old
// address: build a new handle after the servo is power cycled.
func (s *Servo) ConfigureID(ctx context.Context, newID int) error {
	if !ValidUnicastID(newID) {
		return fmt.Errorf("%w: %d", ErrInvalidID, newID)
	}
	return s.act(ctx, CmdConfigID, int64(newID))
}

// ConfigureBaud persistently changes the servo's baud rate. Takes effect
// after the servo is power cycled.
func (s *Servo) ConfigureBaud(ctx context.Context, baud int64) error {
	return s.act(ctx, CmdConfigBaud, baud)
}

// SetMode persistently switches between serial control and the RC PWM
// modes.
func (s *Servo) SetMode(ctx context.Context, mode OperatingMode) error {
	return s.act(ctx, CmdConfigMode, int64(mode))
}
