// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"fmt"
	"sort"
)

// ParamShape describes how many parameters a command carries on the wire.
type ParamShape int

const (
	// ParamNone: bare command, e.g. `#5QD\r`.
	ParamNone ParamShape = iota
	// ParamInt: one signed decimal value, e.g. `#5D450\r`.
	ParamInt
	// ParamIntModifiers: one signed decimal value plus optional modifier
	// suffixes, e.g. `#5D450T2500\r`.
	ParamIntModifiers
	// ParamScope: one optional scope selector (session/config), used by
	// scoped queries such as `#5QSD1\r`.
	ParamScope
)

// ReplyShape describes what a command's reply looks like.
type ReplyShape int

const (
	// ReplyNone: the servo does not answer; the exchange completes on write.
	ReplyNone ReplyShape = iota
	// ReplyInt: one signed decimal value, e.g. `*5QD450\r`.
	ReplyInt
	// ReplyString: a short textual value, e.g. `*5QMSLSS-HT1\r`.
	ReplyString
)

// Unit is the wire unit of a command's value, used by the converters in
// units.go. All scale and rounding rules live there; call sites never
// duplicate a scale factor.
type Unit int

const (
	UnitRaw Unit = iota
	UnitDeciDegree       // tenths of a degree
	UnitDeciDegreePerSec // tenths of a degree per second
	UnitMillivolt
	UnitDeciCelsius
	UnitMilliamp
	UnitRPM
)

// CommandSpec is one row of the command registry: the parameter arity of a
// request, the shape of its reply, and the unit of its value.
type CommandSpec struct {
	Params ParamShape
	Reply  ReplyShape
	Unit   Unit
}

// registry is the closed set of supported commands. Adding a command is a
// table change; no decoding or encoding logic needs to know about
// individual commands.
var registry = map[Command]CommandSpec{
	// Actions
	CmdReset:            {ParamNone, ReplyNone, UnitRaw},
	CmdLimp:             {ParamNone, ReplyNone, UnitRaw},
	CmdHold:             {ParamNone, ReplyNone, UnitRaw},
	CmdMove:             {ParamIntModifiers, ReplyNone, UnitDeciDegree},
	CmdMoveRelative:     {ParamIntModifiers, ReplyNone, UnitDeciDegree},
	CmdWheel:            {ParamInt, ReplyNone, UnitDeciDegreePerSec},
	CmdWheelRPM:         {ParamInt, ReplyNone, UnitRPM},
	CmdOriginOffset:     {ParamInt, ReplyNone, UnitDeciDegree},
	CmdAngularRange:     {ParamInt, ReplyNone, UnitDeciDegree},
	CmdMaxSpeed:         {ParamInt, ReplyNone, UnitDeciDegreePerSec},
	CmdMaxSpeedRPM:      {ParamInt, ReplyNone, UnitRPM},
	CmdLEDColor:         {ParamInt, ReplyNone, UnitRaw},
	CmdGyre:             {ParamInt, ReplyNone, UnitRaw},
	CmdStiffness:        {ParamInt, ReplyNone, UnitRaw},
	CmdHoldingStiffness: {ParamInt, ReplyNone, UnitRaw},
	CmdAcceleration:     {ParamInt, ReplyNone, UnitRaw},
	CmdDeceleration:     {ParamInt, ReplyNone, UnitRaw},
	CmdMotionControl:    {ParamInt, ReplyNone, UnitRaw},

	// Queries
	CmdQueryStatus:           {ParamNone, ReplyInt, UnitRaw},
	CmdQueryOriginOffset:     {ParamScope, ReplyInt, UnitDeciDegree},
	CmdQueryAngularRange:     {ParamScope, ReplyInt, UnitDeciDegree},
	CmdQueryPositionPulse:    {ParamNone, ReplyInt, UnitRaw},
	CmdQueryPosition:         {ParamNone, ReplyInt, UnitDeciDegree},
	CmdQuerySpeed:            {ParamNone, ReplyInt, UnitDeciDegreePerSec},
	CmdQuerySpeedRPM:         {ParamNone, ReplyInt, UnitRPM},
	CmdQuerySpeedPulse:       {ParamNone, ReplyInt, UnitRaw},
	CmdQueryMaxSpeed:         {ParamScope, ReplyInt, UnitDeciDegreePerSec},
	CmdQueryMaxSpeedRPM:      {ParamScope, ReplyInt, UnitRPM},
	CmdQueryLEDColor:         {ParamScope, ReplyInt, UnitRaw},
	CmdQueryGyre:             {ParamScope, ReplyInt, UnitRaw},
	CmdQueryID:               {ParamNone, ReplyInt, UnitRaw},
	CmdQueryBaud:             {ParamNone, ReplyInt, UnitRaw},
	CmdQueryFirstPosition:    {ParamNone, ReplyInt, UnitDeciDegree},
	CmdQueryModel:            {ParamNone, ReplyString, UnitRaw},
	CmdQuerySerialNumber:     {ParamNone, ReplyInt, UnitRaw},
	CmdQueryFirmware:         {ParamNone, ReplyInt, UnitRaw},
	CmdQueryVoltage:          {ParamNone, ReplyInt, UnitMillivolt},
	CmdQueryTemperature:      {ParamNone, ReplyInt, UnitDeciCelsius},
	CmdQueryCurrent:          {ParamNone, ReplyInt, UnitMilliamp},
	CmdQueryStiffness:        {ParamScope, ReplyInt, UnitRaw},
	CmdQueryHoldingStiffness: {ParamScope, ReplyInt, UnitRaw},
	CmdQueryAcceleration:     {ParamScope, ReplyInt, UnitRaw},
	CmdQueryDeceleration:     {ParamScope, ReplyInt, UnitRaw},
	CmdQueryMotionControl:    {ParamNone, ReplyInt, UnitRaw},
	CmdQueryBlinkingLED:      {ParamNone, ReplyInt, UnitRaw},

	// Configurations
	CmdConfigID:               {ParamInt, ReplyNone, UnitRaw},
	CmdConfigBaud:             {ParamInt, ReplyNone, UnitRaw},
	CmdConfigOriginOffset:     {ParamInt, ReplyNone, UnitDeciDegree},
	CmdConfigAngularRange:     {ParamInt, ReplyNone, UnitDeciDegree},
	CmdConfigMaxSpeed:         {ParamInt, ReplyNone, UnitDeciDegreePerSec},
	CmdConfigMaxSpeedRPM:      {ParamInt, ReplyNone, UnitRPM},
	CmdConfigLEDColor:         {ParamInt, ReplyNone, UnitRaw},
	CmdConfigGyre:             {ParamInt, ReplyNone, UnitRaw},
	CmdConfigFirstPosition:    {ParamInt, ReplyNone, UnitDeciDegree},
	CmdConfigMode:             {ParamInt, ReplyNone, UnitRaw},
	CmdConfigStiffness:        {ParamInt, ReplyNone, UnitRaw},
	CmdConfigHoldingStiffness: {ParamInt, ReplyNone, UnitRaw},
	CmdConfigAcceleration:     {ParamInt, ReplyNone, UnitRaw},
	CmdConfigDeceleration:     {ParamInt, ReplyNone, UnitRaw},
	CmdConfigBlinkingLED:      {ParamInt, ReplyNone, UnitRaw},
}

// tokensByLength holds every registered token, longest first, for the
// decoder's longest-prefix token match. Built once at init.
var tokensByLength []Command

func init() {
	tokensByLength = make([]Command, 0, len(registry))
	for cmd := range registry {
		tokensByLength = append(tokensByLength, cmd)
	}
	sort.Slice(tokensByLength, func(i, j int) bool {
		if len(tokensByLength[i]) != len(tokensByLength[j]) {
			return len(tokensByLength[i]) > len(tokensByLength[j])
		}
		return tokensByLength[i] < tokensByLength[j]
	})
}

// Spec returns the registry entry for cmd.
func Spec(cmd Command) (CommandSpec, bool) {
	spec, ok := registry[cmd]
	return spec, ok
}

// MustSpec returns the registry entry for cmd and panics if cmd is not
// registered. Constructing a request for an unregistered command is a
// programming error, not a runtime condition.
func MustSpec(cmd Command) CommandSpec {
	spec, ok := registry[cmd]
	if !ok {
		panic(fmt.Sprintf("lss: %v: %q", ErrUnregisteredCommand, cmd))
	}
	return spec
}

// Registered reports whether cmd is part of the supported command set.
func Registered(cmd Command) bool {
	_, ok := registry[cmd]
	return ok
}

// Commands returns every registered command, longest token first.
func Commands() []Command {
	out := make([]Command, len(tokensByLength))
	copy(out, tokensByLength)
	return out
}

// matchToken finds the longest registered command token that prefixes s.
// Returns the empty command when nothing matches.
func matchToken(s string) Command {
	for _, cmd := range tokensByLength {
		tok := string(cmd)
		if len(s) >= len(tok) && s[:len(tok)] == tok {
			return cmd
		}
	}
	return ""
}
