// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import "time"

// Kind distinguishes the two frame directions seen on the bus.
type Kind int

const (
	// KindRequest is a controller-to-servo frame (`#...`).
	KindRequest Kind = iota
	// KindReply is a servo-to-controller frame (`*...`).
	KindReply
)

func (k Kind) String() string {
	if k == KindRequest {
		return "REQ"
	}
	return "RSP"
}

// Modifier is a suffix appended to a motion command, e.g. a travel time
// or speed limit.
type Modifier struct {
	Token ModifierToken
	Value int64
}

// TimedMove limits a move to take total milliseconds of travel time.
func TimedMove(ms int64) Modifier {
	return Modifier{Token: ModTimedMove, Value: ms}
}

// SpeedLimit caps a move's speed in pulse units.
func SpeedLimit(speed int64) Modifier {
	return Modifier{Token: ModSpeedLimit, Value: speed}
}

// Request is one outgoing command before encoding: an address, a command
// token, an optional value, and optional motion modifiers.
type Request struct {
	ID        int
	Command   Command
	Value     *int64
	Modifiers []Modifier
}

// NewRequest builds a bare request (query or parameterless action).
func NewRequest(id int, cmd Command) *Request {
	return &Request{ID: id, Command: cmd}
}

// NewValueRequest builds a request carrying one signed value.
func NewValueRequest(id int, cmd Command, value int64) *Request {
	return &Request{ID: id, Command: cmd, Value: &value}
}

// IsBroadcast reports whether the request addresses every servo on the
// bus. Broadcast requests never produce a reply.
func (r *Request) IsBroadcast() bool {
	return r.ID == BroadcastID || r.ID == WildcardID
}

// Frame is one decoded wire frame, request or reply. Exactly one of Value
// and Text is meaningful: HasValue marks a numeric value; otherwise Text
// holds the payload (model strings, the DIS sentinel) or is empty for
// bare commands.
type Frame struct {
	Kind      Kind
	ID        int
	Command   Command
	HasValue  bool
	Value     int64
	Text      string
	Modifiers []Modifier
	Timestamp time.Time
}

// Disabled reports whether the frame carries the protocol's "disabled"
// sentinel in place of a value (first-position queries).
func (f *Frame) Disabled() bool {
	return f.Text == FirstPositionDisabled
}

// Reply is the caller-facing outcome of one successful exchange. It is
// created per exchange and consumed immediately; nothing is cached.
type Reply struct {
	ID      int
	Command Command
	Value   int64
	Text    string
}

// Disabled reports whether the reply carries the "disabled" sentinel.
func (r Reply) Disabled() bool {
	return r.Text == FirstPositionDisabled
}
