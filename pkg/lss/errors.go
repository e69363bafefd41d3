// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout             = errors.New("no matching reply within deadline")
	ErrMalformed           = errors.New("malformed reply frame")
	ErrBusClosed           = errors.New("bus is closed")
	ErrInvalidID           = errors.New("invalid servo ID")
	ErrUnregisteredCommand = errors.New("unregistered command")
	ErrOutOfRange          = errors.New("value outside configured range")
	ErrFrameTooLong        = errors.New("frame exceeds maximum length")
)

// TransportError is a write or read failure at the transport boundary.
// It is fatal for the current exchange and never retried at this layer.
type TransportError struct {
	Op  string // "write" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServoError is a per-exchange failure attributed to one servo: a timeout,
// a malformed reply, or an out-of-range input.
type ServoError struct {
	ID  int
	Cmd Command
	Err error
}

func (e *ServoError) Error() string {
	return fmt.Sprintf("servo %d %s: %v", e.ID, e.Cmd, e.Err)
}

func (e *ServoError) Unwrap() error {
	return e.Err
}

// MalformedFrameError describes a delimited span whose content failed to
// parse. ID is the frame's address when the leading digits parsed, or -1
// when even the address was unreadable.
type MalformedFrameError struct {
	ID     int
	Raw    string
	Reason string
}

func (e *MalformedFrameError) Error() string {
	if e.ID >= 0 {
		return fmt.Sprintf("malformed frame for servo %d: %s (%q)", e.ID, e.Reason, e.Raw)
	}
	return fmt.Sprintf("malformed frame: %s (%q)", e.Reason, e.Raw)
}

func (e *MalformedFrameError) Unwrap() error {
	return ErrMalformed
}

// IsTimeout reports whether err is an exchange timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsMalformed reports whether err indicates a reply that violated the
// expected frame or value shape.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
