// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"fmt"
	"strconv"
)

// EncodeRequest encodes a request to its wire byte sequence:
// start delimiter, address as decimal ASCII, command token, optional value
// (sign emitted only when negative), optional modifiers, terminator.
// Encoding is deterministic; there is no padding and no checksum.
func EncodeRequest(r *Request) ([]byte, error) {
	if !ValidID(r.ID) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, r.ID)
	}
	spec, ok := Spec(r.Command)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredCommand, r.Command)
	}

	switch spec.Params {
	case ParamNone:
		if r.Value != nil {
			return nil, fmt.Errorf("command %s takes no value", r.Command)
		}
	case ParamInt:
		// CFD with no value clears the first position; scoped queries may
		// omit the scope. A nil value is therefore always legal; a present
		// value is required only by the caller layer.
	}
	if len(r.Modifiers) > 0 && spec.Params != ParamIntModifiers {
		return nil, fmt.Errorf("command %s takes no modifiers", r.Command)
	}

	buf := make([]byte, 0, MaxFrameSize)
	buf = append(buf, RequestStart)
	buf = strconv.AppendInt(buf, int64(r.ID), 10)
	buf = append(buf, r.Command...)
	if r.Value != nil {
		buf = strconv.AppendInt(buf, *r.Value, 10)
	}
	for _, m := range r.Modifiers {
		buf = append(buf, m.Token...)
		buf = strconv.AppendInt(buf, m.Value, 10)
	}
	buf = append(buf, Terminator)

	if len(buf) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(buf))
	}
	return buf, nil
}

// EncodeCommand is a convenience wrapper building and encoding a request
// in one step. A nil value encodes a bare command.
func EncodeCommand(id int, cmd Command, value *int64, mods ...Modifier) ([]byte, error) {
	return EncodeRequest(&Request{ID: id, Command: cmd, Value: value, Modifiers: mods})
}

// MustEncodeRequest encodes a request and panics on error. Intended for
// requests built from registry constants where failure is a programming
// error.
func MustEncodeRequest(r *Request) []byte {
	data, err := EncodeRequest(r)
	if err != nil {
		panic(fmt.Sprintf("lss: encode error: %v", err))
	}
	return data
}
