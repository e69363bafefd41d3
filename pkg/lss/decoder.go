// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"strings"
	"time"
)

// Decoder states (internal)
const (
	stateIdle = iota
	stateID
	stateBody
)

// maxValueDigits caps a numeric value's digit run. The protocol carries at
// most eighteen digits per value; anything longer is malformed rather than
// a wrapped integer.
const maxValueDigits = 18

// Decoder implements the LSS frame decoder as a byte-driven state machine.
// Bytes outside a delimited span are discarded as noise: the bus is shared
// and may carry interleaved traffic for other servos. One completed span
// yields either a Frame or a MalformedFrameError; an in-progress span
// keeps state across calls.
type Decoder struct {
	state     int
	kind      Kind
	id        int
	idDigits  int
	body      []byte
	rawBuffer []byte // Accumulate raw bytes including framing
}

// NewDecoder creates a new frame decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		state:     stateIdle,
		body:      make([]byte, 0, MaxFrameSize),
		rawBuffer: make([]byte, 0, MaxFrameSize*2),
	}
}

// Reset resets the decoder state to idle.
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.id = 0
	d.idDigits = 0
	d.body = d.body[:0]
	d.rawBuffer = d.rawBuffer[:0]
}

// GetRawBytes returns the accumulated raw bytes since the last reset,
// including framing and any leading noise.
func (d *Decoder) GetRawBytes() []byte {
	return d.rawBuffer
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed frame, or nil while the frame is incomplete.
// Returns an error when a delimited span fails to parse; the decoder
// resets itself and subsequent bytes start a fresh scan.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	d.rawBuffer = append(d.rawBuffer, b)

	// A start delimiter anywhere begins a new frame, abandoning any
	// partial span. The bus carries no escaping, so delimiters are
	// unambiguous.
	if b == RequestStart || b == ReplyStart {
		raw := d.rawBuffer
		d.Reset()
		d.rawBuffer = append(raw[:0], b)
		if b == RequestStart {
			d.kind = KindRequest
		} else {
			d.kind = KindReply
		}
		d.state = stateID
		return nil, nil
	}

	if b == Terminator {
		switch d.state {
		case stateIdle:
			// Terminator in noise, nothing to finish.
			return nil, nil
		case stateID:
			err := d.fail("frame without command token")
			return nil, err
		default:
			frame, err := d.finalize()
			d.Reset()
			return frame, err
		}
	}

	switch d.state {
	case stateIdle:
		// Noise between frames.
		return nil, nil

	case stateID:
		if b >= '0' && b <= '9' {
			if d.idDigits >= 3 {
				// The overflowed address cannot be attributed to any
				// servo; report it unreadable rather than as a prefix.
				raw := string(d.rawBuffer)
				d.Reset()
				return nil, &MalformedFrameError{ID: -1, Raw: raw, Reason: "address longer than three digits"}
			}
			d.id = d.id*10 + int(b-'0')
			d.idDigits++
			return nil, nil
		}
		if isTokenByte(b) {
			if d.idDigits == 0 {
				return nil, d.fail("frame without address")
			}
			d.state = stateBody
			d.body = append(d.body, b)
			return nil, nil
		}
		return nil, d.fail("invalid byte in address")

	case stateBody:
		if len(d.body) >= MaxFrameSize {
			return nil, d.fail("frame exceeds maximum length")
		}
		if b < 0x20 || b > 0x7E {
			return nil, d.fail("non-printable byte in frame")
		}
		d.body = append(d.body, b)
		return nil, nil

	default:
		d.Reset()
		return nil, &MalformedFrameError{ID: -1, Reason: "invalid decoder state"}
	}
}

// fail builds a malformed-frame error carrying whatever address was
// readable, then resets the decoder.
func (d *Decoder) fail(reason string) error {
	id := -1
	if d.idDigits > 0 {
		id = d.id
	}
	err := &MalformedFrameError{ID: id, Raw: string(d.rawBuffer), Reason: reason}
	d.Reset()
	return err
}

// finalize parses the accumulated span into a frame once the terminator
// arrives.
func (d *Decoder) finalize() (*Frame, error) {
	body := string(d.body)
	upper := strings.ToUpper(body)

	cmd := matchToken(upper)
	if cmd == "" {
		return nil, &MalformedFrameError{ID: d.id, Raw: string(d.rawBuffer), Reason: "unrecognized command token"}
	}
	rest := body[len(cmd):]

	frame := &Frame{
		Kind:      d.kind,
		ID:        d.id,
		Command:   cmd,
		Timestamp: time.Now(),
	}

	if rest == "" {
		return frame, nil
	}

	if value, after, ok := parseSigned(rest); ok {
		frame.HasValue = true
		frame.Value = value
		if after == "" {
			return frame, nil
		}
		// Remaining content after a numeric value is only legal as
		// modifier suffixes on a request frame.
		if d.kind != KindRequest {
			return nil, &MalformedFrameError{ID: d.id, Raw: string(d.rawBuffer), Reason: "trailing bytes after reply value"}
		}
		mods, ok := parseModifiers(after)
		if !ok {
			return nil, &MalformedFrameError{ID: d.id, Raw: string(d.rawBuffer), Reason: "invalid modifier suffix"}
		}
		frame.Modifiers = mods
		return frame, nil
	}

	// A leading digit here means parseSigned refused an over-long run;
	// textual payloads never start with a digit or a sign.
	if t := strings.TrimPrefix(rest, "-"); t != "" && t[0] >= '0' && t[0] <= '9' {
		return nil, &MalformedFrameError{ID: d.id, Raw: string(d.rawBuffer), Reason: "value out of range"}
	}

	// Non-numeric payloads: model strings and the DIS sentinel.
	spec := MustSpec(cmd)
	if spec.Reply == ReplyString || strings.ToUpper(rest) == FirstPositionDisabled {
		frame.Text = rest
		return frame, nil
	}
	return nil, &MalformedFrameError{ID: d.id, Raw: string(d.rawBuffer), Reason: "non-numeric value"}
}

// isTokenByte reports whether b can begin or extend a command token.
func isTokenByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// parseSigned consumes an optionally-signed run of decimal digits from the
// front of s. Reports failure when no digits are present or the run is
// longer than maxValueDigits.
func parseSigned(s string) (value int64, rest string, ok bool) {
	i := 0
	neg := false
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start || i-start > maxValueDigits {
		return 0, s, false
	}
	for j := start; j < i; j++ {
		value = value*10 + int64(s[j]-'0')
	}
	if neg {
		value = -value
	}
	return value, s[i:], true
}

// parseModifiers parses a run of modifier suffixes (letter token followed
// by a signed value), e.g. "T2500S180".
func parseModifiers(s string) ([]Modifier, bool) {
	var mods []Modifier
	for len(s) > 0 {
		j := 0
		for j < len(s) && isTokenByte(s[j]) {
			j++
		}
		if j == 0 {
			return nil, false
		}
		token := ModifierToken(strings.ToUpper(s[:j]))
		if token != ModTimedMove && token != ModSpeedLimit {
			return nil, false
		}
		value, rest, ok := parseSigned(s[j:])
		if !ok {
			return nil, false
		}
		mods = append(mods, Modifier{Token: token, Value: value})
		s = rest
	}
	return mods, true
}
