// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Transport is the byte-stream boundary under the exchange engine. The
// engine does not open, configure, or close the underlying resource beyond
// Close; any serial port, bridge socket, or test double satisfying this
// interface works.
//
// Read must honor the timeout set via SetReadTimeout and return (0, nil)
// when it elapses with no data, matching go.bug.st/serial semantics. Any
// non-nil error is treated as a transport failure.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds the next Read calls.
	SetReadTimeout(timeout time.Duration) error
}

// TraceDirection tags trace callbacks with the side of the wire the bytes
// were seen on.
type TraceDirection int

const (
	TraceTX TraceDirection = iota
	TraceRX
)

func (d TraceDirection) String() string {
	if d == TraceTX {
		return "TX"
	}
	return "RX"
}

// readStep bounds one transport read so context cancellation and the
// exchange deadline are both observed promptly.
const readStep = 10 * time.Millisecond

// ExchangerConfig holds configuration for creating an Exchanger.
type ExchangerConfig struct {
	// Transport is the bus connection. Required.
	Transport Transport

	// Timeout is the per-exchange reply deadline. Default is
	// DefaultTimeout (100ms, the protocol's stock reply budget).
	Timeout time.Duration

	// Trace, when set, receives every raw byte sequence written to or
	// read from the transport. Used for diagnostics; must not block.
	Trace func(dir TraceDirection, data []byte)
}

// Exchanger drives one request/reply cycle at a time over a shared
// half-duplex bus. It exclusively owns the transport for the duration of
// an exchange: concurrent callers are serialized internally, so multiple
// Servo handles may share one Exchanger.
type Exchanger struct {
	transport Transport
	timeout   time.Duration
	trace     func(dir TraceDirection, data []byte)

	mu     sync.Mutex
	dec    *Decoder
	closed bool
}

// NewExchanger creates an exchange engine over the given transport.
func NewExchanger(cfg ExchangerConfig) (*Exchanger, error) {
	if cfg.Transport == nil {
		return nil, errors.New("transport must be specified")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Exchanger{
		transport: cfg.Transport,
		timeout:   cfg.Timeout,
		trace:     cfg.Trace,
		dec:       NewDecoder(),
	}, nil
}

// Timeout returns the per-exchange reply deadline.
func (e *Exchanger) Timeout() time.Duration {
	return e.timeout
}

// Close closes the exchanger and its transport.
func (e *Exchanger) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.transport.Close()
}

// Exchange sends one request and, when the command's registry entry
// expects a reply, waits for the matching reply frame from the same
// address. The exchange completes with exactly one outcome: a matched
// reply, ErrTimeout, ErrMalformed, or a TransportError. No retries happen
// at this layer; retry policy belongs to the caller.
func (e *Exchanger) Exchange(ctx context.Context, req *Request) (Reply, error) {
	spec, ok := Spec(req.Command)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnregisteredCommand, req.Command)
	}

	data, err := EncodeRequest(req)
	if err != nil {
		return Reply{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Reply{}, ErrBusClosed
	}

	if err := e.writeLocked(data); err != nil {
		return Reply{}, err
	}

	// Broadcasts and reply-less commands acknowledge on write: there is
	// no read phase and nothing to demultiplex.
	if spec.Reply == ReplyNone || req.IsBroadcast() {
		return Reply{ID: req.ID, Command: req.Command}, nil
	}

	return e.awaitReplyLocked(ctx, req, spec)
}

// Send writes a request without waiting for any reply, regardless of the
// command's reply shape. Useful for recovery sequences on a desynced bus.
func (e *Exchanger) Send(ctx context.Context, req *Request) error {
	data, err := EncodeRequest(req)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrBusClosed
	}
	return e.writeLocked(data)
}

func (e *Exchanger) writeLocked(data []byte) error {
	if e.trace != nil {
		e.trace(TraceTX, data)
	}
	n, err := e.transport.Write(data)
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	if n != len(data) {
		return &TransportError{Op: "write", Err: fmt.Errorf("short write: %d of %d bytes", n, len(data))}
	}
	return nil
}

// awaitReplyLocked reads the transport in bounded increments until a frame
// matching the request's address is decoded, the deadline elapses, or a
// malformed frame for that address arrives. Foreign-address frames are
// discarded without resetting the deadline: they are legitimate traffic
// for other servos, or stale bytes from an abandoned exchange.
func (e *Exchanger) awaitReplyLocked(ctx context.Context, req *Request, spec CommandSpec) (Reply, error) {
	deadline := time.Now().Add(e.timeout)
	e.dec.Reset()
	buf := make([]byte, 64)

	for {
		select {
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		default:
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Reply{}, &ServoError{ID: req.ID, Cmd: req.Command, Err: ErrTimeout}
		}
		step := remaining
		if step > readStep {
			step = readStep
		}
		if err := e.transport.SetReadTimeout(step); err != nil {
			return Reply{}, &TransportError{Op: "read", Err: err}
		}

		n, err := e.transport.Read(buf)
		if err != nil {
			return Reply{}, &TransportError{Op: "read", Err: err}
		}
		if n == 0 {
			continue
		}
		if e.trace != nil {
			e.trace(TraceRX, buf[:n])
		}

		for _, b := range buf[:n] {
			frame, derr := e.dec.DecodeByte(b)
			if derr != nil {
				var mf *MalformedFrameError
				if errors.As(derr, &mf) && mf.ID >= 0 && mf.ID != req.ID {
					// Malformed foreign traffic; keep waiting.
					continue
				}
				// Unattributable garbage or a broken frame for our
				// address: the bus is desynced for this exchange.
				return Reply{}, &ServoError{ID: req.ID, Cmd: req.Command, Err: derr}
			}
			if frame == nil {
				continue
			}
			if frame.Kind != KindReply || frame.ID != req.ID {
				continue
			}
			return matchReply(req, spec, frame)
		}
	}
}

// matchReply checks a decoded frame for our address against the expected
// reply shape. A frame from the right servo answering a different command,
// or carrying the wrong value type, indicates protocol desync and is
// terminal for the exchange.
func matchReply(req *Request, spec CommandSpec, frame *Frame) (Reply, error) {
	if frame.Command != req.Command {
		return Reply{}, &ServoError{
			ID:  req.ID,
			Cmd: req.Command,
			Err: fmt.Errorf("%w: reply answers %s", ErrMalformed, frame.Command),
		}
	}

	switch spec.Reply {
	case ReplyInt:
		if frame.HasValue {
			return Reply{ID: frame.ID, Command: frame.Command, Value: frame.Value}, nil
		}
		if frame.Disabled() {
			return Reply{ID: frame.ID, Command: frame.Command, Text: frame.Text}, nil
		}
	case ReplyString:
		if frame.Text != "" {
			return Reply{ID: frame.ID, Command: frame.Command, Text: frame.Text}, nil
		}
	}
	return Reply{}, &ServoError{
		ID:  req.ID,
		Cmd: req.Command,
		Err: fmt.Errorf("%w: reply shape mismatch", ErrMalformed),
	}
}
