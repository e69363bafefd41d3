// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"
)

// mockTransport implements Transport for testing. Read honors the
// go.bug.st/serial contract: (0, nil) when the read timeout elapses with
// no data available.
type mockTransport struct {
	mu          sync.Mutex
	readBuf     []byte
	written     []byte
	writeErr    error
	readErr     error
	readTimeout time.Duration
	closed      bool

	// onWrite, when set, sees each written frame and may queue reply
	// bytes. Used by the interleaving tests to model a responsive servo.
	onWrite func(frame []byte)
}

func (m *mockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.readErr != nil {
		err := m.readErr
		m.mu.Unlock()
		return 0, err
	}
	if len(m.readBuf) == 0 {
		timeout := m.readTimeout
		m.mu.Unlock()
		// Emulate a serial read timeout with no data.
		time.Sleep(timeout)
		return 0, nil
	}
	n := copy(p, m.readBuf)
	m.readBuf = m.readBuf[n:]
	m.mu.Unlock()
	return n, nil
}

func (m *mockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return 0, err
	}
	m.written = append(m.written, p...)
	cb := m.onWrite
	m.mu.Unlock()
	if cb != nil {
		cb(p)
	}
	return len(p), nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockTransport) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = timeout
	return nil
}

func (m *mockTransport) queueReply(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf = append(m.readBuf, data...)
}

func (m *mockTransport) writtenString() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.written)
}

func newTestExchanger(t *testing.T, mock *mockTransport, timeout time.Duration) *Exchanger {
	t.Helper()
	ex, err := NewExchanger(ExchangerConfig{Transport: mock, Timeout: timeout})
	if err != nil {
		t.Fatalf("NewExchanger: %v", err)
	}
	return ex
}

func TestExchangeQuery(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QD450\r")
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	reply, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if reply.ID != 5 || reply.Command != CmdQueryPosition || reply.Value != 450 {
		t.Errorf("reply = %+v", reply)
	}
	if got := mock.writtenString(); got != "#5QD\r" {
		t.Errorf("wrote %q, want %q", got, "#5QD\r")
	}
}

func TestExchangeReplyLessCommandCompletesOnWrite(t *testing.T) {
	// No reply bytes queued: a move must not enter a read phase at all.
	mock := &mockTransport{}
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	start := time.Now()
	reply, err := ex.Exchange(context.Background(), NewValueRequest(5, CmdMove, 450))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("reply-less exchange took %v, should complete on write", elapsed)
	}
	if reply.ID != 5 || reply.Command != CmdMove {
		t.Errorf("ack = %+v", reply)
	}
	if got := mock.writtenString(); got != "#5D450\r" {
		t.Errorf("wrote %q, want %q", got, "#5D450\r")
	}
}

func TestExchangeBroadcastNeverReads(t *testing.T) {
	mock := &mockTransport{}
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	// Even a query addressed to broadcast cannot expect a single reply.
	if _, err := ex.Exchange(context.Background(), NewRequest(BroadcastID, CmdQueryPosition)); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if got := mock.writtenString(); got != "#254QD\r" {
		t.Errorf("wrote %q", got)
	}
}

func TestExchangeDiscardsForeignFrames(t *testing.T) {
	// Well-formed traffic for other addresses is not an error on a
	// shared bus; it is skipped without disturbing the wait.
	mock := &mockTransport{}
	mock.queueReply("*7QD999\r*19QV12000\r*5QD450\r")
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	reply, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if reply.Value != 450 {
		t.Errorf("Value = %d, want 450", reply.Value)
	}
}

func TestExchangeDiscardsMalformedForeignFrames(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*7QDjunk\r*5QD450\r")
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	reply, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if reply.Value != 450 {
		t.Errorf("Value = %d, want 450", reply.Value)
	}
}

func TestExchangeMalformedForAwaitedAddress(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QDjunk\r")
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	_, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	if !IsMalformed(err) {
		t.Fatalf("error = %v, want malformed", err)
	}
	var se *ServoError
	if !errors.As(err, &se) || se.ID != 5 {
		t.Errorf("error = %v, want ServoError for servo 5", err)
	}
}

func TestExchangeWrongTokenForAwaitedAddress(t *testing.T) {
	// The awaited servo answering a different command means the bus is
	// desynced; the engine must not reinterpret the reply.
	mock := &mockTransport{}
	mock.queueReply("*5QV7400\r")
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	_, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	if !IsMalformed(err) {
		t.Fatalf("error = %v, want malformed", err)
	}
}

func TestExchangeTimeout(t *testing.T) {
	mock := &mockTransport{}
	ex := newTestExchanger(t, mock, 40*time.Millisecond)

	start := time.Now()
	_, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	elapsed := time.Since(start)

	if !IsTimeout(err) {
		t.Fatalf("error = %v, want timeout", err)
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("timed out after %v, before the deadline", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("timeout took %v, deadline not honored", elapsed)
	}
}

func TestExchangeForeignTrafficDoesNotResetDeadline(t *testing.T) {
	// A steady stream of foreign frames must not extend the wait.
	mock := &mockTransport{}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mock.queueReply("*9QD100\r")
			}
		}
	}()
	defer close(done)

	ex := newTestExchanger(t, mock, 40*time.Millisecond)
	start := time.Now()
	_, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	elapsed := time.Since(start)

	if !IsTimeout(err) {
		t.Fatalf("error = %v, want timeout", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("foreign traffic extended the deadline to %v", elapsed)
	}
}

func TestExchangeWriteFailure(t *testing.T) {
	mock := &mockTransport{writeErr: errors.New("broken pipe")}
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	_, err := ex.Exchange(context.Background(), NewValueRequest(5, CmdMove, 450))
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "write" {
		t.Fatalf("error = %v, want write TransportError", err)
	}
}

func TestExchangeReadFailure(t *testing.T) {
	mock := &mockTransport{readErr: errors.New("device unplugged")}
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	_, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "read" {
		t.Fatalf("error = %v, want read TransportError", err)
	}
}

func TestExchangeContextCancellation(t *testing.T) {
	mock := &mockTransport{}
	ex := newTestExchanger(t, mock, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := ex.Exchange(ctx, NewRequest(5, CmdQueryPosition))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation not observed promptly")
	}
}

func TestExchangeAfterClose(t *testing.T) {
	mock := &mockTransport{}
	ex := newTestExchanger(t, mock, 50*time.Millisecond)
	if err := ex.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mock.closed {
		t.Error("transport not closed")
	}

	_, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition))
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("error = %v, want ErrBusClosed", err)
	}
}

func TestExchangeUnregisteredCommand(t *testing.T) {
	mock := &mockTransport{}
	ex := newTestExchanger(t, mock, 50*time.Millisecond)

	_, err := ex.Exchange(context.Background(), NewRequest(5, Command("ZZ")))
	if !errors.Is(err, ErrUnregisteredCommand) {
		t.Fatalf("error = %v, want ErrUnregisteredCommand", err)
	}
	if mock.writtenString() != "" {
		t.Error("bytes were written for an unregistered command")
	}
}

func TestExchangeTrace(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QD450\r")

	var mu sync.Mutex
	var tx, rx []byte
	ex, err := NewExchanger(ExchangerConfig{
		Transport: mock,
		Timeout:   50 * time.Millisecond,
		Trace: func(dir TraceDirection, data []byte) {
			mu.Lock()
			defer mu.Unlock()
			if dir == TraceTX {
				tx = append(tx, data...)
			} else {
				rx = append(rx, data...)
			}
		},
	})
	if err != nil {
		t.Fatalf("NewExchanger: %v", err)
	}

	if _, err := ex.Exchange(context.Background(), NewRequest(5, CmdQueryPosition)); err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if string(tx) != "#5QD\r" {
		t.Errorf("traced TX = %q", tx)
	}
	if string(rx) != "*5QD450\r" {
		t.Errorf("traced RX = %q", rx)
	}
}

// TestExchangeSerialization issues interleaved queries from two handles
// sharing one exchanger and checks that every reply pairs with its own
// request: exchanges never overlap on the transport.
func TestExchangeSerialization(t *testing.T) {
	mock := &mockTransport{}
	// Model a bus where each servo answers a position query with a value
	// derived from its own address.
	mock.onWrite = func(frame []byte) {
		var id int
		if _, err := fmt.Sscanf(string(frame), "#%d", &id); err != nil {
			return
		}
		mock.queueReply("*" + strconv.Itoa(id) + "QD" + strconv.Itoa(id*100) + "\r")
	}
	ex := newTestExchanger(t, mock, 200*time.Millisecond)

	ids := []int{5, 9}
	var wg sync.WaitGroup
	errCh := make(chan error, len(ids)*50)

	for _, id := range ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				reply, err := ex.Exchange(context.Background(), NewRequest(id, CmdQueryPosition))
				if err != nil {
					errCh <- fmt.Errorf("servo %d: %w", id, err)
					return
				}
				if reply.ID != id || reply.Value != int64(id*100) {
					errCh <- fmt.Errorf("servo %d got reply %+v", id, reply)
					return
				}
			}
		}(id)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Error(err)
	}
}
