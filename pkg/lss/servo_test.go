// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestServo(t *testing.T, mock *mockTransport, id int) *Servo {
	t.Helper()
	ex := newTestExchanger(t, mock, 50*time.Millisecond)
	s, err := NewServo(ex, id)
	if err != nil {
		t.Fatalf("NewServo: %v", err)
	}
	return s
}

func TestServoMoveTo(t *testing.T) {
	mock := &mockTransport{}
	s := newTestServo(t, mock, 5)

	if err := s.MoveTo(context.Background(), 45.0); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if got := mock.writtenString(); got != "#5D450\r" {
		t.Errorf("wrote %q, want %q", got, "#5D450\r")
	}
}

func TestServoMoveToWithModifiers(t *testing.T) {
	mock := &mockTransport{}
	s := newTestServo(t, mock, 5)

	if err := s.MoveTo(context.Background(), -90.0, TimedMove(2500)); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if got := mock.writtenString(); got != "#5D-900T2500\r" {
		t.Errorf("wrote %q, want %q", got, "#5D-900T2500\r")
	}
}

func TestServoMoveToClampsByDefault(t *testing.T) {
	mock := &mockTransport{}
	s := newTestServo(t, mock, 5)

	// Default policy clamps to the travel range rather than rejecting.
	if err := s.MoveTo(context.Background(), 200.0); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if got := mock.writtenString(); got != "#5D1800\r" {
		t.Errorf("wrote %q, want clamped %q", got, "#5D1800\r")
	}
}

func TestServoMoveToRejectPolicy(t *testing.T) {
	mock := &mockTransport{}
	s := newTestServo(t, mock, 5)
	s.SetClampPolicy(RejectOutOfRange)

	err := s.MoveTo(context.Background(), 200.0)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("error = %v, want ErrOutOfRange", err)
	}
	// The rejection must happen before any bytes reach the bus.
	if mock.writtenString() != "" {
		t.Errorf("bytes written despite rejection: %q", mock.writtenString())
	}
}

func TestServoCustomTravelRange(t *testing.T) {
	mock := &mockTransport{}
	s := newTestServo(t, mock, 5)
	s.SetTravelRange(TravelRange{Min: -45, Max: 45})

	if err := s.MoveTo(context.Background(), -90.0); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if got := mock.writtenString(); got != "#5D-450\r" {
		t.Errorf("wrote %q, want %q", got, "#5D-450\r")
	}
}

func TestServoPosition(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QD450\r")
	s := newTestServo(t, mock, 5)

	deg, err := s.Position(context.Background())
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if deg != 45.0 {
		t.Errorf("Position = %v, want 45.0", deg)
	}
}

func TestServoQueryIdempotent(t *testing.T) {
	// A repeated query with no intervening move returns the same value:
	// the handle holds no cache and issues one exchange per call.
	mock := &mockTransport{}
	mock.onWrite = func(frame []byte) {
		mock.queueReply("*5QD450\r")
	}
	s := newTestServo(t, mock, 5)

	for i := 0; i < 2; i++ {
		deg, err := s.Position(context.Background())
		if err != nil {
			t.Fatalf("Position #%d: %v", i+1, err)
		}
		if deg != 45.0 {
			t.Errorf("Position #%d = %v, want 45.0", i+1, deg)
		}
	}
	if got := mock.writtenString(); got != "#5QD\r#5QD\r" {
		t.Errorf("wrote %q, want two identical queries", got)
	}
}

func TestServoTelemetry(t *testing.T) {
	// Replies arrive one per request, the way a polled bus behaves.
	replies := map[string]string{
		"#5QV\r": "*5QV11800\r",
		"#5QT\r": "*5QT364\r",
		"#5QC\r": "*5QC120\r",
		"#5Q\r":  "*5Q6\r",
	}
	mock := &mockTransport{}
	mock.onWrite = func(frame []byte) {
		if reply, ok := replies[string(frame)]; ok {
			mock.queueReply(reply)
		}
	}
	s := newTestServo(t, mock, 5)
	ctx := context.Background()

	mv, err := s.Voltage(ctx)
	if err != nil || mv != 11800 {
		t.Errorf("Voltage = %d, %v; want 11800", mv, err)
	}
	dc, err := s.Temperature(ctx)
	if err != nil || dc != 364 {
		t.Errorf("Temperature = %d, %v; want 364", dc, err)
	}
	ma, err := s.Current(ctx)
	if err != nil || ma != 120 {
		t.Errorf("Current = %d, %v; want 120", ma, err)
	}
	st, err := s.Status(ctx)
	if err != nil || st != StatusHolding {
		t.Errorf("Status = %v, %v; want HOLDING", st, err)
	}
}

func TestServoModel(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QMSLSS-HT1\r")
	s := newTestServo(t, mock, 5)

	model, err := s.Model(context.Background())
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if model != ModelHighTorque {
		t.Errorf("Model = %q, want %q", model, ModelHighTorque)
	}
}

func TestServoFirstPositionDisabled(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QFDDIS\r")
	s := newTestServo(t, mock, 5)

	_, enabled, err := s.FirstPosition(context.Background())
	if err != nil {
		t.Fatalf("FirstPosition: %v", err)
	}
	if enabled {
		t.Error("first position reported enabled for DIS reply")
	}
}

func TestServoFirstPositionEnabled(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QFD900\r")
	s := newTestServo(t, mock, 5)

	deg, enabled, err := s.FirstPosition(context.Background())
	if err != nil {
		t.Fatalf("FirstPosition: %v", err)
	}
	if !enabled || deg != 90.0 {
		t.Errorf("FirstPosition = %v, %v; want 90.0, enabled", deg, enabled)
	}
}

func TestServoScopedSetters(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, s *Servo) error
		want string
	}{
		{
			name: "session LED color",
			call: func(ctx context.Context, s *Servo) error {
				return s.SetLEDColor(ctx, LEDBlue, ScopeSession)
			},
			want: "#5LED3\r",
		},
		{
			name: "persistent LED color",
			call: func(ctx context.Context, s *Servo) error {
				return s.SetLEDColor(ctx, LEDBlue, ScopeConfig)
			},
			want: "#5CLED3\r",
		},
		{
			name: "session max speed scales to tenths",
			call: func(ctx context.Context, s *Servo) error {
				return s.SetMaxSpeed(ctx, 60.0, ScopeSession)
			},
			want: "#5SD600\r",
		},
		{
			name: "persistent origin offset",
			call: func(ctx context.Context, s *Servo) error {
				return s.SetOriginOffset(ctx, -15.3, ScopeConfig)
			},
			want: "#5CO-153\r",
		},
		{
			name: "persistent gyre direction",
			call: func(ctx context.Context, s *Servo) error {
				return s.SetGyre(ctx, GyreCounterClockwise, ScopeConfig)
			},
			want: "#5CG-1\r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTransport{}
			s := newTestServo(t, mock, 5)
			if err := tt.call(context.Background(), s); err != nil {
				t.Fatalf("setter: %v", err)
			}
			if got := mock.writtenString(); got != tt.want {
				t.Errorf("wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServoScopedQueries(t *testing.T) {
	mock := &mockTransport{}
	mock.queueReply("*5QSD600\r")
	s := newTestServo(t, mock, 5)

	speed, err := s.MaxSpeed(context.Background(), ScopeConfig)
	if err != nil {
		t.Fatalf("MaxSpeed: %v", err)
	}
	if speed != 60.0 {
		t.Errorf("MaxSpeed = %v, want 60.0", speed)
	}
	if got := mock.writtenString(); got != "#5QSD1\r" {
		t.Errorf("wrote %q, want %q", got, "#5QSD1\r")
	}
}

func TestServoSpeedScopeQueries(t *testing.T) {
	// The max-speed token doubles as a live reading through the extended
	// scope selectors: 2 reports the shaft speed, 3 the planned speed.
	replies := map[string]string{
		"#5QSD2\r": "*5QSD450\r",
		"#5QSD3\r": "*5QSD900\r",
	}
	mock := &mockTransport{}
	mock.onWrite = func(frame []byte) {
		if reply, ok := replies[string(frame)]; ok {
			mock.queueReply(reply)
		}
	}
	s := newTestServo(t, mock, 5)
	ctx := context.Background()

	inst, err := s.InstantaneousSpeed(ctx)
	if err != nil {
		t.Fatalf("InstantaneousSpeed: %v", err)
	}
	if inst != 45.0 {
		t.Errorf("InstantaneousSpeed = %v, want 45.0", inst)
	}

	target, err := s.TargetTravelSpeed(ctx)
	if err != nil {
		t.Fatalf("TargetTravelSpeed: %v", err)
	}
	if target != 90.0 {
		t.Errorf("TargetTravelSpeed = %v, want 90.0", target)
	}
}

func TestServoClearFirstPosition(t *testing.T) {
	mock := &mockTransport{}
	s := newTestServo(t, mock, 5)

	if err := s.ClearFirstPosition(context.Background()); err != nil {
		t.Fatalf("ClearFirstPosition: %v", err)
	}
	if got := mock.writtenString(); got != "#5CFD\r" {
		t.Errorf("wrote %q, want %q", got, "#5CFD\r")
	}
}

func TestServoConfigureIDValidates(t *testing.T) {
	mock := &mockTransport{}
	s := newTestServo(t, mock, 5)

	if err := s.ConfigureID(context.Background(), BroadcastID); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("error = %v, want ErrInvalidID", err)
	}
	if mock.writtenString() != "" {
		t.Error("bytes written for invalid target ID")
	}
}

func TestNewServoRejectsInvalidID(t *testing.T) {
	mock := &mockTransport{}
	ex := newTestExchanger(t, mock, 50*time.Millisecond)
	if _, err := NewServo(ex, 251); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("error = %v, want ErrInvalidID", err)
	}
}
