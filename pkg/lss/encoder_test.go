// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"errors"
	"testing"
)

func i64(v int64) *int64 {
	return &v
}

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
		want string
	}{
		{
			name: "absolute move to 45 degrees",
			req:  NewValueRequest(5, CmdMove, 450),
			want: "#5D450\r",
		},
		{
			name: "negative move",
			req:  NewValueRequest(5, CmdMove, -1800),
			want: "#5D-1800\r",
		},
		{
			name: "position query has no parameter",
			req:  NewRequest(3, CmdQueryPosition),
			want: "#3QD\r",
		},
		{
			name: "timed move modifier",
			req:  &Request{ID: 5, Command: CmdMove, Value: i64(450), Modifiers: []Modifier{TimedMove(2500)}},
			want: "#5D450T2500\r",
		},
		{
			name: "speed and time modifiers stack",
			req:  &Request{ID: 5, Command: CmdMoveRelative, Value: i64(-100), Modifiers: []Modifier{TimedMove(1500), SpeedLimit(300)}},
			want: "#5MD-100T1500S300\r",
		},
		{
			name: "broadcast limp",
			req:  NewRequest(BroadcastID, CmdLimp),
			want: "#254L\r",
		},
		{
			name: "config LED color",
			req:  NewValueRequest(10, CmdConfigLEDColor, int64(LEDBlue)),
			want: "#10CLED3\r",
		},
		{
			name: "scoped query carries scope selector",
			req:  NewValueRequest(7, CmdQueryMaxSpeed, int64(ScopeConfig)),
			want: "#7QSD1\r",
		},
		{
			name: "clear first position omits value",
			req:  NewRequest(2, CmdConfigFirstPosition),
			want: "#2CFD\r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeRequest(tt.req)
			if err != nil {
				t.Fatalf("EncodeRequest: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeRequest = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{
			name:    "invalid ID",
			req:     NewRequest(251, CmdQueryPosition),
			wantErr: ErrInvalidID,
		},
		{
			name:    "negative ID",
			req:     NewRequest(-1, CmdQueryPosition),
			wantErr: ErrInvalidID,
		},
		{
			name:    "unregistered command",
			req:     NewRequest(5, Command("ZZ")),
			wantErr: ErrUnregisteredCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeRequest(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EncodeRequest error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("value on bare command", func(t *testing.T) {
		if _, err := EncodeRequest(NewValueRequest(5, CmdLimp, 1)); err == nil {
			t.Error("expected error for value on parameterless command")
		}
	})

	t.Run("modifiers on non-motion command", func(t *testing.T) {
		req := &Request{ID: 5, Command: CmdWheel, Value: i64(100), Modifiers: []Modifier{TimedMove(100)}}
		if _, err := EncodeRequest(req); err == nil {
			t.Error("expected error for modifiers on non-modifier command")
		}
	})
}

func TestMustEncodeRequestPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered command")
		}
	}()
	MustEncodeRequest(NewRequest(5, Command("NOPE")))
}
