// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import "testing"

func TestModelName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{ModelHighTorque, "High Torque"},
		{ModelStandard, "Standard"},
		{ModelHighSpeed, "High Speed"},
		{"LSS-XX9", "LSS-XX9"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ModelName(tt.model); got != tt.want {
			t.Errorf("ModelName(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   int
		want bool
	}{
		{0, true},
		{250, true},
		{BroadcastID, true},
		{WildcardID, true},
		{251, false},
		{253, false},
		{-1, false},
		{256, false},
	}

	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
	if ValidUnicastID(BroadcastID) {
		t.Error("ValidUnicastID accepted the broadcast address")
	}
}
