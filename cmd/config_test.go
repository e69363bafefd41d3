// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "servolink.toml")
	content := `
port = "/dev/ttyUSB0"
baud = 230400
url = "ws://bridge.local/bus"
username = "operator"
no_ssl_verify = true
id = 5
timeout_ms = 250
	`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, meta, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "/dev/ttyUSB0" {
		t.Fatalf("unexpected port: %q", cfg.Port)
	}
	if cfg.Baud != 230400 {
		t.Fatalf("unexpected baud: %d", cfg.Baud)
	}
	if cfg.URL != "ws://bridge.local/bus" {
		t.Fatalf("unexpected url: %q", cfg.URL)
	}
	if cfg.Username != "operator" {
		t.Fatalf("unexpected username: %q", cfg.Username)
	}
	if !cfg.NoSSLVerify {
		t.Fatalf("expected no_ssl_verify set")
	}
	if cfg.ID != 5 {
		t.Fatalf("unexpected id: %d", cfg.ID)
	}
	if cfg.TimeoutMS != 250 {
		t.Fatalf("unexpected timeout: %d", cfg.TimeoutMS)
	}
	if !meta.IsDefined("port") {
		t.Fatalf("expected port defined in metadata")
	}
	if meta.IsDefined("gyre") {
		t.Fatalf("unexpected key reported defined")
	}
}

func TestLoadFileConfigPartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servolink.toml")
	if err := os.WriteFile(path, []byte(`port = "/dev/ttyACM1"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, meta, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "/dev/ttyACM1" {
		t.Fatalf("unexpected port: %q", cfg.Port)
	}
	// Absent keys stay at zero and report undefined, so the overlay can
	// leave flag defaults alone.
	if meta.IsDefined("baud") || meta.IsDefined("timeout_ms") {
		t.Fatalf("absent keys reported defined")
	}
}

func TestLoadFileConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"zero timeout", `timeout_ms = 0`},
		{"negative baud", `baud = -9600`},
		{"malformed toml", `port = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, err := loadFileConfig(path); err == nil {
				t.Fatalf("expected error for %q", tt.content)
			}
		})
	}
}
