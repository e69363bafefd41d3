// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics
//
// Servolink - LSS Smart Servo Bus Tool
//
// A CLI tool for driving, monitoring, and configuring LSS smart servo
// buses over serial or a WebSocket bridge.

package main

import (
	"os"

	"github.com/quillbotics/servolink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
