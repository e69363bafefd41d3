// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Bus flags
	servoID    int
	replyWait  time.Duration
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "servolink",
	Short: "LSS Smart Servo Bus Tool",
	Long: `Servolink - A CLI tool for driving and monitoring LSS smart servo buses.

Provides typed commands for moving, querying, and configuring servos, plus
passive bus monitoring, capture replay, and a live telemetry dashboard.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the SERVOLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	PersistentPreRunE: setup,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Bus flags
	rootCmd.PersistentFlags().IntVarP(&servoID, "id", "i", 0, "Servo bus ID (0-250, 254 broadcast)")
	rootCmd.PersistentFlags().DurationVar(&replyWait, "timeout", 100*time.Millisecond, "Per-exchange reply timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Trace raw bus traffic to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/servolink.toml)")
}

// setup runs before every command: config file overlay, then logging.
func setup(cmd *cobra.Command, args []string) error {
	if err := applyFileConfig(cmd); err != nil {
		return err
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "servolink").Logger()
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	log.Logger = logger
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
