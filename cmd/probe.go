// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillbotics/servolink/pkg/lss"
)

var probeWait int

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connection by polling for a valid servo reply",
	Long: `Poll the servo selected by --id until a valid reply frame arrives or
the wait expires. The bus is silent unless spoken to, so the probe sends a
status query twice a second and ignores invalid bytes while waiting.

Exit codes:
  0 - Valid reply received before the wait expired
  1 - Wait expired without a valid reply
  2 - Connection error

Useful for testing connectivity to a bus or WebSocket bridge.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeWait, "wait", 10, "Seconds to wait for a valid reply")
}

func runProbe(cmd *cobra.Command, args []string) error {
	transport, connInfo, err := OpenTransport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer transport.Close()

	fmt.Printf("Servolink - Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Wait: %d seconds\n", probeWait)
	fmt.Printf("Polling servo %d...\n\n", servoID)

	query, err := lss.EncodeCommand(servoID, lss.CmdQueryStatus, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid probe target: %v\n", err)
		os.Exit(2)
	}

	decoder := lss.NewDecoder()
	buf := make([]byte, 128)

	// Channels for reply reception
	frameChan := make(chan *lss.Frame, 1)
	errChan := make(chan error, 1)

	// Reader goroutine: counts noise, reports the first valid reply frame
	go func() {
		invalidBytes := 0
		for {
			if err := transport.SetReadTimeout(100 * time.Millisecond); err != nil {
				errChan <- err
				return
			}
			n, err := transport.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				frame, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					invalidBytes++
					continue
				}
				if frame != nil && frame.Kind == lss.KindReply {
					if invalidBytes > 0 {
						fmt.Printf("(skipped %d invalid bytes before sync)\n", invalidBytes)
					}
					frameChan <- frame
					return
				}
			}
		}
	}()

	// Poll until a reply arrives or the deadline passes
	deadline := time.After(time.Duration(probeWait) * time.Second)
	poll := time.NewTicker(500 * time.Millisecond)
	defer poll.Stop()

	if _, err := transport.Write(query); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		os.Exit(2)
	}

	for {
		select {
		case frame := <-frameChan:
			fmt.Printf("SUCCESS: Received valid reply\n")
			fmt.Printf("  Servo:   %d\n", frame.ID)
			fmt.Printf("  Command: %s (%s)\n", lss.CommandName(frame.Command), frame.Command)
			if frame.HasValue {
				fmt.Printf("  Value:   %d\n", frame.Value)
			}
			os.Exit(0)

		case err := <-errChan:
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			os.Exit(2)

		case <-poll.C:
			if _, err := transport.Write(query); err != nil {
				fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
				os.Exit(2)
			}

		case <-deadline:
			fmt.Fprintf(os.Stderr, "TIMEOUT: No valid reply within %d seconds\n", probeWait)
			os.Exit(1)
		}
	}
}
