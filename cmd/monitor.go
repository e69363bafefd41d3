// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quillbotics/servolink/pkg/lss"
)

var (
	monitorErrorsOnly   bool
	monitorStatsEvery   int
	monitorRecordPath   string
	monitorReadInterval = 500 * time.Millisecond
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Passively decode and display bus traffic",
	Long: `Continuously decode and display bus frames as they arrive.

Each frame is shown with timestamp, direction, servo address, command name,
and decoded value. Malformed frames are highlighted. Periodic statistics
summaries are printed at a configurable interval.

With --record, the raw byte spans are additionally written to a capture
file that can be decoded offline with the replay command.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorErrorsOnly, "errors-only", false, "Show only malformed frames")
	monitorCmd.Flags().IntVar(&monitorStatsEvery, "stats-interval", 10, "Statistics update interval in seconds (0 disables)")
	monitorCmd.Flags().StringVar(&monitorRecordPath, "record", "", "Write raw traffic to a capture file")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	transport, connInfo, err := OpenTransport()
	if err != nil {
		return err
	}
	defer transport.Close()

	var capture *lss.CaptureWriter
	if monitorRecordPath != "" {
		f, err := os.Create(monitorRecordPath)
		if err != nil {
			return fmt.Errorf("create capture file: %v", err)
		}
		defer f.Close()
		capture = lss.NewCaptureWriter(f)
	}

	fmt.Printf("Servolink - Bus Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if monitorRecordPath != "" {
		fmt.Printf("Recording to: %s\n", monitorRecordPath)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := lss.NewDecoder()
	stats := lss.NewStatistics()
	buf := make([]byte, 128)

	var statsTick <-chan time.Time
	if monitorStatsEvery > 0 {
		ticker := time.NewTicker(time.Duration(monitorStatsEvery) * time.Second)
		defer ticker.Stop()
		statsTick = ticker.C
	}

	// Channel for non-blocking transport reads
	spans := make(chan []byte, 10)
	readErr := make(chan error, 1)
	go func() {
		for {
			if err := transport.SetReadTimeout(monitorReadInterval); err != nil {
				readErr <- err
				return
			}
			n, err := transport.Read(buf)
			if err != nil {
				readErr <- err
				return
			}
			if n == 0 {
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			spans <- data
		}
	}()

	for {
		select {
		case data := <-spans:
			if capture != nil {
				if err := capture.Write(data); err != nil {
					log.Warn().Err(err).Msg("capture write failed")
					capture = nil
				}
			}

			for _, b := range data {
				frame, decodeErr := decoder.DecodeByte(b)
				if frame == nil && decodeErr == nil {
					continue
				}
				stats.Update(frame, decodeErr)

				if decodeErr != nil {
					timestamp := time.Now().Format("15:04:05.000")
					fmt.Printf("[%s] \033[1;31mMALFORMED:\033[0m %v\n", timestamp, decodeErr)
					continue
				}
				if !monitorErrorsOnly {
					fmt.Print(lss.FormatFrame(frame))
				}
			}

		case err := <-readErr:
			if err == ErrConnectionClosed {
				log.Info().Msg("connection closed")
				return nil
			}
			return fmt.Errorf("read error: %v", err)

		case <-statsTick:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
