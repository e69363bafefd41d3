// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillbotics/servolink/pkg/lss"
)

var replayStatsOnly bool

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Decode a recorded capture file",
	Long: `Decode a capture file written by monitor --record and display its
frames, byte-for-byte as they were seen on the bus.

With --stats, only the summary statistics are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayStatsOnly, "stats", false, "Print only summary statistics")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open capture file: %v", err)
	}
	defer f.Close()

	reader := lss.NewCaptureReader(f)
	decoder := lss.NewDecoder()
	stats := lss.NewStatistics()

	var records int
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read capture: %v", err)
		}
		records++

		for _, b := range rec.Raw {
			frame, decodeErr := decoder.DecodeByte(b)
			if frame == nil && decodeErr == nil {
				continue
			}
			stats.Update(frame, decodeErr)

			if replayStatsOnly {
				continue
			}
			if decodeErr != nil {
				fmt.Printf("[%s] \033[1;31mMALFORMED:\033[0m %v\n",
					rec.Timestamp.Format("15:04:05.000"), decodeErr)
				continue
			}
			fmt.Print(lss.FormatFrame(frame))
		}
	}

	fmt.Println()
	fmt.Printf("Capture: %d records\n", records)
	fmt.Print(stats.String())
	return nil
}
