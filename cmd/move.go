// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quillbotics/servolink/pkg/lss"
)

var (
	moveRelative bool
	moveTimeMS   int64
	moveSpeed    int64
	moveStrict   bool
)

var moveCmd = &cobra.Command{
	Use:   "move <degrees>",
	Short: "Move a servo to an absolute or relative position",
	Long: `Command a position move on the servo selected by --id.

Positions are given in degrees and may be fractional; the servo resolves
tenths of a degree. Targets outside the travel range are clamped to the
nearest bound unless --strict is set, in which case they are rejected.

Examples:
  servolink -p /dev/ttyUSB0 -i 5 move 45.0
  servolink -p /dev/ttyUSB0 -i 5 move -- -90.0 --time 2500
  servolink -p /dev/ttyUSB0 -i 5 move 10.5 --relative --speed 600`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().BoolVar(&moveRelative, "relative", false, "Move relative to the current position")
	moveCmd.Flags().Int64Var(&moveTimeMS, "time", 0, "Complete the move in this many milliseconds")
	moveCmd.Flags().Int64Var(&moveSpeed, "speed", 0, "Limit the move speed (tenths of a degree per second)")
	moveCmd.Flags().BoolVar(&moveStrict, "strict", false, "Reject targets outside the travel range instead of clamping")
}

func runMove(cmd *cobra.Command, args []string) error {
	degrees, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid position %q: %v", args[0], err)
	}

	servo, ex, connInfo, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	var mods []lss.Modifier
	if moveTimeMS > 0 {
		mods = append(mods, lss.TimedMove(moveTimeMS))
	}
	if moveSpeed > 0 {
		mods = append(mods, lss.SpeedLimit(moveSpeed))
	}
	if moveStrict {
		servo.SetClampPolicy(lss.RejectOutOfRange)
	}

	ctx := context.Background()
	if moveRelative {
		err = servo.MoveBy(ctx, degrees, mods...)
	} else {
		err = servo.MoveTo(ctx, degrees, mods...)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Servo %d: move %+.1f° (%s)\n", servo.ID(), degrees, connInfo)
	return nil
}
