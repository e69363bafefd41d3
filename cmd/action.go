// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var wheelRPM bool

var limpCmd = &cobra.Command{
	Use:   "limp",
	Short: "Release holding torque on a servo",
	Long: `Make the servo go limp: holding torque is released and the output
shaft can be moved by hand. Use --id 254 to limp every servo on the bus.`,
	Args: cobra.NoArgs,
	RunE: runLimp,
}

var holdCmd = &cobra.Command{
	Use:   "hold",
	Short: "Hold the servo at its current position",
	Args:  cobra.NoArgs,
	RunE:  runHold,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Soft-reset a servo",
	Long: `Soft-reset the servo selected by --id. The servo reboots and reloads
its persistent configuration; session values are lost. The servo does not
answer on the bus while rebooting.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var wheelCmd = &cobra.Command{
	Use:   "wheel <speed>",
	Short: "Spin a servo in continuous rotation",
	Long: `Put the servo in wheel mode, spinning continuously at the given
speed in degrees per second (fractional allowed). Negative speed reverses
direction. With --rpm, speed is given in whole RPM instead.

A wheel speed of 0 stops the rotation.`,
	Args: cobra.ExactArgs(1),
	RunE: runWheel,
}

func init() {
	rootCmd.AddCommand(limpCmd)
	rootCmd.AddCommand(holdCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(wheelCmd)
	wheelCmd.Flags().BoolVar(&wheelRPM, "rpm", false, "Interpret speed as RPM")
}

func runLimp(cmd *cobra.Command, args []string) error {
	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.Limp(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: limp\n", servo.ID())
	return nil
}

func runHold(cmd *cobra.Command, args []string) error {
	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.Hold(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: holding\n", servo.ID())
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.Reset(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: reset issued\n", servo.ID())
	return nil
}

func runWheel(cmd *cobra.Command, args []string) error {
	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	ctx := context.Background()
	if wheelRPM {
		rpm, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid RPM %q: %v", args[0], err)
		}
		if err := servo.WheelRPM(ctx, rpm); err != nil {
			return err
		}
		fmt.Printf("Servo %d: wheel %d RPM\n", servo.ID(), rpm)
		return nil
	}

	speed, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid speed %q: %v", args[0], err)
	}
	if err := servo.Wheel(ctx, speed); err != nil {
		return err
	}
	fmt.Printf("Servo %d: wheel %+.1f°/s\n", servo.ID(), speed)
	return nil
}
