// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillbotics/servolink/pkg/lss"
)

var (
	configureSession bool
	firstPosClear    bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Change servo settings",
	Long: `Change settings on the servo selected by --id.

By default changes are written to flash and survive a reset. For settings
that also exist in session scope, --session applies the change to the
running session only.

Identity settings (id, baud, mode) are always persistent and take effect
after the next reset or power cycle.`,
}

var configureIDCmd = &cobra.Command{
	Use:   "id <new-id>",
	Short: "Assign a new bus address",
	Long: `Write a new bus address to the servo. The change takes effect after
the next reset. Assigning duplicate addresses on a shared bus causes reply
collisions; address each servo individually when renumbering.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureID,
}

var configureBaudCmd = &cobra.Command{
	Use:   "baud <rate>",
	Short: "Set the servo's baud rate",
	Long: `Write a new baud rate to the servo. The current session keeps the old
rate; the new rate applies after the next reset. Remember to pass the
matching --baud on subsequent invocations.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureBaud,
}

var configureLEDCmd = &cobra.Command{
	Use:   "led <color>",
	Short: "Set the servo's LED color",
	Long: `Set the RGB LED color. Colors: black, red, green, blue, yellow,
cyan, magenta, white.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureLED,
}

var configureGyreCmd = &cobra.Command{
	Use:   "gyre <cw|ccw>",
	Short: "Set the rotation convention",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureGyre,
}

var configureOriginCmd = &cobra.Command{
	Use:   "origin <degrees>",
	Short: "Set the origin offset",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureOrigin,
}

var configureAngularRangeCmd = &cobra.Command{
	Use:   "angular-range <degrees>",
	Short: "Set the allowed range of travel",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureAngularRange,
}

var configureMaxSpeedCmd = &cobra.Command{
	Use:   "max-speed <degrees-per-second>",
	Short: "Set the maximum speed",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureMaxSpeed,
}

var configureFirstPositionCmd = &cobra.Command{
	Use:   "first-position [degrees]",
	Short: "Set or clear the power-on position",
	Long: `Set the position the servo assumes on power-up. With --clear, the
first position is disabled and the servo powers up limp.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureFirstPosition,
}

var configureModeCmd = &cobra.Command{
	Use:   "mode <serial|rc-position|rc-wheel>",
	Short: "Set the operating mode",
	Long: `Switch the servo between serial bus control and the RC PWM modes.
A servo in an RC mode stops answering on the serial bus; recovering it
requires the button-hold reset procedure described by the vendor.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureMode,
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.AddCommand(configureIDCmd)
	configureCmd.AddCommand(configureBaudCmd)
	configureCmd.AddCommand(configureLEDCmd)
	configureCmd.AddCommand(configureGyreCmd)
	configureCmd.AddCommand(configureOriginCmd)
	configureCmd.AddCommand(configureAngularRangeCmd)
	configureCmd.AddCommand(configureMaxSpeedCmd)
	configureCmd.AddCommand(configureFirstPositionCmd)
	configureCmd.AddCommand(configureModeCmd)

	configureCmd.PersistentFlags().BoolVar(&configureSession, "session", false, "Apply to the running session only (where supported)")
	configureFirstPositionCmd.Flags().BoolVar(&firstPosClear, "clear", false, "Disable the first position")
}

func configureScope() lss.Scope {
	if configureSession {
		return lss.ScopeSession
	}
	return lss.ScopeConfig
}

func runConfigureID(cmd *cobra.Command, args []string) error {
	newID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid id %q: %v", args[0], err)
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.ConfigureID(context.Background(), newID); err != nil {
		return err
	}
	fmt.Printf("Servo %d: address %d written, effective after reset\n", servo.ID(), newID)
	return nil
}

func runConfigureBaud(cmd *cobra.Command, args []string) error {
	rate, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid baud rate %q: %v", args[0], err)
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.ConfigureBaud(context.Background(), rate); err != nil {
		return err
	}
	fmt.Printf("Servo %d: baud %d written, effective after reset\n", servo.ID(), rate)
	return nil
}

func parseLEDColor(s string) (lss.LEDColor, error) {
	colors := map[string]lss.LEDColor{
		"black":   lss.LEDBlack,
		"red":     lss.LEDRed,
		"green":   lss.LEDGreen,
		"blue":    lss.LEDBlue,
		"yellow":  lss.LEDYellow,
		"cyan":    lss.LEDCyan,
		"magenta": lss.LEDMagenta,
		"white":   lss.LEDWhite,
	}
	color, ok := colors[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown color %q", s)
	}
	return color, nil
}

func runConfigureLED(cmd *cobra.Command, args []string) error {
	color, err := parseLEDColor(args[0])
	if err != nil {
		return err
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.SetLEDColor(context.Background(), color, configureScope()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: LED %s\n", servo.ID(), color)
	return nil
}

func runConfigureGyre(cmd *cobra.Command, args []string) error {
	var gyre lss.GyreDirection
	switch strings.ToLower(args[0]) {
	case "cw":
		gyre = lss.GyreClockwise
	case "ccw":
		gyre = lss.GyreCounterClockwise
	default:
		return fmt.Errorf("invalid gyre %q (use cw or ccw)", args[0])
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.SetGyre(context.Background(), gyre, configureScope()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: gyre %s\n", servo.ID(), gyre)
	return nil
}

func runConfigureOrigin(cmd *cobra.Command, args []string) error {
	degrees, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %v", args[0], err)
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.SetOriginOffset(context.Background(), degrees, configureScope()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: origin offset %+.1f°\n", servo.ID(), degrees)
	return nil
}

func runConfigureAngularRange(cmd *cobra.Command, args []string) error {
	degrees, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid range %q: %v", args[0], err)
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.SetAngularRange(context.Background(), degrees, configureScope()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: angular range %.1f°\n", servo.ID(), degrees)
	return nil
}

func runConfigureMaxSpeed(cmd *cobra.Command, args []string) error {
	speed, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid speed %q: %v", args[0], err)
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.SetMaxSpeed(context.Background(), speed, configureScope()); err != nil {
		return err
	}
	fmt.Printf("Servo %d: max speed %.1f°/s\n", servo.ID(), speed)
	return nil
}

func runConfigureFirstPosition(cmd *cobra.Command, args []string) error {
	if firstPosClear && len(args) > 0 {
		return fmt.Errorf("--clear takes no position argument")
	}
	if !firstPosClear && len(args) == 0 {
		return fmt.Errorf("position argument required (or --clear)")
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	ctx := context.Background()
	if firstPosClear {
		if err := servo.ClearFirstPosition(ctx); err != nil {
			return err
		}
		fmt.Printf("Servo %d: first position disabled\n", servo.ID())
		return nil
	}

	degrees, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid position %q: %v", args[0], err)
	}
	if err := servo.SetFirstPosition(ctx, degrees); err != nil {
		return err
	}
	fmt.Printf("Servo %d: first position %+.1f°\n", servo.ID(), degrees)
	return nil
}

func runConfigureMode(cmd *cobra.Command, args []string) error {
	var mode lss.OperatingMode
	switch strings.ToLower(args[0]) {
	case "serial":
		mode = lss.ModeSerial
	case "rc-position":
		mode = lss.ModePositionRC
	case "rc-wheel":
		mode = lss.ModeWheelRC
	default:
		return fmt.Errorf("invalid mode %q (use serial, rc-position, or rc-wheel)", args[0])
	}

	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	if err := servo.SetMode(context.Background(), mode); err != nil {
		return err
	}
	fmt.Printf("Servo %d: mode written, effective after reset\n", servo.ID())
	return nil
}
