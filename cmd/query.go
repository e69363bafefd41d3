// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillbotics/servolink/pkg/lss"
)

var queryPersistent bool

var queryCmd = &cobra.Command{
	Use:   "query [property]",
	Short: "Query servo telemetry and settings",
	Long: `Query one property of the servo selected by --id, or a full telemetry
summary when no property is given.

Properties:
  position, speed, instantaneous-speed, target-speed, voltage,
  temperature, current, status, model, serial, firmware, id, baud,
  first-position, origin, angular-range, max-speed, led, gyre,
  stiffness, holding-stiffness, acceleration, deceleration

For settings that exist in both session and persistent scope, --persistent
reads the value stored in flash instead of the live session value.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: queryProperties(),
	RunE:      runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolVar(&queryPersistent, "persistent", false, "Read the persistent (flash) value for scoped settings")
}

func queryProperties() []string {
	return []string{
		"position", "speed", "instantaneous-speed", "target-speed",
		"voltage", "temperature", "current", "status",
		"model", "serial", "firmware", "id", "baud", "first-position",
		"origin", "angular-range", "max-speed", "led", "gyre", "stiffness",
		"holding-stiffness", "acceleration", "deceleration",
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	servo, ex, _, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	ctx := context.Background()
	if len(args) == 0 {
		return querySummary(ctx, servo)
	}
	return queryOne(ctx, servo, args[0])
}

// querySummary prints the live telemetry set in one pass.
func querySummary(ctx context.Context, servo *lss.Servo) error {
	position, err := servo.Position(ctx)
	if err != nil {
		return err
	}
	speed, err := servo.Speed(ctx)
	if err != nil {
		return err
	}
	voltage, err := servo.Voltage(ctx)
	if err != nil {
		return err
	}
	temperature, err := servo.Temperature(ctx)
	if err != nil {
		return err
	}
	current, err := servo.Current(ctx)
	if err != nil {
		return err
	}
	status, err := servo.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Servo %d\n", servo.ID())
	fmt.Printf("  Status:      %s\n", status)
	fmt.Printf("  Position:    %+.1f°\n", position)
	fmt.Printf("  Speed:       %+.1f°/s\n", speed)
	fmt.Printf("  Voltage:     %.3f V\n", float64(voltage)/1000.0)
	fmt.Printf("  Temperature: %.1f °C\n", float64(temperature)/10.0)
	fmt.Printf("  Current:     %d mA\n", current)
	return nil
}

func queryOne(ctx context.Context, servo *lss.Servo, property string) error {
	scope := lss.ScopeSession
	if queryPersistent {
		scope = lss.ScopeConfig
	}

	switch property {
	case "position":
		v, err := servo.Position(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%+.1f°\n", v)
	case "speed":
		v, err := servo.Speed(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%+.1f°/s\n", v)
	case "instantaneous-speed":
		v, err := servo.InstantaneousSpeed(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%+.1f°/s\n", v)
	case "target-speed":
		v, err := servo.TargetTravelSpeed(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%+.1f°/s\n", v)
	case "voltage":
		v, err := servo.Voltage(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d mV\n", v)
	case "temperature":
		v, err := servo.Temperature(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%.1f °C\n", float64(v)/10.0)
	case "current":
		v, err := servo.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d mA\n", v)
	case "status":
		v, err := servo.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "model":
		v, err := servo.Model(ctx)
		if err != nil {
			return err
		}
		if name := lss.ModelName(v); name != v {
			fmt.Printf("%s (%s)\n", v, name)
		} else {
			fmt.Println(v)
		}
	case "serial":
		v, err := servo.SerialNumber(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "firmware":
		v, err := servo.FirmwareVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "id":
		// Confirms the address answering on the bus
		v, err := servo.QueryID(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "baud":
		v, err := servo.QueryBaud(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "first-position":
		deg, enabled, err := servo.FirstPosition(ctx)
		if err != nil {
			return err
		}
		if !enabled {
			fmt.Println("disabled")
			return nil
		}
		fmt.Printf("%+.1f°\n", deg)
	case "origin":
		v, err := servo.OriginOffset(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Printf("%+.1f°\n", v)
	case "angular-range":
		v, err := servo.AngularRange(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Printf("%.1f°\n", v)
	case "max-speed":
		v, err := servo.MaxSpeed(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Printf("%.1f°/s\n", v)
	case "led":
		v, err := servo.LEDColor(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "gyre":
		v, err := servo.Gyre(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "stiffness":
		v, err := servo.Stiffness(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "holding-stiffness":
		v, err := servo.HoldingStiffness(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "acceleration":
		v, err := servo.Acceleration(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Println(v)
	case "deceleration":
		v, err := servo.Deceleration(ctx, scope)
		if err != nil {
			return err
		}
		fmt.Println(v)
	default:
		return fmt.Errorf("unknown property %q (see servolink query --help)", property)
	}
	return nil
}
