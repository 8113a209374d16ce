package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samirrijal/dropspots/internal/client"
	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/pkg/geospatial"
	"github.com/samirrijal/dropspots/internal/pkg/units"
)

var (
	nearbyAt     string
	nearbyRadius float64
	nearbyLimit  int

	submitName   string
	submitDesc   string
	submitCoords string
	submitHeight float64
	submitUnit   string

	deviceToken    string
	devicePlatform string
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List approved spots around a point",
	Long: `List approved spots within --radius meters of --near, nearest first.

--near takes the same free text as the app, e.g. "43.2630, -2.9350" or
"(43.2630°, -2.9350°)". Use a minus sign for south and west.`,
	RunE: runNearby,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one spot",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Propose a new spot for review",
	RunE:  runSubmit,
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage push notification devices",
}

var deviceRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a push token for review notifications",
	RunE:  runDeviceRegister,
}

func init() {
	nearbyCmd.Flags().StringVar(&nearbyAt, "near", "", "center point as free text coordinates")
	nearbyCmd.Flags().Float64Var(&nearbyRadius, "radius", 5000, "search radius in meters")
	nearbyCmd.Flags().IntVar(&nearbyLimit, "limit", 20, "maximum number of spots")
	_ = nearbyCmd.MarkFlagRequired("near")

	submitCmd.Flags().StringVar(&submitName, "name", "", "spot name")
	submitCmd.Flags().StringVar(&submitDesc, "description", "", "optional description")
	submitCmd.Flags().StringVar(&submitCoords, "coords", "", "location as free text coordinates")
	submitCmd.Flags().Float64Var(&submitHeight, "height", 0, "drop height, 0 if unknown")
	submitCmd.Flags().StringVar(&submitUnit, "unit", "", "unit of --height (default: your display units)")
	_ = submitCmd.MarkFlagRequired("name")
	_ = submitCmd.MarkFlagRequired("coords")

	deviceRegisterCmd.Flags().StringVar(&deviceToken, "token", "", "push token")
	deviceRegisterCmd.Flags().StringVar(&devicePlatform, "platform", "", "ios, android or web")
	_ = deviceRegisterCmd.MarkFlagRequired("token")
	deviceCmd.AddCommand(deviceRegisterCmd)

	rootCmd.AddCommand(nearbyCmd, showCmd, submitCmd, deviceCmd)
}

func runNearby(cmd *cobra.Command, args []string) error {
	center, err := geospatial.ParseCoordinates(nearbyAt)
	if err != nil {
		return fmt.Errorf("--near: %w", err)
	}

	spots, err := current.spots.Nearby(cmd.Context(), center, nearbyRadius, nearbyLimit)
	if err != nil {
		return err
	}
	if len(spots) == 0 {
		fmt.Fprintln(current.out, "No spots found.")
		return nil
	}
	for _, s := range spots {
		fmt.Fprintf(current.out, "%-36s  %-24s  %8s  %s\n",
			s.ID, s.Name, formatDistance(geospatial.Distance(center, s.Location), current.cfg.Metric), height(s))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	spot, err := current.spots.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printSpot(current.out, spot)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	unit := submitUnit
	if unit == "" {
		unit = string(units.Feet)
		if current.cfg.Metric {
			unit = string(units.Meters)
		}
	}
	if _, err := units.ParseUnit(unit); err != nil {
		return fmt.Errorf("--unit: %w", err)
	}
	// Catch typos before spending a round trip.
	if _, err := geospatial.ParseCoordinates(submitCoords); err != nil {
		return fmt.Errorf("--coords: %w", err)
	}

	spot, err := current.spots.Submit(cmd.Context(), client.SubmitSpot{
		Name:        submitName,
		Description: submitDesc,
		Coordinates: submitCoords,
		Height:      submitHeight,
		Unit:        unit,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(current.out, "Submitted %q for review (id %s).\n", spot.Name, spot.ID)
	return nil
}

func runDeviceRegister(cmd *cobra.Command, args []string) error {
	if err := current.spots.RegisterDevice(cmd.Context(), deviceToken, devicePlatform); err != nil {
		return err
	}
	fmt.Fprintln(current.out, "Device registered.")
	return nil
}

func printSpot(w io.Writer, s *domain.Spot) {
	fmt.Fprintf(w, "%s\n", s.Name)
	fmt.Fprintf(w, "  id:       %s\n", s.ID)
	fmt.Fprintf(w, "  location: %.5f, %.5f\n", s.Location.Lat, s.Location.Lon)
	fmt.Fprintf(w, "  height:   %s\n", height(*s))
	fmt.Fprintf(w, "  status:   %s\n", s.Status)
	if s.Description != "" {
		fmt.Fprintf(w, "  %s\n", s.Description)
	}
}

// height renders in the user's units regardless of what the server sent.
func height(s domain.Spot) string {
	return units.DisplayHeight(&s.HeightFeet, current.cfg.Metric)
}

func formatDistance(meters float64, metric bool) string {
	if metric {
		if meters >= 1000 {
			return fmt.Sprintf("%.1f km", meters/1000)
		}
		return fmt.Sprintf("%.0f m", meters)
	}
	miles := meters / 1609.344
	if miles >= 0.1 {
		return fmt.Sprintf("%.1f mi", miles)
	}
	return fmt.Sprintf("%.0f ft", meters*3.28084)
}
