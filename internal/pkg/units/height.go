// Package units converts jump heights between the stored unit (feet) and
// the unit a user reads or types in.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	metersPerFoot = 0.3048
	// FeetPerMeter is the factor used when normalising metric input.
	FeetPerMeter = 3.28084
)

// Unit is a height unit.
type Unit string

const (
	Feet   Unit = "feet"
	Meters Unit = "meters"
)

// ParseUnit accepts the short and long spellings of a unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ft", "feet", "foot", "imperial":
		return Feet, nil
	case "m", "meters", "metres", "meter", "metre", "metric":
		return Meters, nil
	default:
		return "", fmt.Errorf("unknown unit %q", s)
	}
}

// Metric reports whether u is the metric unit.
func (u Unit) Metric() bool { return u == Meters }

// DisplayHeight renders a stored height for the given unit preference.
// A nil or zero height renders as "?": zero is indistinguishable from
// "no data" in stored records.
func DisplayHeight(heightFeet *float64, metric bool) string {
	if heightFeet == nil || *heightFeet == 0 {
		return "?"
	}
	if metric {
		return fmt.Sprintf("%d meters", MetersFromFeet(*heightFeet))
	}
	return strconv.FormatFloat(*heightFeet, 'f', -1, 64) + " ft"
}

// MaxFeet bounds the heights ToFeet will produce.
const MaxFeet = math.MaxInt32

// MetersFromFeet is the rounded meter value DisplayHeight shows. Heights are
// never negative, so a negative or NaN input yields 0.
func MetersFromFeet(ft float64) int {
	return roundHeight(ft * metersPerFoot)
}

// ToFeet normalises user input to whole feet for storage.
// It is not an exact inverse of DisplayHeight, each direction rounds on its own.
// Negative and NaN input yields 0 and anything above MaxFeet saturates.
func ToFeet(value float64, metric bool) int {
	if metric {
		value *= FeetPerMeter
	}
	return roundHeight(value)
}

// roundHeight rounds half up on the non-negative range it accepts.
func roundHeight(v float64) int {
	if !(v > 0) {
		return 0
	}
	if v >= MaxFeet {
		return MaxFeet
	}
	return int(math.Round(v))
}
