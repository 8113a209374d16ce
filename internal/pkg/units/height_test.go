package units_test

import (
	"math"
	"testing"

	"github.com/samirrijal/dropspots/internal/pkg/units"
)

func ptr(f float64) *float64 { return &f }

func TestDisplayHeight(t *testing.T) {
	tests := []struct {
		name   string
		height *float64
		metric bool
		want   string
	}{
		{"imperial", ptr(100), false, "100 ft"},
		{"imperial keeps fraction", ptr(32.5), false, "32.5 ft"},
		{"metric rounds", ptr(100), true, "30 meters"},
		{"metric rounds up", ptr(50), true, "15 meters"},
		{"zero is no data", ptr(0), true, "?"},
		{"zero is no data imperial", ptr(0), false, "?"},
		{"nil", nil, false, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := units.DisplayHeight(tt.height, tt.metric); got != tt.want {
				t.Errorf("DisplayHeight = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToFeet(t *testing.T) {
	if got := units.ToFeet(10, true); got != 33 {
		t.Errorf("ToFeet(10, metric) = %d, want 33", got)
	}
	if got := units.ToFeet(33, false); got != 33 {
		t.Errorf("ToFeet(33, imperial) = %d, want 33", got)
	}
	if got := units.ToFeet(32.6, false); got != 33 {
		t.Errorf("ToFeet(32.6, imperial) = %d, want 33", got)
	}
}

func TestToFeetOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		metric bool
		want   int
	}{
		{"negative half", -2.5, false, 0},
		{"negative metric", -10, true, 0},
		{"nan", math.NaN(), false, 0},
		{"huge", 1e30, false, units.MaxFeet},
		{"inf metric", math.Inf(1), true, units.MaxFeet},
		{"half rounds up", 2.5, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := units.ToFeet(tt.value, tt.metric); got != tt.want {
				t.Errorf("ToFeet(%v, %v) = %d, want %d", tt.value, tt.metric, got, tt.want)
			}
		})
	}
	if got := units.MetersFromFeet(-5); got != 0 {
		t.Errorf("MetersFromFeet(-5) = %d, want 0", got)
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	inexact := 0
	for ft := 1; ft <= 1000; ft++ {
		back := units.ToFeet(float64(units.MetersFromFeet(float64(ft))), true)
		diff := back - ft
		if diff < 0 {
			diff = -diff
		}
		if diff > 2 {
			t.Fatalf("%d ft round-tripped to %d ft, beyond 2 ft tolerance", ft, back)
		}
		if diff != 0 {
			inexact++
		}
	}
	if inexact == 0 {
		t.Error("expected some heights to change across a metric round trip")
	}

	// 100 ft -> 30 m -> 98 ft
	if back := units.ToFeet(float64(units.MetersFromFeet(100)), true); back != 98 {
		t.Errorf("expected 100 ft to come back as 98 ft, got %d", back)
	}
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]units.Unit{"ft": units.Feet, "M": units.Meters, " meters ": units.Meters, "feet": units.Feet} {
		got, err := units.ParseUnit(in)
		if err != nil || got != want {
			t.Errorf("ParseUnit(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := units.ParseUnit("yards"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
