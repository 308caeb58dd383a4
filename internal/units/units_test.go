package units

import (
	"math"
	"testing"
)

func TestSpeedConversions(t *testing.T) {
	if got := KmhToMps(36); got != 10 {
		t.Fatalf("KmhToMps(36) = %v, want 10", got)
	}
	if got := MpsToKmh(10); got != 36 {
		t.Fatalf("MpsToKmh(10) = %v, want 36", got)
	}
	if got := ConvertSpeed(10, KMH); got != 36 {
		t.Fatalf("ConvertSpeed(10, kmh) = %v, want 36", got)
	}
	if got := ConvertSpeed(10, MPH); math.Abs(got-22.369362920544) > 1e-9 {
		t.Fatalf("ConvertSpeed(10, mph) = %v", got)
	}
	if got := ConvertSpeed(10, "furlongs"); got != 10 {
		t.Fatalf("unknown unit should pass through m/s, got %v", got)
	}
}

func TestIsValidSpeedUnit(t *testing.T) {
	for _, u := range ValidSpeedUnits {
		if !IsValidSpeedUnit(u) {
			t.Errorf("%q should be valid", u)
		}
	}
	if IsValidSpeedUnit("knots") {
		t.Error("knots is not an accepted unit")
	}
}

func TestLengthConversions(t *testing.T) {
	if got := CmToM(250); got != 2.5 {
		t.Fatalf("CmToM(250) = %v, want 2.5", got)
	}
	if got := MToCm(2.5); got != 250 {
		t.Fatalf("MToCm(2.5) = %v, want 250", got)
	}
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-720, 0},
		{359.5, 359.5},
	}
	for _, tt := range tests {
		if got := NormalizeHeading(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAngleConversions(t *testing.T) {
	if got := DegToRad(180); math.Abs(got-math.Pi) > 1e-15 {
		t.Fatalf("DegToRad(180) = %v", got)
	}
	if got := RadToDeg(math.Pi / 2); math.Abs(got-90) > 1e-12 {
		t.Fatalf("RadToDeg(pi/2) = %v", got)
	}
}
