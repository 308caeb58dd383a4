// Package units provides shared unit conversions for the guidance
// pipeline. GPS speed arrives in km/h, boom heights are handled in
// centimetres, and the local frame works in metres.
package units

import "math"

// Speed unit constants
const (
	MPS = "mps"
	KMH = "kmh"
	MPH = "mph"
)

// ValidSpeedUnits contains all valid speed unit values
var ValidSpeedUnits = []string{MPS, KMH, MPH}

// IsValidSpeedUnit checks if the given unit is in the list of valid units
func IsValidSpeedUnit(unit string) bool {
	for _, valid := range ValidSpeedUnits {
		if unit == valid {
			return true
		}
	}
	return false
}

// KmhToMps converts kilometres per hour to metres per second.
func KmhToMps(kmh float64) float64 {
	return kmh / 3.6
}

// MpsToKmh converts metres per second to kilometres per hour.
func MpsToKmh(mps float64) float64 {
	return mps * 3.6
}

// ConvertSpeed converts a speed from metres per second to the target
// units. Telemetry stores speeds in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case KMH:
		return speedMPS * 3.6
	case MPH:
		return speedMPS * 2.2369362920544
	default:
		return speedMPS
	}
}

// CmToM converts centimetres to metres.
func CmToM(cm float64) float64 {
	return cm / 100
}

// MToCm converts metres to centimetres.
func MToCm(m float64) float64 {
	return m * 100
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeHeading wraps a heading in degrees into [0, 360).
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
