// Package ingest decodes the text line protocols spoken by the GPS
// receiver and the boom sensor unit. Both devices emit one reading per
// line over serial; the decoders here classify and parse those lines
// into the numeric types the guidance core consumes.
//
// Line formats:
//
//	$FIX,<lat>,<lon>,<alt_m>,<speed_kmh>,<heading_deg>,<sats>,<hacc_m>,<rtk 0|1>
//	$BOOM,<centerH>,<leftH>,<rightH>,<leftAngle>,<rightAngle>
//	$GND,<center_cm>,<left_cm>,<right_cm>
//	$HYD,<center_pct>,<left_pct>,<right_pct>
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fieldworks-ag/guidance/internal/gps"
)

// Line type tokens returned by Classify.
const (
	LineTypeFix     = "fix"
	LineTypeBoom    = "boom"
	LineTypeGround  = "ground"
	LineTypeHyd     = "hydraulic"
	LineTypeUnknown = "unknown"
)

// Classify inspects a payload line and returns its type token without
// fully parsing it.
func Classify(line string) string {
	switch {
	case strings.HasPrefix(line, "$FIX,"):
		return LineTypeFix
	case strings.HasPrefix(line, "$BOOM,"):
		return LineTypeBoom
	case strings.HasPrefix(line, "$GND,"):
		return LineTypeGround
	case strings.HasPrefix(line, "$HYD,"):
		return LineTypeHyd
	default:
		return LineTypeUnknown
	}
}

// fields splits a line after its prefix and parses every segment as a
// float. count is the exact number of expected segments.
func fields(line, prefix string, count int) ([]float64, error) {
	segments := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, prefix)), ",")
	if len(segments) != count {
		return nil, fmt.Errorf("expected %d fields, got %d", count, len(segments))
	}
	out := make([]float64, count)
	for i, seg := range segments {
		v, err := strconv.ParseFloat(seg, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d %q: %w", i, seg, err)
		}
		out[i] = v
	}
	return out, nil
}

// ParseFix decodes a $FIX line. The fix timestamp is the receive time.
func ParseFix(line string, received time.Time) (gps.Fix, error) {
	f, err := fields(line, "$FIX,", 8)
	if err != nil {
		return gps.Fix{}, fmt.Errorf("fix line: %w", err)
	}
	return gps.Fix{
		Latitude:            f[0],
		Longitude:           f[1],
		AltitudeM:           f[2],
		SpeedKmh:            f[3],
		HeadingDeg:          f[4],
		SatelliteCount:      int(f[5]),
		HorizontalAccuracyM: f[6],
		RTKFixed:            f[7] != 0,
		Time:                received,
	}, nil
}

// BoomReading is one decoded $BOOM line: measured heights (cm) per
// section and wing fold angles (degrees).
type BoomReading struct {
	CenterHeightCm float64
	LeftHeightCm   float64
	RightHeightCm  float64
	LeftAngleDeg   float64
	RightAngleDeg  float64
}

// ParseBoom decodes a $BOOM line.
func ParseBoom(line string) (BoomReading, error) {
	f, err := fields(line, "$BOOM,", 5)
	if err != nil {
		return BoomReading{}, fmt.Errorf("boom line: %w", err)
	}
	return BoomReading{
		CenterHeightCm: f[0],
		LeftHeightCm:   f[1],
		RightHeightCm:  f[2],
		LeftAngleDeg:   f[3],
		RightAngleDeg:  f[4],
	}, nil
}

// GroundReading is one decoded $GND line: ground radar ranges in cm.
type GroundReading struct {
	CenterCm float64
	LeftCm   float64
	RightCm  float64
}

// ParseGround decodes a $GND line.
func ParseGround(line string) (GroundReading, error) {
	f, err := fields(line, "$GND,", 3)
	if err != nil {
		return GroundReading{}, fmt.Errorf("ground line: %w", err)
	}
	return GroundReading{CenterCm: f[0], LeftCm: f[1], RightCm: f[2]}, nil
}

// HydraulicReading is one decoded $HYD line: ram positions in percent.
type HydraulicReading struct {
	CenterPct float64
	LeftPct   float64
	RightPct  float64
}

// ParseHydraulic decodes a $HYD line.
func ParseHydraulic(line string) (HydraulicReading, error) {
	f, err := fields(line, "$HYD,", 3)
	if err != nil {
		return HydraulicReading{}, fmt.Errorf("hydraulic line: %w", err)
	}
	return HydraulicReading{CenterPct: f[0], LeftPct: f[1], RightPct: f[2]}, nil
}
