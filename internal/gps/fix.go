// Package gps defines the decoded GPS fix consumed by the guidance
// core. Transport and protocol decoding happen upstream; by the time a
// Fix reaches this package it is already numeric.
package gps

import "time"

// Fix is one decoded GPS position report.
type Fix struct {
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	AltitudeM           float64   `json:"altitude_m"`
	SpeedKmh            float64   `json:"speed_kmh"`
	HeadingDeg          float64   `json:"heading_deg"`
	SatelliteCount      int       `json:"satellite_count"`
	HorizontalAccuracyM float64   `json:"horizontal_accuracy_m"`
	RTKFixed            bool      `json:"rtk_fixed"`
	Time                time.Time `json:"time"`
}
