// Package geo converts between WGS84 geodetic coordinates and a local
// tangent-plane frame (northing/easting in meters) anchored at a field
// origin. The planar frame is what the rest of the guidance pipeline
// works in: terrain sampling, camera tracking and telemetry all consume
// local coordinates produced here.
package geo

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrInvalidCoordinate indicates a latitude/longitude outside valid
	// geodetic ranges.
	ErrInvalidCoordinate = errors.New("coordinate out of range")

	// ErrUninitialized indicates a transform was requested before Init.
	ErrUninitialized = errors.New("frame not initialized")
)

// Frame is a local tangent-plane coordinate frame anchored at a geodetic
// origin. Reads (ToLocal/ToWGS84/Distance/Bearing) may run concurrently;
// Init excludes them for the duration of the origin swap.
type Frame struct {
	mu sync.RWMutex

	initialized bool
	originLat   float64
	originLon   float64

	// Derived at Init time for the origin latitude.
	metersPerDegLat float64
	metersPerDegLon float64
}

// NewFrame returns an uninitialized frame. All transforms fail with
// ErrUninitialized until Init succeeds.
func NewFrame() *Frame {
	return &Frame{}
}

// validLatLon reports whether the pair is inside valid geodetic ranges.
func validLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// metersPerDegreeLat evaluates the series expansion for the length of one
// degree of latitude at latitude phi (radians).
func metersPerDegreeLat(phi float64) float64 {
	return 111132.92 -
		559.82*math.Cos(2*phi) +
		1.175*math.Cos(4*phi) -
		0.0023*math.Cos(6*phi)
}

// metersPerDegreeLon evaluates the series expansion for the length of one
// degree of longitude at latitude phi (radians).
func metersPerDegreeLon(phi float64) float64 {
	return 111412.84*math.Cos(phi) -
		93.5*math.Cos(3*phi) +
		0.118*math.Cos(5*phi)
}

// Init anchors the frame at the given origin and computes the derived
// meters-per-degree factors. Any previous origin and derived state is
// discarded. Fails with ErrInvalidCoordinate if the origin is out of
// range, in which case the previous state is left untouched.
func (f *Frame) Init(lat, lon float64) error {
	if !validLatLon(lat, lon) {
		return fmt.Errorf("origin (%.6f, %.6f): %w", lat, lon, ErrInvalidCoordinate)
	}

	phi := lat * math.Pi / 180

	f.mu.Lock()
	defer f.mu.Unlock()
	f.originLat = lat
	f.originLon = lon
	f.metersPerDegLat = metersPerDegreeLat(phi)
	f.metersPerDegLon = metersPerDegreeLon(phi)
	f.initialized = true
	return nil
}

// Initialized reports whether Init has succeeded.
func (f *Frame) Initialized() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.initialized
}

// Origin returns the anchoring geodetic point. The second return is false
// when the frame has not been initialized.
func (f *Frame) Origin() (lat, lon float64, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.originLat, f.originLon, f.initialized
}

// ToLocal converts a geodetic point to local northing/easting meters.
//
// The longitude factor is recomputed at the query latitude rather than
// reusing the origin's cached factor: meters-per-degree-longitude varies
// with latitude, and over a multi-kilometre field the origin's factor
// drifts enough to matter for implement guidance.
func (f *Frame) ToLocal(lat, lon float64) (northing, easting float64, err error) {
	if !validLatLon(lat, lon) {
		return 0, 0, fmt.Errorf("point (%.6f, %.6f): %w", lat, lon, ErrInvalidCoordinate)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.initialized {
		return 0, 0, ErrUninitialized
	}

	phi := lat * math.Pi / 180
	northing = (lat - f.originLat) * f.metersPerDegLat
	easting = (lon - f.originLon) * metersPerDegreeLon(phi)
	return northing, easting, nil
}

// ToWGS84 converts local northing/easting meters back to a geodetic
// point. The longitude factor is re-evaluated at the recovered
// latitude, mirroring the forward transform. Results outside valid
// geodetic ranges are treated as corrupt input.
func (f *Frame) ToWGS84(northing, easting float64) (lat, lon float64, err error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.initialized {
		return 0, 0, ErrUninitialized
	}

	// Latitude inverts exactly since the forward transform uses the
	// origin's latitude factor. The longitude factor is then evaluated at
	// the recovered latitude, matching the forward transform's use of the
	// query latitude, so the inverse lands within floating-point error.
	lat = f.originLat + northing/f.metersPerDegLat
	phi := lat * math.Pi / 180
	lon = f.originLon + easting/metersPerDegreeLon(phi)

	if !validLatLon(lat, lon) {
		return 0, 0, fmt.Errorf("result (%.6f, %.6f): %w", lat, lon, ErrInvalidCoordinate)
	}
	return lat, lon, nil
}

// Distance returns the Euclidean distance in meters between two local
// frame points.
func Distance(n1, e1, n2, e2 float64) float64 {
	dn := n2 - n1
	de := e2 - e1
	return math.Sqrt(dn*dn + de*de)
}

// Bearing returns the bearing in degrees from (n1,e1) to (n2,e2),
// normalized to [0, 360). 0 is grid north, 90 is grid east.
func Bearing(n1, e1, n2, e2 float64) float64 {
	deg := math.Atan2(e2-e1, n2-n1) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
