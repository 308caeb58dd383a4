// Package guidance wires the guidance core together: GPS fixes flow
// through the coordinate frame into the camera and telemetry, boom
// sensor readings flow into the leveling controller, and the render tick
// drives the camera animation. The package adds call sequencing only;
// all algorithmic behaviour lives in the component packages.
package guidance

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fieldworks-ag/guidance/internal/boom"
	"github.com/fieldworks-ag/guidance/internal/camera"
	"github.com/fieldworks-ag/guidance/internal/geo"
	"github.com/fieldworks-ag/guidance/internal/gps"
	"github.com/fieldworks-ag/guidance/internal/ingest"
	"github.com/fieldworks-ag/guidance/internal/monitoring"
	"github.com/fieldworks-ag/guidance/internal/terrain"
	"github.com/fieldworks-ag/guidance/internal/units"
)

// Recorder persists telemetry. Implemented by db.DB; nil-safe via the
// noopRecorder so the service runs without a database.
type Recorder interface {
	RecordTrackPoint(sessionID string, t time.Time, northing, easting, altitudeM, speedMps, headingDeg float64, rtkFixed, qualityOK bool) error
	RecordBoomSample(sessionID string, t time.Time, accuracyCm float64, sensorValid, autoMode bool, status string) error
	RecordAutoModeEvent(sessionID string, t time.Time, engaged bool, reason string) error
}

type noopRecorder struct{}

func (noopRecorder) RecordTrackPoint(string, time.Time, float64, float64, float64, float64, float64, bool, bool) error {
	return nil
}
func (noopRecorder) RecordBoomSample(string, time.Time, float64, bool, bool, string) error {
	return nil
}
func (noopRecorder) RecordAutoModeEvent(string, time.Time, bool, string) error {
	return nil
}

// Options configures the service.
type Options struct {
	// MinSatellites and MaxHorizontalAccM gate fix quality: fixes below
	// the bar are recorded in the track (flagged) but do not move the
	// camera or become the last known position. A below-bar fix before
	// the frame is anchored is dropped, since it cannot be localized.
	MinSatellites     int
	MaxHorizontalAccM float64

	Recorder  Recorder
	SessionID string
}

// Service is the thin coordinator over the guidance core.
type Service struct {
	Frame      *geo.Frame
	Surface    *terrain.Surface
	Controller *boom.Controller
	Camera     *camera.Camera

	recorder  Recorder
	sessionID string

	minSatellites     int
	maxHorizontalAccM float64

	mu         sync.Mutex
	lastFix    gps.Fix
	haveFix    bool
	vehicleN   float64
	vehicleE   float64
	headingDeg float64
}

// NewService creates the coordinator around the given components.
func NewService(frame *geo.Frame, surface *terrain.Surface, controller *boom.Controller, cam *camera.Camera, opts Options) *Service {
	rec := opts.Recorder
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Service{
		Frame:             frame,
		Surface:           surface,
		Controller:        controller,
		Camera:            cam,
		recorder:          rec,
		sessionID:         opts.SessionID,
		minSatellites:     opts.MinSatellites,
		maxHorizontalAccM: opts.MaxHorizontalAccM,
	}
}

// InitFrame anchors the coordinate frame explicitly.
func (s *Service) InitFrame(lat, lon float64) error {
	return s.Frame.Init(lat, lon)
}

// fixUsable reports whether a fix meets the configured quality bar.
func (s *Service) fixUsable(fix gps.Fix) bool {
	if s.minSatellites > 0 && fix.SatelliteCount < s.minSatellites {
		return false
	}
	if s.maxHorizontalAccM > 0 && fix.HorizontalAccuracyM > s.maxHorizontalAccM {
		return false
	}
	return true
}

// HandleFix processes one decoded GPS fix: anchors the frame on the
// first usable fix, converts to local coordinates, moves the camera
// target, and records the track point. A fix below the quality bar is
// still recorded (flagged) once the frame is anchored, but never moves
// the camera or the last known position.
func (s *Service) HandleFix(fix gps.Fix) error {
	if !s.fixUsable(fix) {
		monitoring.Logf("guidance: low-quality fix (sats=%d hacc=%.2fm), camera hold",
			fix.SatelliteCount, fix.HorizontalAccuracyM)
		if !s.Frame.Initialized() {
			return nil
		}
		northing, easting, err := s.Frame.ToLocal(fix.Latitude, fix.Longitude)
		if err != nil {
			return fmt.Errorf("low-quality fix to local frame: %w", err)
		}
		if err := s.recorder.RecordTrackPoint(s.sessionID, fix.Time,
			northing, easting, fix.AltitudeM, units.KmhToMps(fix.SpeedKmh),
			fix.HeadingDeg, fix.RTKFixed, false); err != nil {
			monitoring.Logf("guidance: record track point: %v", err)
		}
		return nil
	}

	if !s.Frame.Initialized() {
		if err := s.Frame.Init(fix.Latitude, fix.Longitude); err != nil {
			return fmt.Errorf("anchor frame at first fix: %w", err)
		}
		monitoring.Logf("guidance: frame anchored at (%.6f, %.6f)", fix.Latitude, fix.Longitude)
	}

	northing, easting, err := s.Frame.ToLocal(fix.Latitude, fix.Longitude)
	if err != nil {
		return fmt.Errorf("fix to local frame: %w", err)
	}

	s.mu.Lock()
	s.lastFix = fix
	s.haveFix = true
	s.vehicleN = northing
	s.vehicleE = easting
	s.headingDeg = units.NormalizeHeading(fix.HeadingDeg)
	s.mu.Unlock()

	// Camera works in X=east, Y=north; the vehicle rides on the terrain
	// surface when elevation data covers it.
	z := s.Surface.ElevationOrZero(easting, northing)
	s.Camera.UpdateVehicle(r3.Vec{X: easting, Y: northing, Z: z}, fix.HeadingDeg)

	if err := s.recorder.RecordTrackPoint(s.sessionID, fix.Time,
		northing, easting, fix.AltitudeM, units.KmhToMps(fix.SpeedKmh),
		fix.HeadingDeg, fix.RTKFixed, true); err != nil {
		monitoring.Logf("guidance: record track point: %v", err)
	}
	return nil
}

// HandleBoom processes one decoded boom position reading.
func (s *Service) HandleBoom(r ingest.BoomReading) {
	s.Controller.UpdateBoomPositions(
		r.CenterHeightCm, r.LeftHeightCm, r.RightHeightCm,
		r.LeftAngleDeg, r.RightAngleDeg)
}

// HandleGround processes one decoded ground radar reading and records
// the resulting controller sample.
func (s *Service) HandleGround(r ingest.GroundReading, at time.Time) {
	s.Controller.UpdateGroundDistances(r.CenterCm, r.LeftCm, r.RightCm)

	snap := s.Controller.Snapshot()
	if err := s.recorder.RecordBoomSample(s.sessionID, at,
		snap.AccuracyCm, snap.SensorDataValid, snap.AutoMode, snap.Status); err != nil {
		monitoring.Logf("guidance: record boom sample: %v", err)
	}
}

// HandleHydraulic processes one decoded hydraulic ram reading.
func (s *Service) HandleHydraulic(r ingest.HydraulicReading) {
	s.Controller.UpdateHydraulicPositions(r.CenterPct, r.LeftPct, r.RightPct)
}

// HandleLine classifies and routes one raw serial line. Unknown line
// types are ignored so sensor firmware can emit diagnostics freely.
func (s *Service) HandleLine(line string, at time.Time) error {
	switch ingest.Classify(line) {
	case ingest.LineTypeFix:
		fix, err := ingest.ParseFix(line, at)
		if err != nil {
			return err
		}
		return s.HandleFix(fix)
	case ingest.LineTypeBoom:
		r, err := ingest.ParseBoom(line)
		if err != nil {
			return err
		}
		s.HandleBoom(r)
	case ingest.LineTypeGround:
		r, err := ingest.ParseGround(line)
		if err != nil {
			return err
		}
		s.HandleGround(r, at)
	case ingest.LineTypeHyd:
		r, err := ingest.ParseHydraulic(line)
		if err != nil {
			return err
		}
		s.HandleHydraulic(r)
	}
	return nil
}

// ActivateAutoMode attempts auto-mode activation and records the
// outcome, including the refusal reason on failure.
func (s *Service) ActivateAutoMode(at time.Time) error {
	err := s.Controller.ActivateAutoMode()
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	if recErr := s.recorder.RecordAutoModeEvent(s.sessionID, at, err == nil, reason); recErr != nil {
		monitoring.Logf("guidance: record automode event: %v", recErr)
	}
	return err
}

// DeactivateAutoMode disengages auto mode and records the event. Never
// fails; this path must stay as unconditional as the controller's.
func (s *Service) DeactivateAutoMode(at time.Time) {
	s.Controller.DeactivateAutoMode()
	if err := s.recorder.RecordAutoModeEvent(s.sessionID, at, false, "deactivated"); err != nil {
		monitoring.Logf("guidance: record automode event: %v", err)
	}
}

// Tick advances the camera animation. Called once per render frame.
func (s *Service) Tick(dt float64) {
	s.Camera.Tick(dt)
}

// VehicleLocal returns the vehicle's last known local-frame position and
// heading. ok is false before the first usable fix.
func (s *Service) VehicleLocal() (northing, easting, headingDeg float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicleN, s.vehicleE, s.headingDeg, s.haveFix
}

// LastFix returns the last usable fix.
func (s *Service) LastFix() (gps.Fix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFix, s.haveFix
}

// SuggestTarget samples the terrain under the vehicle and at lookAheadM
// along the heading, and suggests the boom target height (cm) that
// preserves clearance over the upcoming grade. ok is false when the
// surface has no data for either point or no fix has arrived.
func (s *Service) SuggestTarget(lookAheadM float64) (targetCm float64, ok bool) {
	s.mu.Lock()
	n, e, heading, haveFix := s.vehicleN, s.vehicleE, s.headingDeg, s.haveFix
	s.mu.Unlock()
	if !haveFix {
		return 0, false
	}

	rad := units.DegToRad(heading)
	aheadN := n + lookAheadM*math.Cos(rad)
	aheadE := e + lookAheadM*math.Sin(rad)

	here, okHere := s.Surface.ElevationAt(e, n)
	ahead, okAhead := s.Surface.ElevationAt(aheadE, aheadN)
	if !okHere || !okAhead {
		return 0, false
	}

	current := s.Controller.Snapshot().Sections[0].TargetCm
	suggested := current + units.MToCm(ahead-here)
	return s.Controller.ClampTarget(suggested), true
}
