// Package boom implements the automatic boom leveling controller for a
// three-section implement (center, left wing, right wing). It tracks
// per-section sensor state, computes a system accuracy figure, and gates
// auto-mode activation behind safety checks: the system must be powered,
// sensor readings must be inside safe ranges, and data must be fresh.
// Deactivation is the safety escape hatch and is never gated.
package boom

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/fieldworks-ag/guidance/internal/timeutil"
)

// SectionID identifies one boom section.
type SectionID string

const (
	SectionCenter SectionID = "center"
	SectionLeft   SectionID = "left_wing"
	SectionRight  SectionID = "right_wing"
)

// Sections lists all section IDs in canonical order.
var Sections = []SectionID{SectionCenter, SectionLeft, SectionRight}

// State is the derived controller state used for status reporting. It is
// computed from (active, auto, sensor validity), not stored.
type State string

const (
	StateInactive          State = "inactive"
	StateActiveManual      State = "active_manual"
	StateActiveAutoValid   State = "active_auto_valid"
	StateActiveAutoInvalid State = "active_auto_invalid"
)

// Activation failure reasons surfaced to the operator.
var (
	ErrSystemInactive = errors.New("system must be active")
	ErrSensorsInvalid = errors.New("invalid sensor data")
	ErrDataStale      = errors.New("sensor data is stale")
)

// Config holds the safety limits and defaults for the controller.
type Config struct {
	TargetMinCm       float64       // Lowest allowed target height
	TargetMaxCm       float64       // Highest allowed target height
	GroundDistMinCm   float64       // Radar reading below this is unsafe/implausible
	GroundDistMaxCm   float64       // Radar reading above this is unsafe/implausible
	WingAngleLimitDeg float64       // Wing angle magnitude beyond this is unsafe
	StaleTimeout      time.Duration // Sensor silence beyond this blocks auto mode
}

// DefaultConfig returns the default safety limits.
func DefaultConfig() Config {
	return Config{
		TargetMinCm:       20,
		TargetMaxCm:       100,
		GroundDistMinCm:   10,
		GroundDistMaxCm:   200,
		WingAngleLimitDeg: 20,
		StaleTimeout:      2 * time.Second,
	}
}

// Section holds the sensed and commanded state of one boom section.
type Section struct {
	ID               SectionID
	HeightCm         float64   // Measured height above ground
	TargetCm         float64   // Commanded height
	AngleDeg         float64   // Wing fold angle (zero for center)
	HydraulicPct     float64   // Ram position 0-100
	GroundDistanceCm float64   // Ground radar range
	LastUpdate       time.Time // Zero until first sensor update
}

// Controller is the boom leveling controller. A single mutex guards the
// whole controller: sensor updates arrive on one sequential ingestion
// path, while activate/deactivate may be called concurrently from an
// operator-facing context.
type Controller struct {
	mu    sync.Mutex
	clock timeutil.Clock
	cfg   Config

	center Section
	left   Section
	right  Section

	active           bool
	autoMode         bool
	sensorDataValid  bool
	accuracyCm       float64
	lastSensorUpdate time.Time
}

// NewController creates a controller with the given config. A nil clock
// selects the real clock.
func NewController(cfg Config, clock timeutil.Clock) *Controller {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Controller{
		clock:  clock,
		cfg:    cfg,
		center: Section{ID: SectionCenter},
		left:   Section{ID: SectionLeft},
		right:  Section{ID: SectionRight},
	}
}

// SetActive powers the controller on or off. Powering off always drops
// auto mode: an unpowered system must never believe it is leveling.
func (c *Controller) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
	if !active {
		c.autoMode = false
	}
}

// ClampTarget clamps a requested target height into the safe range
// without applying it.
func (c *Controller) ClampTarget(cm float64) float64 {
	return c.clampTarget(cm)
}

// clampTarget clamps a requested target height into the safe range.
func (c *Controller) clampTarget(cm float64) float64 {
	if cm < c.cfg.TargetMinCm {
		return c.cfg.TargetMinCm
	}
	if cm > c.cfg.TargetMaxCm {
		return c.cfg.TargetMaxCm
	}
	return cm
}

// SetTargetHeight sets the system target height, clamped to the safe
// range, and propagates it to all three sections. Returns the clamped
// value actually applied.
func (c *Controller) SetTargetHeight(cm float64) float64 {
	clamped := c.clampTarget(cm)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center.TargetCm = clamped
	c.left.TargetCm = clamped
	c.right.TargetCm = clamped
	c.recomputeAccuracyLocked()
	return clamped
}

// SetSectionTarget sets one section's target independently, clamped to
// the same safe range.
func (c *Controller) SetSectionTarget(id SectionID, cm float64) float64 {
	clamped := c.clampTarget(cm)
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.sectionLocked(id); s != nil {
		s.TargetCm = clamped
	}
	c.recomputeAccuracyLocked()
	return clamped
}

func (c *Controller) sectionLocked(id SectionID) *Section {
	switch id {
	case SectionCenter:
		return &c.center
	case SectionLeft:
		return &c.left
	case SectionRight:
		return &c.right
	}
	return nil
}

// UpdateBoomPositions records measured section heights and wing angles,
// stamps per-section update times, and recomputes system accuracy. Wing
// angles feed sensor validation, so validity is re-run here as well as
// on ground readings; an over-folded wing invalidates immediately
// instead of waiting for the next range frame.
func (c *Controller) UpdateBoomPositions(centerHCm, leftHCm, rightHCm, leftAngleDeg, rightAngleDeg float64) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.center.HeightCm = centerHCm
	c.left.HeightCm = leftHCm
	c.right.HeightCm = rightHCm
	c.left.AngleDeg = leftAngleDeg
	c.right.AngleDeg = rightAngleDeg
	c.center.LastUpdate = now
	c.left.LastUpdate = now
	c.right.LastUpdate = now
	c.lastSensorUpdate = now
	c.recomputeAccuracyLocked()
	c.revalidateLocked()
}

// UpdateGroundDistances records ground radar ranges and re-runs sensor
// validation. Data is valid only when every distance is inside the safe
// band and both wing angles are inside the fold limit.
func (c *Controller) UpdateGroundDistances(centerCm, leftCm, rightCm float64) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.center.GroundDistanceCm = centerCm
	c.left.GroundDistanceCm = leftCm
	c.right.GroundDistanceCm = rightCm
	c.lastSensorUpdate = now
	c.revalidateLocked()
}

// UpdateHydraulicPositions records hydraulic ram positions (0-100%).
func (c *Controller) UpdateHydraulicPositions(centerPct, leftPct, rightPct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center.HydraulicPct = centerPct
	c.left.HydraulicPct = leftPct
	c.right.HydraulicPct = rightPct
}

func (c *Controller) distanceInRangeLocked(cm float64) bool {
	return cm >= c.cfg.GroundDistMinCm && cm <= c.cfg.GroundDistMaxCm
}

func (c *Controller) revalidateLocked() {
	valid := c.distanceInRangeLocked(c.center.GroundDistanceCm) &&
		c.distanceInRangeLocked(c.left.GroundDistanceCm) &&
		c.distanceInRangeLocked(c.right.GroundDistanceCm) &&
		math.Abs(c.left.AngleDeg) <= c.cfg.WingAngleLimitDeg &&
		math.Abs(c.right.AngleDeg) <= c.cfg.WingAngleLimitDeg
	c.sensorDataValid = valid
}

// recomputeAccuracyLocked updates the RMS of per-section height errors.
func (c *Controller) recomputeAccuracyLocked() {
	errs := []float64{
		c.center.HeightCm - c.center.TargetCm,
		c.left.HeightCm - c.left.TargetCm,
		c.right.HeightCm - c.right.TargetCm,
	}
	c.accuracyCm = floats.Norm(errs, 2) / math.Sqrt(float64(len(errs)))
}

// ActivateAutoMode enables automatic leveling if every safety gate
// passes. On failure the controller state is left untouched and the
// returned error carries the operator-facing reason.
func (c *Controller) ActivateAutoMode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrSystemInactive
	}
	if !c.sensorDataValid {
		return ErrSensorsInvalid
	}
	if c.isDataStaleLocked(c.cfg.StaleTimeout) {
		return ErrDataStale
	}
	c.autoMode = true
	return nil
}

// DeactivateAutoMode unconditionally disables automatic leveling. This
// is the safety escape hatch: it must succeed in every state.
func (c *Controller) DeactivateAutoMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoMode = false
}

// IsDataStale reports whether no sensor update has arrived within the
// timeout. A controller that has never seen an update is stale.
func (c *Controller) IsDataStale(timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isDataStaleLocked(timeout)
}

func (c *Controller) isDataStaleLocked(timeout time.Duration) bool {
	if c.lastSensorUpdate.IsZero() {
		return true
	}
	return c.clock.Since(c.lastSensorUpdate) > timeout
}

// State returns the derived controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case !c.active:
		return StateInactive
	case c.autoMode && c.sensorDataValid:
		return StateActiveAutoValid
	case c.autoMode:
		return StateActiveAutoInvalid
	default:
		return StateActiveManual
	}
}

// Status returns the operator-facing status line.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() string {
	switch {
	case !c.active:
		return "Inactive"
	case !c.sensorDataValid:
		return "Sensor Error"
	case c.autoMode:
		return fmt.Sprintf("Auto Mode (±%.1f cm)", c.accuracyCm)
	default:
		return "Manual Mode"
	}
}

// AccuracyCm returns the current RMS height error in centimetres.
func (c *Controller) AccuracyCm() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accuracyCm
}
