// Package camera computes a smoothly animated viewpoint that tracks the
// vehicle in the local frame. Mode changes transition the pose toward a
// newly computed target; while following, the pose is exponentially
// damped toward the vehicle-derived target each render tick.
//
// Writer discipline: UpdateVehicle and the config setters mutate only
// the target pose; Tick is the sole writer of the current pose. Tick is
// called once per render frame and never blocks.
package camera

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mode selects the camera behaviour.
type Mode string

const (
	ModeFieldView   Mode = "field_view"
	ModeTopRearView Mode = "top_rear_view"
	ModeFreeCamera  Mode = "free_camera"
	ModeFixedView   Mode = "fixed_view"
)

// Phase is the animation phase of the camera state machine.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseTransitioning  Phase = "transitioning"
	PhaseFollowing      Phase = "following"
	PhaseUserControlled Phase = "user_controlled"
)

// Completion thresholds for a transition.
const (
	positionEpsilonM  = 0.01 // 1 cm
	angularEpsilonRad = 0.001
)

// Config holds per-mode follow parameters.
type Config struct {
	FollowDistanceM float64 // Horizontal distance behind the vehicle
	FollowHeightM   float64 // Height above the vehicle
	PitchDeg        float64 // Look pitch, negative is downward
}

// Parameter clamp ranges.
const (
	minFollowDistanceM = 10
	maxFollowDistanceM = 200
	minFollowHeightM   = 5
	maxFollowHeightM   = 150
	minPitchDeg        = -89
	maxPitchDeg        = 0
)

func (c Config) clamped() Config {
	return Config{
		FollowDistanceM: clamp(c.FollowDistanceM, minFollowDistanceM, maxFollowDistanceM),
		FollowHeightM:   clamp(c.FollowHeightM, minFollowHeightM, maxFollowHeightM),
		PitchDeg:        clamp(c.PitchDeg, minPitchDeg, maxPitchDeg),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Bounds is the field boundary box that camera positions are clamped
// into, keeping the viewpoint over the working area.
type Bounds struct {
	Min r3.Vec
	Max r3.Vec
}

// Clamp returns v clamped into the box.
func (b Bounds) Clamp(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: clamp(v.X, b.Min.X, b.Max.X),
		Y: clamp(v.Y, b.Min.Y, b.Max.Y),
		Z: clamp(v.Z, b.Min.Z, b.Max.Z),
	}
}

// Pose is a camera viewpoint: position plus orthonormal look/up
// directions.
type Pose struct {
	Position r3.Vec
	Look     r3.Vec
	Up       r3.Vec
}

// Camera is the follow-camera state machine.
type Camera struct {
	mu sync.Mutex

	mode  Mode
	phase Phase

	current Pose
	target  Pose

	vehiclePos        r3.Vec
	vehicleHeadingDeg float64
	haveVehicle       bool

	configs map[Mode]Config
	bounds  Bounds

	followDamping   float64 // Per-tick damping factor while following
	transitionSpeed float64 // Multiplied by dt while transitioning
}

// New creates a camera in FieldView mode, idle, looking north from a
// neutral pose. The default bounds are generous; SetFieldBounds should
// be called once the field extent is known.
func New() *Camera {
	return &Camera{
		mode:  ModeFieldView,
		phase: PhaseIdle,
		current: Pose{
			Position: r3.Vec{X: -50, Y: 0, Z: 30},
			Look:     r3.Unit(r3.Vec{X: 1, Y: 0, Z: -0.5}),
			Up:       r3.Vec{Z: 1},
		},
		target: Pose{
			Position: r3.Vec{X: -50, Y: 0, Z: 30},
			Look:     r3.Unit(r3.Vec{X: 1, Y: 0, Z: -0.5}),
			Up:       r3.Vec{Z: 1},
		},
		configs: map[Mode]Config{
			ModeFieldView:   {FollowDistanceM: 50, FollowHeightM: 25, PitchDeg: -20},
			ModeTopRearView: {FollowDistanceM: 30, FollowHeightM: 60, PitchDeg: -60},
		},
		bounds: Bounds{
			Min: r3.Vec{X: -5000, Y: -5000, Z: 2},
			Max: r3.Vec{X: 5000, Y: 5000, Z: 500},
		},
		followDamping:   0.08,
		transitionSpeed: 2.0,
	}
}

// Mode returns the current camera mode.
func (c *Camera) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Phase returns the current animation phase.
func (c *Camera) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Current returns the current (smoothed) pose.
func (c *Camera) Current() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Target returns the pose the camera is animating toward.
func (c *Camera) Target() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// SetFieldBounds sets the boundary box camera positions are clamped
// into.
func (c *Camera) SetFieldBounds(b Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bounds = b
	c.target.Position = b.Clamp(c.target.Position)
}

// SetDynamics overrides the follow damping factor and transition speed.
// Non-positive values leave the current setting unchanged.
func (c *Camera) SetDynamics(followDamping, transitionSpeed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if followDamping > 0 {
		c.followDamping = followDamping
	}
	if transitionSpeed > 0 {
		c.transitionSpeed = transitionSpeed
	}
}

// SetMode switches camera behaviour. A mode change enters the
// Transitioning phase toward a target computed for the new mode;
// FreeCamera hands control to the user immediately.
func (c *Camera) SetMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode == c.mode {
		return
	}
	c.mode = mode

	switch mode {
	case ModeFreeCamera:
		// Direct manual control from the current pose, no animation.
		c.target = c.current
		c.phase = PhaseUserControlled
	case ModeFixedView:
		// Freeze where we are; the (trivial) transition completes on the
		// next tick and the camera goes idle.
		c.target = c.current
		c.phase = PhaseTransitioning
	default:
		if c.haveVehicle {
			c.retargetLocked()
		}
		c.phase = PhaseTransitioning
	}
}

// SetModeConfig updates a following mode's parameters, clamped into safe
// ranges, and retargets immediately if that mode is active. Returns the
// clamped config actually applied.
func (c *Camera) SetModeConfig(mode Mode, cfg Config) Config {
	clamped := cfg.clamped()
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode != ModeFieldView && mode != ModeTopRearView {
		return clamped
	}
	c.configs[mode] = clamped
	if mode == c.mode && c.haveVehicle {
		c.retargetLocked()
	}
	return clamped
}

// ModeConfig returns the stored config for a following mode.
func (c *Camera) ModeConfig(mode Mode) Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configs[mode]
}

// UpdateVehicle records the vehicle pose in the local frame and, when a
// following mode is active, recomputes the target pose. Only the target
// is touched; Tick moves the current pose.
func (c *Camera) UpdateVehicle(position r3.Vec, headingDeg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vehiclePos = position
	c.vehicleHeadingDeg = headingDeg
	c.haveVehicle = true

	if c.mode != ModeFieldView && c.mode != ModeTopRearView {
		return
	}
	c.retargetLocked()
	if c.phase == PhaseIdle {
		c.phase = PhaseTransitioning
	}
}

// retargetLocked recomputes the follow target from the stored vehicle
// pose and the active mode's config.
func (c *Camera) retargetLocked() {
	cfg := c.configs[c.mode]

	// Heading 0 is grid north (+Y toward increasing northing is handled
	// by the caller's axis convention: here X=east, Y=north). The offset
	// places the camera behind the vehicle along its heading.
	adjusted := (c.vehicleHeadingDeg - 90) * math.Pi / 180
	back := r3.Vec{
		X: math.Cos(adjusted),
		Y: math.Sin(adjusted),
	}
	pos := r3.Add(
		r3.Sub(c.vehiclePos, r3.Scale(cfg.FollowDistanceM, back)),
		r3.Vec{Z: cfg.FollowHeightM},
	)

	look := r3.Sub(c.vehiclePos, pos)
	horizontal := math.Hypot(look.X, look.Y)
	look.Z = horizontal * math.Tan(cfg.PitchDeg*math.Pi/180)
	if r3.Norm(look) == 0 {
		look = r3.Vec{X: 1}
	}

	c.target = Pose{
		Position: c.bounds.Clamp(pos),
		Look:     r3.Unit(look),
		Up:       r3.Vec{Z: 1},
	}
}

// Tick advances the pose animation by dt seconds. Idle is a no-op. The
// current pose is damped exponentially toward the target; a transition
// completes once position and orientation deltas fall under the fixed
// thresholds.
func (c *Camera) Tick(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseIdle || dt <= 0 {
		return
	}

	damping := c.followDamping
	if c.phase == PhaseTransitioning {
		damping = clamp(c.transitionSpeed*dt, 0, 1)
	}

	c.current.Position = r3.Add(c.current.Position,
		r3.Scale(damping, r3.Sub(c.target.Position, c.current.Position)))
	c.current.Look = dampDirection(c.current.Look, c.target.Look, damping)
	c.current.Up = dampDirection(c.current.Up, c.target.Up, damping)

	if c.phase != PhaseTransitioning {
		return
	}
	posDelta := r3.Norm(r3.Sub(c.target.Position, c.current.Position))
	lookDelta := angleBetween(c.current.Look, c.target.Look)
	upDelta := angleBetween(c.current.Up, c.target.Up)
	if posDelta < positionEpsilonM && lookDelta < angularEpsilonRad && upDelta < angularEpsilonRad {
		c.current = c.target
		switch c.mode {
		case ModeFieldView, ModeTopRearView:
			c.phase = PhaseFollowing
		case ModeFreeCamera:
			c.phase = PhaseUserControlled
		default:
			c.phase = PhaseIdle
		}
	}
}

// dampDirection moves a unit vector toward target by the damping factor
// and re-normalizes.
func dampDirection(current, target r3.Vec, damping float64) r3.Vec {
	v := r3.Add(current, r3.Scale(damping, r3.Sub(target, current)))
	if r3.Norm(v) == 0 {
		return target
	}
	return r3.Unit(v)
}

// angleBetween returns the angle in radians between two unit vectors.
func angleBetween(a, b r3.Vec) float64 {
	d := clamp(r3.Dot(a, b), -1, 1)
	return math.Acos(d)
}

// Pan translates the camera along its local right/up axes. Only honoured
// in FreeCamera mode; manual control is unsmoothed, so the target is
// pinned to the moved pose.
func (c *Camera) Pan(rightM, upM float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeFreeCamera {
		return
	}
	right := r3.Unit(r3.Cross(c.current.Look, c.current.Up))
	c.current.Position = r3.Add(c.current.Position,
		r3.Add(r3.Scale(rightM, right), r3.Scale(upM, c.current.Up)))
	c.target = c.current
}

// Zoom translates the camera along its look axis and re-clamps into the
// field bounds. FreeCamera only.
func (c *Camera) Zoom(forwardM float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeFreeCamera {
		return
	}
	c.current.Position = c.bounds.Clamp(
		r3.Add(c.current.Position, r3.Scale(forwardM, c.current.Look)))
	c.target = c.current
}

// Rotate applies manual orientation control: yaw about the world up
// axis, then pitch about the camera-local right axis, composed as
// axis-angle rotations. FreeCamera only.
func (c *Camera) Rotate(yawDeg, pitchDeg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeFreeCamera {
		return
	}

	yaw := r3.NewRotation(yawDeg*math.Pi/180, r3.Vec{Z: 1})
	look := yaw.Rotate(c.current.Look)
	up := yaw.Rotate(c.current.Up)

	right := r3.Unit(r3.Cross(look, up))
	pitch := r3.NewRotation(pitchDeg*math.Pi/180, right)
	look = pitch.Rotate(look)
	up = pitch.Rotate(up)

	c.current.Look = r3.Unit(look)
	c.current.Up = r3.Unit(up)
	c.target = c.current
}
