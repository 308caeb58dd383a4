// Package config loads the guidance tuning configuration. The JSON
// schema uses pointer fields so partial configs are safe: anything
// omitted falls back to the defaults baked into the Get* methods.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for guidance tuning. The same
// schema is accepted at startup and for runtime updates via the API.
type TuningConfig struct {
	// Boom controller params
	BoomTargetMinCm       *float64 `json:"boom_target_min_cm,omitempty"`
	BoomTargetMaxCm       *float64 `json:"boom_target_max_cm,omitempty"`
	BoomGroundDistMinCm   *float64 `json:"boom_ground_dist_min_cm,omitempty"`
	BoomGroundDistMaxCm   *float64 `json:"boom_ground_dist_max_cm,omitempty"`
	BoomWingAngleLimitDeg *float64 `json:"boom_wing_angle_limit_deg,omitempty"`
	BoomStaleTimeout      *string  `json:"boom_stale_timeout,omitempty"` // duration string like "2s"

	// Camera params
	CameraFollowDamping   *float64 `json:"camera_follow_damping,omitempty"`
	CameraTransitionSpeed *float64 `json:"camera_transition_speed,omitempty"`

	// GPS quality gating
	GPSMinSatellites     *int     `json:"gps_min_satellites,omitempty"`
	GPSMaxHorizontalAccM *float64 `json:"gps_max_horizontal_acc_m,omitempty"`

	// Serial feeds
	GPSPort  *string `json:"gps_port,omitempty"`
	BoomPort *string `json:"boom_port,omitempty"`
	BaudRate *int    `json:"baud_rate,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.BoomTargetMinCm != nil && c.BoomTargetMaxCm != nil {
		if *c.BoomTargetMinCm >= *c.BoomTargetMaxCm {
			return fmt.Errorf("boom_target_min_cm (%f) must be below boom_target_max_cm (%f)",
				*c.BoomTargetMinCm, *c.BoomTargetMaxCm)
		}
	}
	if c.BoomWingAngleLimitDeg != nil && *c.BoomWingAngleLimitDeg <= 0 {
		return fmt.Errorf("boom_wing_angle_limit_deg must be positive, got %f", *c.BoomWingAngleLimitDeg)
	}
	if c.BoomStaleTimeout != nil && *c.BoomStaleTimeout != "" {
		if _, err := time.ParseDuration(*c.BoomStaleTimeout); err != nil {
			return fmt.Errorf("invalid boom_stale_timeout '%s': %w", *c.BoomStaleTimeout, err)
		}
	}
	if c.CameraFollowDamping != nil {
		if *c.CameraFollowDamping <= 0 || *c.CameraFollowDamping > 1 {
			return fmt.Errorf("camera_follow_damping must be in (0, 1], got %f", *c.CameraFollowDamping)
		}
	}
	if c.CameraTransitionSpeed != nil && *c.CameraTransitionSpeed <= 0 {
		return fmt.Errorf("camera_transition_speed must be positive, got %f", *c.CameraTransitionSpeed)
	}
	if c.GPSMinSatellites != nil && *c.GPSMinSatellites < 0 {
		return fmt.Errorf("gps_min_satellites must be non-negative, got %d", *c.GPSMinSatellites)
	}
	if c.GPSMaxHorizontalAccM != nil && *c.GPSMaxHorizontalAccM <= 0 {
		return fmt.Errorf("gps_max_horizontal_acc_m must be positive, got %f", *c.GPSMaxHorizontalAccM)
	}
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	return nil
}

// GetBoomTargetMinCm returns the boom_target_min_cm value or the default.
func (c *TuningConfig) GetBoomTargetMinCm() float64 {
	if c.BoomTargetMinCm == nil {
		return 20
	}
	return *c.BoomTargetMinCm
}

// GetBoomTargetMaxCm returns the boom_target_max_cm value or the default.
func (c *TuningConfig) GetBoomTargetMaxCm() float64 {
	if c.BoomTargetMaxCm == nil {
		return 100
	}
	return *c.BoomTargetMaxCm
}

// GetBoomGroundDistMinCm returns the boom_ground_dist_min_cm value or the default.
func (c *TuningConfig) GetBoomGroundDistMinCm() float64 {
	if c.BoomGroundDistMinCm == nil {
		return 10
	}
	return *c.BoomGroundDistMinCm
}

// GetBoomGroundDistMaxCm returns the boom_ground_dist_max_cm value or the default.
func (c *TuningConfig) GetBoomGroundDistMaxCm() float64 {
	if c.BoomGroundDistMaxCm == nil {
		return 200
	}
	return *c.BoomGroundDistMaxCm
}

// GetBoomWingAngleLimitDeg returns the boom_wing_angle_limit_deg value or the default.
func (c *TuningConfig) GetBoomWingAngleLimitDeg() float64 {
	if c.BoomWingAngleLimitDeg == nil {
		return 20
	}
	return *c.BoomWingAngleLimitDeg
}

// GetBoomStaleTimeout parses and returns the boom_stale_timeout as a duration.
func (c *TuningConfig) GetBoomStaleTimeout() time.Duration {
	if c.BoomStaleTimeout == nil || *c.BoomStaleTimeout == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(*c.BoomStaleTimeout)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetCameraFollowDamping returns the camera_follow_damping value or the default.
func (c *TuningConfig) GetCameraFollowDamping() float64 {
	if c.CameraFollowDamping == nil {
		return 0.08
	}
	return *c.CameraFollowDamping
}

// GetCameraTransitionSpeed returns the camera_transition_speed value or the default.
func (c *TuningConfig) GetCameraTransitionSpeed() float64 {
	if c.CameraTransitionSpeed == nil {
		return 2.0
	}
	return *c.CameraTransitionSpeed
}

// GetGPSMinSatellites returns the gps_min_satellites value or the default.
func (c *TuningConfig) GetGPSMinSatellites() int {
	if c.GPSMinSatellites == nil {
		return 6
	}
	return *c.GPSMinSatellites
}

// GetGPSMaxHorizontalAccM returns the gps_max_horizontal_acc_m value or the default.
func (c *TuningConfig) GetGPSMaxHorizontalAccM() float64 {
	if c.GPSMaxHorizontalAccM == nil {
		return 2.0
	}
	return *c.GPSMaxHorizontalAccM
}

// GetGPSPort returns the gps_port value or the default.
func (c *TuningConfig) GetGPSPort() string {
	if c.GPSPort == nil || *c.GPSPort == "" {
		return "/dev/ttyACM0"
	}
	return *c.GPSPort
}

// GetBoomPort returns the boom_port value or the default.
func (c *TuningConfig) GetBoomPort() string {
	if c.BoomPort == nil || *c.BoomPort == "" {
		return "/dev/ttyUSB0"
	}
	return *c.BoomPort
}

// GetBaudRate returns the baud_rate value or the default.
func (c *TuningConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 115200
	}
	return *c.BaudRate
}
