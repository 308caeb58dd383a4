package boom

import "time"

// SectionSnapshot is a copy of one section's state for reporting.
type SectionSnapshot struct {
	ID               SectionID `json:"id"`
	HeightCm         float64   `json:"height_cm"`
	TargetCm         float64   `json:"target_cm"`
	AngleDeg         float64   `json:"angle_deg"`
	HydraulicPct     float64   `json:"hydraulic_pct"`
	GroundDistanceCm float64   `json:"ground_distance_cm"`
	LastUpdate       time.Time `json:"last_update"`
}

// Snapshot is a consistent copy of the controller state for the status
// API and telemetry recording.
type Snapshot struct {
	Active           bool              `json:"active"`
	AutoMode         bool              `json:"auto_mode"`
	SensorDataValid  bool              `json:"sensor_data_valid"`
	AccuracyCm       float64           `json:"accuracy_cm"`
	State            State             `json:"state"`
	Status           string            `json:"status"`
	LastSensorUpdate time.Time         `json:"last_sensor_update"`
	Sections         []SectionSnapshot `json:"sections"`
}

// Snapshot returns a copy of the full controller state taken under one
// lock acquisition, so section values and flags are mutually consistent.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Active:           c.active,
		AutoMode:         c.autoMode,
		SensorDataValid:  c.sensorDataValid,
		AccuracyCm:       c.accuracyCm,
		State:            c.stateLocked(),
		LastSensorUpdate: c.lastSensorUpdate,
		Sections: []SectionSnapshot{
			sectionSnapshot(c.center),
			sectionSnapshot(c.left),
			sectionSnapshot(c.right),
		},
	}
	snap.Status = c.statusLocked()
	return snap
}

func sectionSnapshot(s Section) SectionSnapshot {
	return SectionSnapshot{
		ID:               s.ID,
		HeightCm:         s.HeightCm,
		TargetCm:         s.TargetCm,
		AngleDeg:         s.AngleDeg,
		HydraulicPct:     s.HydraulicPct,
		GroundDistanceCm: s.GroundDistanceCm,
		LastUpdate:       s.LastUpdate,
	}
}
