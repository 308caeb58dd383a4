// Package db records guidance telemetry to sqlite: the GPS track in
// local-frame coordinates, boom controller samples, and auto-mode
// transitions. Each service run gets a session row so telemetry can be
// correlated across restarts.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the telemetry database at path and
// applies any pending migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// BeginSession inserts a session row and returns its generated ID.
func (db *DB) BeginSession(startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, started_at) VALUES (?, ?)`,
		id, startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// RecordTrackPoint records one GPS-derived track point in the local
// frame. Speed is stored in m/s. qualityOK marks whether the fix met
// the configured quality bar; below-bar fixes are kept in the track for
// post-run analysis but flagged so consumers can filter them.
func (db *DB) RecordTrackPoint(sessionID string, t time.Time, northing, easting, altitudeM, speedMps, headingDeg float64, rtkFixed, qualityOK bool) error {
	_, err := db.Exec(
		`INSERT INTO gps_track (session_id, time, northing, easting, altitude_m, speed_mps, heading_deg, rtk_fixed, quality_ok)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, t.UTC().Format(time.RFC3339Nano),
		northing, easting, altitudeM, speedMps, headingDeg, rtkFixed, qualityOK,
	)
	if err != nil {
		return fmt.Errorf("record track point: %w", err)
	}
	return nil
}

// RecordBoomSample records one boom controller snapshot.
func (db *DB) RecordBoomSample(sessionID string, t time.Time, accuracyCm float64, sensorValid, autoMode bool, status string) error {
	_, err := db.Exec(
		`INSERT INTO boom_samples (session_id, time, accuracy_cm, sensor_valid, auto_mode, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, t.UTC().Format(time.RFC3339Nano),
		accuracyCm, sensorValid, autoMode, status,
	)
	if err != nil {
		return fmt.Errorf("record boom sample: %w", err)
	}
	return nil
}

// RecordAutoModeEvent records an auto-mode activation attempt or
// deactivation. reason is empty for successful activations.
func (db *DB) RecordAutoModeEvent(sessionID string, t time.Time, engaged bool, reason string) error {
	_, err := db.Exec(
		`INSERT INTO automode_events (session_id, time, engaged, reason) VALUES (?, ?, ?, ?)`,
		sessionID, t.UTC().Format(time.RFC3339Nano), engaged, reason,
	)
	if err != nil {
		return fmt.Errorf("record automode event: %w", err)
	}
	return nil
}

// TrackPointCount returns the number of track points recorded for a
// session.
func (db *DB) TrackPointCount(sessionID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM gps_track WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
