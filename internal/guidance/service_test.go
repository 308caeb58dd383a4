package guidance

import (
	"math"
	"testing"
	"time"

	"github.com/fieldworks-ag/guidance/internal/boom"
	"github.com/fieldworks-ag/guidance/internal/camera"
	"github.com/fieldworks-ag/guidance/internal/geo"
	"github.com/fieldworks-ag/guidance/internal/gps"
	"github.com/fieldworks-ag/guidance/internal/ingest"
	"github.com/fieldworks-ag/guidance/internal/monitoring"
	"github.com/fieldworks-ag/guidance/internal/terrain"
	"github.com/fieldworks-ag/guidance/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// fakeRecorder captures telemetry calls for assertions.
type fakeRecorder struct {
	trackPoints  int
	trackQuality []bool
	boomSamples  int
	events       []string
}

func (f *fakeRecorder) RecordTrackPoint(_ string, _ time.Time, _, _, _, _, _ float64, _, qualityOK bool) error {
	f.trackPoints++
	f.trackQuality = append(f.trackQuality, qualityOK)
	return nil
}

func (f *fakeRecorder) RecordBoomSample(string, time.Time, float64, bool, bool, string) error {
	f.boomSamples++
	return nil
}

func (f *fakeRecorder) RecordAutoModeEvent(_ string, _ time.Time, engaged bool, reason string) error {
	if engaged {
		f.events = append(f.events, "engaged")
	} else {
		f.events = append(f.events, reason)
	}
	return nil
}

func goodFix(lat, lon, heading float64) gps.Fix {
	return gps.Fix{
		Latitude:            lat,
		Longitude:           lon,
		AltitudeM:           12,
		SpeedKmh:            9,
		HeadingDeg:          heading,
		SatelliteCount:      14,
		HorizontalAccuracyM: 0.02,
		RTKFixed:            true,
		Time:                time.Now(),
	}
}

func newTestService(t *testing.T) (*Service, *fakeRecorder, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	rec := &fakeRecorder{}
	svc := NewService(
		geo.NewFrame(),
		terrain.NewSurface(),
		boom.NewController(boom.DefaultConfig(), clock),
		camera.New(),
		Options{
			MinSatellites:     6,
			MaxHorizontalAccM: 2.0,
			Recorder:          rec,
			SessionID:         "test-session",
		},
	)
	return svc, rec, clock
}

func TestFirstFixAnchorsFrame(t *testing.T) {
	svc, rec, _ := newTestService(t)

	if svc.Frame.Initialized() {
		t.Fatal("frame should start uninitialized")
	}
	if err := svc.HandleFix(goodFix(51.98, 5.66, 0)); err != nil {
		t.Fatal(err)
	}
	if !svc.Frame.Initialized() {
		t.Fatal("first usable fix must anchor the frame")
	}

	n, e, _, ok := svc.VehicleLocal()
	if !ok {
		t.Fatal("vehicle position should be known")
	}
	if n != 0 || e != 0 {
		t.Fatalf("first fix should sit at the frame origin, got (%v, %v)", n, e)
	}
	if rec.trackPoints != 1 {
		t.Fatalf("track points recorded = %d, want 1", rec.trackPoints)
	}
}

func TestLowQualityFixRecordedButHoldsCamera(t *testing.T) {
	svc, rec, _ := newTestService(t)

	// Before the frame is anchored there is nothing to localize against,
	// so a below-bar fix cannot even be recorded.
	unanchored := goodFix(51.98, 5.66, 0)
	unanchored.SatelliteCount = 3
	if err := svc.HandleFix(unanchored); err != nil {
		t.Fatal(err)
	}
	if svc.Frame.Initialized() {
		t.Fatal("low-quality fix must not anchor the frame")
	}
	if rec.trackPoints != 0 {
		t.Fatalf("unanchored low-quality fix must be dropped, got %d points", rec.trackPoints)
	}

	if err := svc.HandleFix(goodFix(51.98, 5.66, 0)); err != nil {
		t.Fatal(err)
	}
	targetBefore := svc.Camera.Target()
	nBefore, eBefore, _, _ := svc.VehicleLocal()

	bad := goodFix(51.99, 5.67, 0)
	bad.SatelliteCount = 3
	if err := svc.HandleFix(bad); err != nil {
		t.Fatal(err)
	}
	if svc.Camera.Target() != targetBefore {
		t.Fatal("low-quality fix must not retarget the camera")
	}
	if n, e, _, _ := svc.VehicleLocal(); n != nBefore || e != eBefore {
		t.Fatal("low-quality fix must not move the last known position")
	}
	if rec.trackPoints != 2 {
		t.Fatalf("low-quality fix must still be recorded, got %d points", rec.trackPoints)
	}

	inaccurate := goodFix(51.99, 5.67, 0)
	inaccurate.HorizontalAccuracyM = 5
	if err := svc.HandleFix(inaccurate); err != nil {
		t.Fatal(err)
	}
	if rec.trackPoints != 3 {
		t.Fatalf("inaccurate fix must still be recorded, got %d points", rec.trackPoints)
	}

	want := []bool{true, false, false}
	if len(rec.trackQuality) != len(want) {
		t.Fatalf("track quality flags = %v, want %v", rec.trackQuality, want)
	}
	for i := range want {
		if rec.trackQuality[i] != want[i] {
			t.Fatalf("track quality flags = %v, want %v", rec.trackQuality, want)
		}
	}
}

func TestFixFlowsToCamera(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.HandleFix(goodFix(51.98, 5.66, 0)); err != nil {
		t.Fatal(err)
	}
	// Second fix ~111m north of the origin.
	if err := svc.HandleFix(goodFix(51.981, 5.66, 0)); err != nil {
		t.Fatal(err)
	}

	n, e, _, _ := svc.VehicleLocal()
	if n < 100 || n > 120 {
		t.Fatalf("northing = %v, want ~111", n)
	}
	if math.Abs(e) > 1 {
		t.Fatalf("easting = %v, want ~0", e)
	}

	// Camera target Y tracks northing (X=east, Y=north).
	target := svc.Camera.Target()
	if target.Position.Y < 100 {
		t.Fatalf("camera target %+v did not follow the vehicle north", target.Position)
	}
}

func TestBoomFlowAndTelemetry(t *testing.T) {
	svc, rec, _ := newTestService(t)
	svc.Controller.SetActive(true)
	svc.Controller.SetTargetHeight(50)

	svc.HandleBoom(ingest.BoomReading{CenterHeightCm: 52, LeftHeightCm: 48, RightHeightCm: 50})
	svc.HandleGround(ingest.GroundReading{CenterCm: 50, LeftCm: 50, RightCm: 50}, time.Now())

	if rec.boomSamples != 1 {
		t.Fatalf("boom samples recorded = %d, want 1", rec.boomSamples)
	}
	snap := svc.Controller.Snapshot()
	if !snap.SensorDataValid {
		t.Fatal("sensors should be valid")
	}
	if math.Abs(snap.AccuracyCm-1.632993) > 1e-3 {
		t.Fatalf("accuracy = %v", snap.AccuracyCm)
	}
}

func TestAutoModeEventsRecorded(t *testing.T) {
	svc, rec, _ := newTestService(t)

	// Inactive system: refusal recorded with reason.
	if err := svc.ActivateAutoMode(time.Now()); err == nil {
		t.Fatal("activation should fail on inactive system")
	}

	svc.Controller.SetActive(true)
	svc.HandleBoom(ingest.BoomReading{CenterHeightCm: 50, LeftHeightCm: 50, RightHeightCm: 50})
	svc.HandleGround(ingest.GroundReading{CenterCm: 50, LeftCm: 50, RightCm: 50}, time.Now())
	if err := svc.ActivateAutoMode(time.Now()); err != nil {
		t.Fatal(err)
	}
	svc.DeactivateAutoMode(time.Now())

	want := []string{"system must be active", "engaged", "deactivated"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", rec.events, want)
		}
	}
}

func TestSuggestTarget(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Flat-then-rising terrain: 0m elevation, with a 0.5m rise along +Y
	// (north) beyond y=40. Grid covers 100x100m at 10m cells, origin at
	// (-50, -50) so the vehicle origin sits mid-grid.
	values := make([]float64, 11*11)
	for row := 0; row < 11; row++ {
		for col := 0; col < 11; col++ {
			if row >= 9 { // y >= 40
				values[row*11+col] = 0.5
			}
		}
	}
	if err := svc.Surface.Load(values, 11, 11, -50, -50, 10, 10); err != nil {
		t.Fatal(err)
	}

	svc.Controller.SetTargetHeight(50)

	// No fix yet: no suggestion.
	if _, ok := svc.SuggestTarget(40); ok {
		t.Fatal("suggestion without a fix should fail")
	}

	if err := svc.HandleFix(goodFix(51.98, 5.66, 0)); err != nil {
		t.Fatal(err)
	}

	// Heading north, 45m look-ahead lands on the rise.
	got, ok := svc.SuggestTarget(45)
	if !ok {
		t.Fatal("suggestion should be available inside the grid")
	}
	if got <= 50 || got > 100 {
		t.Fatalf("suggested target = %v, want above current 50 and clamped below 100", got)
	}

	// A huge look-ahead leaves the grid: no data.
	if _, ok := svc.SuggestTarget(10000); ok {
		t.Fatal("suggestion beyond the grid should fail")
	}
}

func TestTickDrivesCamera(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.HandleFix(goodFix(51.98, 5.66, 90)); err != nil {
		t.Fatal(err)
	}
	before := svc.Camera.Current()
	for i := 0; i < 10; i++ {
		svc.Tick(1.0 / 60.0)
	}
	if svc.Camera.Current() == before {
		t.Fatal("ticking should move the camera toward its target")
	}
}

func TestHandleLineRouting(t *testing.T) {
	svc, rec, _ := newTestService(t)
	at := time.Date(2026, 6, 1, 8, 0, 1, 0, time.UTC)

	lines := []string{
		"$FIX,51.9800000,5.6600000,12.0,9.0,0.0,14,0.02,1",
		"$BOOM,52.0,48.0,50.0,1.5,-1.0",
		"$GND,50.0,50.0,50.0",
		"$HYD,40.0,60.0,55.0",
		"$DBG,firmware v2.1.4", // unknown, ignored
	}
	for _, line := range lines {
		if err := svc.HandleLine(line, at); err != nil {
			t.Fatalf("HandleLine(%q): %v", line, err)
		}
	}

	if _, ok := svc.LastFix(); !ok {
		t.Fatal("fix line should reach the service")
	}
	if rec.trackPoints != 1 {
		t.Fatalf("expected 1 track point, got %d", rec.trackPoints)
	}
	if rec.boomSamples != 1 {
		t.Fatalf("expected 1 boom sample, got %d", rec.boomSamples)
	}
	snap := svc.Controller.Snapshot()
	if !snap.SensorDataValid {
		t.Fatal("boom and ground lines should produce valid sensor data")
	}
}

func TestHandleLineBadPayload(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.HandleLine("$GND,50.0,xx,50.0", time.Now()); err == nil {
		t.Fatal("malformed field should return an error")
	}
}
