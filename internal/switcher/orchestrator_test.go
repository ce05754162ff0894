package switcher

import (
	"context"
	"testing"
	"time"

	"github.com/abdullah-azi/football-highlights/internal/timeutil"
)

func newTestOrchestrator(t *testing.T, cfg Config, det Detector, sources map[CameraID]FrameSource, sink EventSink, sticky StickyTracker) *Orchestrator {
	t.Helper()
	zones, routes := twoCamZones()
	o, err := New(Options{
		Zones:       zones,
		Routes:      routes,
		Config:      cfg,
		StartCamera: 0,
		Sources:     sources,
		Detector:    det,
		Sticky:      sticky,
		Sink:        sink,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func twoCamSources(frames0, frames1 int) map[CameraID]FrameSource {
	return map[CameraID]FrameSource{
		0: &fakeSource{cam: 0, frames: frames0},
		1: &fakeSource{cam: 1, frames: frames1},
	}
}

func TestNewValidation(t *testing.T) {
	zones, routes := twoCamZones()
	base := Options{
		Zones:    zones,
		Routes:   routes,
		Config:   DefaultConfig(),
		Sources:  twoCamSources(10, 10),
		Detector: newScriptDetector(),
	}

	if _, err := New(base); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}

	bad := base
	bad.Detector = nil
	if _, err := New(bad); err == nil {
		t.Error("expected error for missing detector")
	}

	bad = base
	bad.Sources = map[CameraID]FrameSource{0: &fakeSource{cam: 0, frames: 10}}
	if _, err := New(bad); err == nil {
		t.Error("expected error for camera without a frame source")
	}

	bad = base
	bad.Config.ArmThreshold = 0
	if _, err := New(bad); err == nil {
		t.Error("expected error for invalid tunables")
	}

	bad = base
	bad.Routes = RoutingTable{0: {"RIGHT": 1}}
	if _, err := New(bad); err == nil {
		t.Error("expected error for unrouted zone")
	}
}

func TestRunZoneSwitchEndToEnd(t *testing.T) {
	cfg := testConfig()
	det := newScriptDetector()
	// Ball sits in camera 0's RIGHT zone for the first three frames.
	for i := 0; i < 3; i++ {
		det.set(0, i, inRight)
	}
	sink := newRecordingSink()
	sticky := &countingSticky{}
	o := newTestOrchestrator(t, cfg, det, twoCamSources(10, 10), sink, sticky)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	ev := events[0]
	if ev.Frame != 2 || ev.FromCam != 0 || ev.ToCam != 1 || ev.Zone != "RIGHT" {
		t.Errorf("event = %+v, want frame 2, 0->1 via RIGHT", ev)
	}
	if ev.SessionID != o.SessionID() {
		t.Errorf("event session %q != orchestrator session %q", ev.SessionID, o.SessionID())
	}
	if sticky.resets != 1 {
		t.Errorf("sticky resets = %d, want 1", sticky.resets)
	}

	// Camera 0 was read for frames 0..2, camera 1 for its full ten frames.
	if sink.usage[0] != 3 || sink.usage[1] != 10 {
		t.Errorf("usage = %v, want map[0:3 1:10]", sink.usage)
	}

	snap := o.Snapshot()
	if snap.Running {
		t.Error("Running still true after Run returned")
	}
	if snap.ActiveCam != 1 || snap.Switches != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRunFallbackScanEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackScanTimeoutFrames = 5
	cfg.CooldownFrames = 3

	det := newScriptDetector()
	// Camera 0 never sees the ball. By frame 5 it has been lost for the full
	// timeout; the scan probes the other cameras at camera 0's read position.
	det.set(1, 6, ballAt(0.5, 0.5, 0.5))

	sink := newRecordingSink()
	sticky := &countingSticky{}
	o := newTestOrchestrator(t, cfg, det, twoCamSources(20, 12), sink, sticky)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	ev := events[0]
	if ev.Frame != 5 || ev.FromCam != 0 || ev.ToCam != 1 {
		t.Errorf("event = %+v, want frame 5, 0->1", ev)
	}
	if ev.Zone != FallbackScanZone {
		t.Errorf("Zone = %q, want %q", ev.Zone, FallbackScanZone)
	}
	if sticky.resets != 1 {
		t.Errorf("sticky resets = %d, want 1", sticky.resets)
	}

	snap := o.Snapshot()
	if snap.ActiveCam != 1 {
		t.Errorf("ActiveCam = %d, want 1", snap.ActiveCam)
	}
	// The scan frame consumed its switch opportunity without an emit, so
	// camera 0's usage covers frames 0..5 minus the scan frame itself.
	if sink.usage[0] != 5 {
		t.Errorf("usage[0] = %d, want 5", sink.usage[0])
	}
}

func TestFallbackScanBypassesLoopDetector(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackScanTimeoutFrames = 5
	cfg.CooldownFrames = 3

	// The loop detector models a continuity filter anchored to the active
	// camera: it suppresses everything, including the recovery candidate a
	// raw probe of camera 1 would see at moderate confidence. The scan must
	// go through the raw detector or recovery never happens.
	loopDet := newScriptDetector()
	scanDet := newScriptDetector()
	scanDet.set(1, 6, ballAt(0.9, 0.5, 0.5))

	zones, routes := twoCamZones()
	sink := newRecordingSink()
	o, err := New(Options{
		Zones:        zones,
		Routes:       routes,
		Config:       cfg,
		StartCamera:  0,
		Sources:      twoCamSources(20, 12),
		Detector:     loopDet,
		ScanDetector: scanDet,
		Sink:         sink,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	ev := events[0]
	if ev.Frame != 5 || ev.FromCam != 0 || ev.ToCam != 1 || ev.Zone != FallbackScanZone {
		t.Errorf("event = %+v, want fallback switch 0->1 at frame 5", ev)
	}
	if ev.Conf != 0.5 {
		t.Errorf("Conf = %v, want 0.5 from the raw probe", ev.Conf)
	}
}

func TestRunCooldownSpacesSwitches(t *testing.T) {
	cfg := testConfig()
	cfg.ArmThreshold = 2
	cfg.MissTolerance = 0
	cfg.CooldownFrames = 4
	cfg.EnableFallbackScan = false

	det := newScriptDetector()
	// Ball permanently in an exit zone on both cameras: the rig ping-pongs
	// as fast as the cooldown allows.
	for i := 0; i < 60; i++ {
		det.set(0, i, inRight)
		det.set(1, i, ballAt(0.1, 0.5, 0.8))
	}

	sink := newRecordingSink()
	o := newTestOrchestrator(t, cfg, det, twoCamSources(60, 60), sink, nil)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := sink.Events()
	if len(events) < 3 {
		t.Fatalf("expected repeated switches, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		delta := events[i].Frame - events[i-1].Frame
		if delta < cfg.CooldownFrames {
			t.Errorf("switches at frames %d and %d violate %d-frame cooldown",
				events[i-1].Frame, events[i].Frame, cfg.CooldownFrames)
		}
	}
}

func TestDetectorErrorTreatedAsAbsence(t *testing.T) {
	cfg := testConfig()
	det := newScriptDetector()
	det.set(0, 0, inRight)
	det.set(0, 1, inRight)
	det.failAt(0, 2) // would have been the firing frame
	det.set(0, 3, inRight)

	sink := newRecordingSink()
	o := newTestOrchestrator(t, cfg, det, twoCamSources(6, 6), sink, nil)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The error frame counts as a tolerated miss, so the switch lands on the
	// next in-zone frame instead.
	events := sink.Events()
	if len(events) != 1 || events[0].Frame != 3 {
		t.Fatalf("events = %+v, want one switch at frame 3", events)
	}
}

func TestEventsStampedFromClock(t *testing.T) {
	at := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	det := newScriptDetector()
	for i := 0; i < 3; i++ {
		det.set(0, i, inRight)
	}
	sink := newRecordingSink()

	zones, routes := twoCamZones()
	o, err := New(Options{
		Zones:    zones,
		Routes:   routes,
		Config:   testConfig(),
		Sources:  twoCamSources(5, 5),
		Detector: det,
		Sink:     sink,
		Clock:    timeutil.NewMockClock(at),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].At.Equal(at) {
		t.Errorf("At = %v, want %v", events[0].At, at)
	}
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(t, testConfig(), newScriptDetector(), twoCamSources(10, 10), nil, nil)
	if err := o.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if o.Snapshot().Frame != 0 {
		t.Error("frames processed after pre-cancelled context")
	}
}

func TestRequestResetDropsArming(t *testing.T) {
	cfg := testConfig()
	det := newScriptDetector()
	det.set(0, 0, inRight)
	det.set(0, 1, inRight)
	det.set(0, 2, inRight) // would fire without the reset

	sink := newRecordingSink()
	o := newTestOrchestrator(t, cfg, det, twoCamSources(5, 5), sink, nil)

	// Advance two frames by hand, then request a reset: Run consumes the
	// request at the next frame boundary, before frame 2 is processed.
	o.step()
	o.step()
	if snap := o.Snapshot(); snap.ArmedZone != "RIGHT" || snap.ArmCount != 2 {
		t.Fatalf("pre-reset snapshot = %+v", snap)
	}
	o.RequestReset()

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if events := sink.Events(); len(events) != 0 {
		t.Fatalf("arming survived reset, events = %+v", events)
	}
}

func TestResetRestoresStartupState(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(), newScriptDetector(), twoCamSources(5, 5), nil, nil)
	o.state.ActiveCam = 1
	o.state.ArmedZone = "LEFT"
	o.state.ArmCount = 2
	o.state.LastSwitchFrame = 40

	o.Reset()

	snap := o.Snapshot()
	if snap.ActiveCam != 0 || snap.ArmedZone != NoZone || snap.ArmCount != 0 {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
}
