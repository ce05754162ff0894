package switcher

import "time"

// farPast initialises frame-counted timestamps so that "frames since" checks
// are inactive until the first real observation. Matches an effectively
// unbounded negative frame index without risking int overflow in deltas.
const farPast = -(1 << 30)

// SwitchState owns every mutable field of the switching decision engine. It
// is constructed once per session and mutated only by the arbiter, the
// fallback scanner and the orchestrator during the frame loop. All fields are
// present from construction; Reset restores each one to its startup value.
type SwitchState struct {
	ActiveCam       CameraID
	LastSwitchFrame int // frame of the most recent switch of either kind

	// Zone arming (hysteresis) state.
	ArmedZone         string // NoZone or a declared zone of ActiveCam
	ArmCount          int    // frames the ball has been seen in ArmedZone
	ZoneArmedFrame    int    // frame when ArmedZone was last (re)armed
	ZoneLastSeenFrame int    // last frame the ball was seen in ArmedZone

	// Miss tracking for zone-based switching.
	MissInZone    int // consecutive misses while a zone is armed
	MissNotInZone int // consecutive misses while no zone is armed

	// Fallback scanning.
	LastBallFoundFrame int // last frame the ball was found on the active camera
}

// NewSwitchState returns the startup state for the given active camera.
func NewSwitchState(active CameraID) *SwitchState {
	s := &SwitchState{}
	s.Reset(active)
	return s
}

// Reset reinitialises every mutable field to its startup value. It is
// idempotent: calling it repeatedly with the same camera yields the same
// state each time.
func (s *SwitchState) Reset(active CameraID) {
	s.ActiveCam = active
	s.LastSwitchFrame = farPast
	s.ArmedZone = NoZone
	s.ArmCount = 0
	s.ZoneArmedFrame = farPast
	s.ZoneLastSeenFrame = farPast
	s.MissInZone = 0
	s.MissNotInZone = 0
	s.LastBallFoundFrame = 0
}

// disarm clears the hysteresis state without touching the active camera.
func (s *SwitchState) disarm() {
	s.ArmedZone = NoZone
	s.ArmCount = 0
	s.MissInZone = 0
	s.MissNotInZone = 0
}

// FallbackScanZone is the zone name recorded on switch events produced by the
// cross-camera fallback scan rather than by zone arbitration.
const FallbackScanZone = "FALLBACK_SCAN"

// SwitchEvent is one append-only record of a camera switch.
type SwitchEvent struct {
	Frame     int       `json:"frame"`
	FromCam   CameraID  `json:"from_cam"`
	ToCam     CameraID  `json:"to_cam"`
	Zone      string    `json:"zone"` // zone name or FallbackScanZone
	Conf      float64   `json:"conf"`
	Reason    string    `json:"reason"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// EventSink consumes switch events and per-camera usage counters. Sinks are
// append-only telemetry consumers; they never influence switching decisions.
type EventSink interface {
	RecordSwitch(ev SwitchEvent)
	RecordUsage(sessionID string, cam CameraID, frames int64)
}
