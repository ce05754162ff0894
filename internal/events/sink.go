package events

import (
	"github.com/abdullah-azi/football-highlights/internal/monitoring"
	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// Sink adapts the store to the engine's append-only telemetry interface.
// Persistence failures are logged and swallowed: telemetry must never abort
// the frame loop.
type Sink struct {
	store *Store
}

// NewSink wraps the store as a switcher.EventSink.
func NewSink(store *Store) *Sink {
	return &Sink{store: store}
}

// RecordSwitch appends the event to the database.
func (s *Sink) RecordSwitch(ev switcher.SwitchEvent) {
	if err := s.store.InsertSwitchEvent(ev); err != nil {
		monitoring.Logf("events: record switch at frame %d: %v", ev.Frame, err)
	}
}

// RecordUsage stores the cumulative frame count for one camera.
func (s *Sink) RecordUsage(sessionID string, cam switcher.CameraID, frames int64) {
	if err := s.store.UpsertCameraUsage(sessionID, cam, frames); err != nil {
		monitoring.Logf("events: record usage for camera %d: %v", cam, err)
	}
}
