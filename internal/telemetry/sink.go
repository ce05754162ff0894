// Package telemetry fans switch events out to external consumers: the
// process log and, when configured, a Kafka topic.
package telemetry

import (
	"github.com/abdullah-azi/football-highlights/internal/monitoring"
	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// LogSink writes switch events to the diagnostic log.
type LogSink struct{}

// RecordSwitch logs the event.
func (LogSink) RecordSwitch(ev switcher.SwitchEvent) {
	monitoring.Logf("telemetry: frame=%06d %d->%d zone=%s conf=%.2f reason=%q",
		ev.Frame, ev.FromCam, ev.ToCam, ev.Zone, ev.Conf, ev.Reason)
}

// RecordUsage logs the cumulative per-camera frame count.
func (LogSink) RecordUsage(sessionID string, cam switcher.CameraID, frames int64) {
	monitoring.Logf("telemetry: session=%s camera=%d frames=%d", sessionID, cam, frames)
}

// MultiSink fans each record out to every child sink in order.
type MultiSink []switcher.EventSink

// RecordSwitch forwards the event to all sinks.
func (m MultiSink) RecordSwitch(ev switcher.SwitchEvent) {
	for _, s := range m {
		s.RecordSwitch(ev)
	}
}

// RecordUsage forwards the usage counter to all sinks.
func (m MultiSink) RecordUsage(sessionID string, cam switcher.CameraID, frames int64) {
	for _, s := range m {
		s.RecordUsage(sessionID, cam, frames)
	}
}
