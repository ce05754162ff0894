package switcher

import (
	"fmt"
	"sync"
)

// fakeFrame is a deterministic stand-in for a decoded frame.
type fakeFrame struct {
	cam CameraID
	idx int
}

func (f *fakeFrame) FrameIndex() int { return f.idx }
func (f *fakeFrame) Close()          {}

// fakeSource is an index-addressable frame source over a fixed-length clip.
type fakeSource struct {
	cam     CameraID
	frames  int
	pos     int
	seekErr bool
	readErr bool
}

func (s *fakeSource) ReadNext() (Frame, bool) {
	if s.readErr || s.pos >= s.frames {
		return nil, false
	}
	f := &fakeFrame{cam: s.cam, idx: s.pos}
	s.pos++
	return f, true
}

func (s *fakeSource) Seek(frameIndex int) error {
	if s.seekErr {
		return fmt.Errorf("seek failure on camera %d", s.cam)
	}
	s.pos = frameIndex
	return nil
}

func (s *fakeSource) Position() int { return s.pos }

// camFrame keys a scripted detection by camera and frame index.
type camFrame struct {
	cam CameraID
	idx int
}

// scriptDetector returns scripted detections per (camera, frame index).
// Unscripted frames yield absence; frames in errAt yield an error.
type scriptDetector struct {
	dets  map[camFrame]Detection
	errAt map[camFrame]bool
}

func newScriptDetector() *scriptDetector {
	return &scriptDetector{
		dets:  make(map[camFrame]Detection),
		errAt: make(map[camFrame]bool),
	}
}

func (d *scriptDetector) set(cam CameraID, idx int, det Detection) {
	d.dets[camFrame{cam, idx}] = det
}

func (d *scriptDetector) failAt(cam CameraID, idx int) {
	d.errAt[camFrame{cam, idx}] = true
}

func (d *scriptDetector) Detect(f Frame) (Detection, error) {
	ff, ok := f.(*fakeFrame)
	if !ok {
		return Detection{}, fmt.Errorf("unexpected frame type %T", f)
	}
	key := camFrame{ff.cam, ff.idx}
	if d.errAt[key] {
		return Detection{}, fmt.Errorf("scripted detector failure at camera %d frame %d", ff.cam, ff.idx)
	}
	return d.dets[key], nil
}

// recordingSink captures every event and usage record.
type recordingSink struct {
	mu     sync.Mutex
	events []SwitchEvent
	usage  map[CameraID]int64
}

func newRecordingSink() *recordingSink {
	return &recordingSink{usage: make(map[CameraID]int64)}
}

func (s *recordingSink) RecordSwitch(ev SwitchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) RecordUsage(_ string, cam CameraID, frames int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[cam] = frames
}

func (s *recordingSink) Events() []SwitchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SwitchEvent(nil), s.events...)
}

// countingSticky counts Reset calls.
type countingSticky struct {
	resets int
}

func (c *countingSticky) Reset() { c.resets++ }

// ballAt returns a detection with the given normalized center.
func ballAt(cx, cy, conf float64) Detection {
	return Detection{Found: true, CX: cx, CY: cy, Conf: conf}
}

// twoCamZones is the minimal valid two-camera rig: camera 0 exits right to
// camera 1, camera 1 exits left to camera 0.
func twoCamZones() (ZoneMap, RoutingTable) {
	zones := ZoneMap{
		0: {{Name: "RIGHT", X0: 0.85, Y0: 0, X1: 1, Y1: 1}},
		1: {{Name: "LEFT", X0: 0, Y0: 0, X1: 0.15, Y1: 1}},
	}
	routes := RoutingTable{
		0: {"RIGHT": 1},
		1: {"LEFT": 0},
	}
	return zones, routes
}
