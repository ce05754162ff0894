package switcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/abdullah-azi/football-highlights/internal/monitoring"
	"github.com/abdullah-azi/football-highlights/internal/timeutil"
)

// Orchestrator drives the frame-synchronous switching loop. Exactly one
// decision is made per processed frame and the two switch paths (fallback
// scan and zone arbitration) are mutually exclusive within a frame.
type Orchestrator struct {
	cfg      Config
	zones    ZoneMap
	routes   RoutingTable
	startCam CameraID

	sources  map[CameraID]FrameSource
	detector Detector
	sticky   StickyTracker
	sink     EventSink
	frames   FrameSink

	arbiter *Arbiter
	scanner *FallbackScanner

	clock     timeutil.Clock
	sessionID string

	mu       sync.RWMutex
	state    *SwitchState
	frameIdx int
	usage    map[CameraID]int64
	switches int64
	running  bool

	resetRequested atomic.Bool
}

// Options carries the collaborators of an orchestrator. Sources must contain
// one seekable frame source per camera in the zone map. Sticky, Sink and
// Frames may be nil, in which case they are replaced with no-ops.
type Options struct {
	Zones       ZoneMap
	Routes      RoutingTable
	Config      Config
	StartCamera CameraID // configured starting camera, resolved per the fallback order
	PreferStart CameraID // preferred default when the configured camera is invalid
	Sources     map[CameraID]FrameSource
	Detector    Detector
	// ScanDetector is used for fallback probes of other cameras; nil means
	// Detector. When Detector carries continuity state anchored to the
	// active camera, pass the underlying raw detector here so probes of
	// other cameras are judged on their own.
	ScanDetector Detector
	Sticky       StickyTracker
	Sink         EventSink
	Frames       FrameSink
	Clock        timeutil.Clock // nil means wall clock
}

// New validates the configuration and constructs the orchestrator. Zone or
// routing errors here are fatal: they are configuration defects, not runtime
// conditions.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tunables: %w", err)
	}
	if err := ValidateRouting(opts.Zones, opts.Routes); err != nil {
		return nil, fmt.Errorf("invalid zone routing: %w", err)
	}
	start, err := ResolveStartCamera(opts.StartCamera, opts.PreferStart, opts.Zones)
	if err != nil {
		return nil, fmt.Errorf("resolve start camera: %w", err)
	}
	if opts.Detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	for _, cam := range opts.Zones.Cameras() {
		if _, ok := opts.Sources[cam]; !ok {
			return nil, fmt.Errorf("camera %d: no frame source", cam)
		}
	}

	o := &Orchestrator{
		cfg:       opts.Config,
		zones:     opts.Zones,
		routes:    opts.Routes,
		startCam:  start,
		sources:   opts.Sources,
		detector:  opts.Detector,
		sticky:    opts.Sticky,
		sink:      opts.Sink,
		frames:    opts.Frames,
		clock:     opts.Clock,
		sessionID: uuid.New().String(),
		state:     NewSwitchState(start),
		usage:     make(map[CameraID]int64),
	}
	if o.sticky == nil {
		o.sticky = nopSticky{}
	}
	if o.sink == nil {
		o.sink = nopSink{}
	}
	if o.clock == nil {
		o.clock = timeutil.RealClock{}
	}
	scanDet := opts.ScanDetector
	if scanDet == nil {
		scanDet = opts.Detector
	}
	o.arbiter = NewArbiter(opts.Zones, opts.Routes, opts.Config)
	o.scanner = NewFallbackScanner(opts.Zones, opts.Sources, scanDet, opts.Config)
	return o, nil
}

// SessionID returns the unique identifier stamped on this run's events.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Run processes frames until end-of-stream on the active camera or until ctx
// is cancelled. Cancellation is observed at the top of each iteration; there
// is no mid-frame cancellation.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
		o.flushUsage()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if o.resetRequested.CompareAndSwap(true, false) {
			o.mu.Lock()
			o.state.Reset(o.startCam)
			o.mu.Unlock()
			monitoring.Logf("orchestrator: switch state reset to camera %d", o.startCam)
		}
		if !o.step() {
			return nil
		}
	}
}

// step executes one full frame iteration. It returns false at end-of-stream.
func (o *Orchestrator) step() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	frame := o.frameIdx
	cam := o.state.ActiveCam

	src := o.sources[cam]
	frm, ok := src.ReadNext()
	if !ok {
		monitoring.Logf("orchestrator: end of stream on camera %d at frame %d", cam, frame)
		return false
	}
	defer frm.Close()

	det, err := o.detector.Detect(frm)
	if err != nil {
		monitoring.Logf("orchestrator: detect failed on camera %d frame %d: %v", cam, frame, err)
		det = Detection{}
	}

	if det.Found && det.Conf >= o.cfg.FallbackScanMinConf {
		o.state.LastBallFoundFrame = frame
	}

	// Fallback scan and zone arbitration are mutually exclusive per frame:
	// a successful scan consumes the frame's one switch opportunity.
	if o.scanner.ShouldScan(o.state, frame) {
		if d := o.scanner.Scan(o.state, frame); d.Switch {
			o.recordSwitch(d, frame)
			o.sticky.Reset()
			o.frameIdx++
			return true
		}
	}

	if d := o.arbiter.Observe(o.state, frame, det); d.Switch {
		o.recordSwitch(d, frame)
		o.sticky.Reset()
	}

	o.usage[cam]++
	if o.frames != nil {
		if err := o.frames.EmitFrame(cam, frm); err != nil {
			monitoring.Logf("orchestrator: emit frame %d: %v", frame, err)
		}
	}
	o.frameIdx++
	return true
}

// recordSwitch appends the event to the telemetry sink. Callers hold o.mu.
func (o *Orchestrator) recordSwitch(d Decision, frame int) {
	o.switches++
	ev := SwitchEvent{
		Frame:     frame,
		FromCam:   d.From,
		ToCam:     d.To,
		Zone:      d.Zone,
		Conf:      d.Conf,
		Reason:    d.Reason,
		SessionID: o.sessionID,
		At:        o.clock.Now().UTC(),
	}
	o.sink.RecordSwitch(ev)
	monitoring.Logf("switch at frame %d: camera %d -> %d (%s, conf=%.2f)", frame, d.From, d.To, d.Zone, d.Conf)
}

// flushUsage pushes the per-camera frame counters to the sink.
func (o *Orchestrator) flushUsage() {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for cam, frames := range o.usage {
		o.sink.RecordUsage(o.sessionID, cam, frames)
	}
}

// RequestReset asks the loop to reinitialise the switch state to its startup
// values at the next frame boundary. Safe to call from other goroutines.
func (o *Orchestrator) RequestReset() {
	o.resetRequested.Store(true)
}

// Reset reinitialises the switch state immediately. Intended for use between
// runs or in tests; during a run prefer RequestReset.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Reset(o.startCam)
}

// Snapshot is a point-in-time copy of the orchestrator's observable state.
type Snapshot struct {
	SessionID          string             `json:"session_id"`
	Running            bool               `json:"running"`
	Frame              int                `json:"frame"`
	ActiveCam          CameraID           `json:"active_cam"`
	ArmedZone          string             `json:"armed_zone"`
	ArmCount           int                `json:"arm_count"`
	LastSwitchFrame    int                `json:"last_switch_frame"`
	LastBallFoundFrame int                `json:"last_ball_found_frame"`
	Switches           int64              `json:"switches"`
	Usage              map[CameraID]int64 `json:"camera_usage"`
}

// Snapshot returns a consistent copy of the loop state for telemetry readers.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	usage := make(map[CameraID]int64, len(o.usage))
	for cam, n := range o.usage {
		usage[cam] = n
	}
	return Snapshot{
		SessionID:          o.sessionID,
		Running:            o.running,
		Frame:              o.frameIdx,
		ActiveCam:          o.state.ActiveCam,
		ArmedZone:          o.state.ArmedZone,
		ArmCount:           o.state.ArmCount,
		LastSwitchFrame:    o.state.LastSwitchFrame,
		LastBallFoundFrame: o.state.LastBallFoundFrame,
		Switches:           o.switches,
		Usage:              usage,
	}
}

type nopSticky struct{}

func (nopSticky) Reset() {}

type nopSink struct{}

func (nopSink) RecordSwitch(SwitchEvent)            {}
func (nopSink) RecordUsage(string, CameraID, int64) {}
