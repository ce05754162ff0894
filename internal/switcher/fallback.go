package switcher

import (
	"fmt"

	"github.com/abdullah-azi/football-highlights/internal/monitoring"
)

// FallbackScanner searches the other cameras for the ball after it has been
// lost on the active camera for too long. Probed sources are assumed
// frame-synchronized and index-addressable; probing moves their read cursors.
type FallbackScanner struct {
	cfg      Config
	zones    ZoneMap
	sources  map[CameraID]FrameSource
	detector Detector
	cooldown CooldownGate
}

// NewFallbackScanner builds a scanner over the per-camera sources.
func NewFallbackScanner(zones ZoneMap, sources map[CameraID]FrameSource, detector Detector, cfg Config) *FallbackScanner {
	return &FallbackScanner{
		cfg:      cfg,
		zones:    zones,
		sources:  sources,
		detector: detector,
		cooldown: CooldownGate{Frames: cfg.CooldownFrames},
	}
}

// ShouldScan reports whether the fallback trigger condition holds on this
// frame: scanning enabled, ball lost for at least the timeout, and no
// cooldown in effect.
func (f *FallbackScanner) ShouldScan(s *SwitchState, frame int) bool {
	if !f.cfg.EnableFallbackScan {
		return false
	}
	if frame-s.LastBallFoundFrame < f.cfg.FallbackScanTimeoutFrames {
		return false
	}
	return !f.cooldown.Active(s, frame)
}

// Scan probes every camera other than the active one at the active camera's
// absolute read position and switches to the highest-confidence candidate at
// or above FallbackScanMinConf, ties broken by earliest-probed (lowest ID)
// camera. Read or detect failures on a probed camera are logged and that
// camera is skipped. Returns a zero Decision when no candidate is found, in
// which case the frame falls through to normal zone arbitration.
func (f *FallbackScanner) Scan(s *SwitchState, frame int) Decision {
	active, ok := f.sources[s.ActiveCam]
	if !ok {
		return Decision{}
	}
	pos := active.Position()
	framesLost := frame - s.LastBallFoundFrame

	best := CameraID(-1)
	bestConf := 0.0

	for _, cam := range f.zones.Cameras() {
		if cam == s.ActiveCam {
			continue
		}
		src, ok := f.sources[cam]
		if !ok {
			continue
		}
		det, err := f.probe(src, pos)
		if err != nil {
			monitoring.Logf("fallback scan: camera %d skipped: %v", cam, err)
			continue
		}
		// Strict > keeps the earliest-probed camera on equal confidence.
		if det.Found && det.Conf >= f.cfg.FallbackScanMinConf && det.Conf > bestConf {
			best = cam
			bestConf = det.Conf
		}
	}

	if best < 0 {
		return Decision{}
	}

	from := s.ActiveCam
	s.ActiveCam = best
	s.LastSwitchFrame = frame
	s.LastBallFoundFrame = frame
	s.disarm()

	return Decision{
		Switch: true,
		From:   from,
		To:     best,
		Zone:   FallbackScanZone,
		Conf:   bestConf,
		Reason: fmt.Sprintf("ball lost for %d frames, recovered on camera %d with conf=%.2f", framesLost, best, bestConf),
	}
}

// probe seeks one camera to the scan position and runs detection on a single
// frame.
func (f *FallbackScanner) probe(src FrameSource, pos int) (Detection, error) {
	if err := src.Seek(pos); err != nil {
		return Detection{}, fmt.Errorf("seek to frame %d: %w", pos, err)
	}
	frm, ok := src.ReadNext()
	if !ok {
		return Detection{}, fmt.Errorf("read at frame %d: end of stream", pos)
	}
	defer frm.Close()

	det, err := f.detector.Detect(frm)
	if err != nil {
		return Detection{}, fmt.Errorf("detect at frame %d: %w", pos, err)
	}
	return det, nil
}
