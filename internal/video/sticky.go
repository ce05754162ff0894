package video

import (
	"math"
	"sync"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// StickyConfig tunes the continuity filter.
type StickyConfig struct {
	// MaxJump is the maximum normalized center distance the ball may travel
	// between consecutive detections before the new detection is treated as
	// a false positive.
	MaxJump float64
	// HighConf bypasses the jump gate: a detection at or above this
	// confidence is always accepted.
	HighConf float64
	// MaxMisses is how many rejected or absent frames are tolerated before
	// the filter forgets its anchor and accepts the next detection.
	MaxMisses int
}

// DefaultStickyConfig returns the production continuity settings. The gate is
// deliberately permissive; aggressive motion filtering was observed to drop
// valid detections after fast play and camera handoffs.
func DefaultStickyConfig() StickyConfig {
	return StickyConfig{
		MaxJump:   0.35,
		HighConf:  0.60,
		MaxMisses: 5,
	}
}

// StickyTracker wraps a Detector with short-term continuity: detections that
// jump implausibly far from the last accepted position are suppressed. It
// implements both switcher.Detector and switcher.StickyTracker; the engine
// resets it on every active-camera change, since positions on the previous
// camera say nothing about the new one.
type StickyTracker struct {
	inner switcher.Detector
	cfg   StickyConfig

	mu       sync.Mutex
	anchored bool
	lastCX   float64
	lastCY   float64
	misses   int
}

// NewStickyTracker wraps inner with the continuity filter.
func NewStickyTracker(inner switcher.Detector, cfg StickyConfig) *StickyTracker {
	return &StickyTracker{inner: inner, cfg: cfg}
}

// Detect runs the inner detector and applies the continuity gate.
func (t *StickyTracker) Detect(f switcher.Frame) (switcher.Detection, error) {
	det, err := t.inner.Detect(f)
	if err != nil {
		return switcher.Detection{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !det.Found {
		t.miss()
		return det, nil
	}

	if t.anchored && det.Conf < t.cfg.HighConf {
		dx := det.CX - t.lastCX
		dy := det.CY - t.lastCY
		if math.Hypot(dx, dy) > t.cfg.MaxJump {
			t.miss()
			return switcher.Detection{}, nil
		}
	}

	t.anchored = true
	t.lastCX = det.CX
	t.lastCY = det.CY
	t.misses = 0
	return det, nil
}

// miss counts a rejected or absent frame; enough of them drop the anchor.
// Callers hold t.mu.
func (t *StickyTracker) miss() {
	if !t.anchored {
		return
	}
	t.misses++
	if t.misses > t.cfg.MaxMisses {
		t.anchored = false
		t.misses = 0
	}
}

// Reset forgets the continuity anchor. Invoked on every active-camera change.
func (t *StickyTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.anchored = false
	t.misses = 0
	t.lastCX = 0
	t.lastCY = 0
}
