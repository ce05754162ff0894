package switcher

import "fmt"

// Config holds the resolved tunables of the decision engine. Values are
// frame-counted, not wall-clock: the loop is frame-synchronous and one
// decision is made per processed frame.
type Config struct {
	ArmThreshold              int     // consecutive in-zone frames before a zone switch may fire
	MissTolerance             int     // consecutive misses tolerated before de-arming
	CooldownFrames            int     // minimum frames between any two switches
	FallbackScanTimeoutFrames int     // frames without the ball before scanning other cameras
	FallbackScanMinConf       float64 // minimum confidence for a fallback candidate
	BallConfThresh            float64 // detector-level minimum confidence for a ball detection
	EnableFallbackScan        bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ArmThreshold:              3,
		MissTolerance:             2,
		CooldownFrames:            30,
		FallbackScanTimeoutFrames: 30,
		FallbackScanMinConf:       0.20,
		BallConfThresh:            0.15,
		EnableFallbackScan:        true,
	}
}

// Validate checks that the configuration values are within operating range.
func (c Config) Validate() error {
	if c.ArmThreshold < 1 {
		return fmt.Errorf("arm_threshold must be >= 1, got %d", c.ArmThreshold)
	}
	if c.MissTolerance < 0 {
		return fmt.Errorf("miss_tolerance must be >= 0, got %d", c.MissTolerance)
	}
	if c.CooldownFrames < 0 {
		return fmt.Errorf("cooldown_frames must be >= 0, got %d", c.CooldownFrames)
	}
	if c.FallbackScanTimeoutFrames < 1 {
		return fmt.Errorf("fallback_scan_timeout_frames must be >= 1, got %d", c.FallbackScanTimeoutFrames)
	}
	if c.FallbackScanMinConf < 0 || c.FallbackScanMinConf > 1 {
		return fmt.Errorf("fallback_scan_min_conf must be in [0,1], got %f", c.FallbackScanMinConf)
	}
	if c.BallConfThresh < 0 || c.BallConfThresh > 1 {
		return fmt.Errorf("ball_conf_thresh must be in [0,1], got %f", c.BallConfThresh)
	}
	return nil
}

// CooldownGate rate-limits switches: while active, neither the zone arbiter
// nor the fallback scanner may fire.
type CooldownGate struct {
	Frames int
}

// Active reports whether a switch occurred fewer than Frames frames ago.
func (g CooldownGate) Active(s *SwitchState, frame int) bool {
	return frame-s.LastSwitchFrame < g.Frames
}
