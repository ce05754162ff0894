package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// DefaultTuningPath is the path to the canonical tuning defaults file. It is
// the single source of truth for all default switching parameters.
const DefaultTuningPath = "config/switcher.defaults.json"

// Tuning represents the switching tunables as loaded from JSON. Every field
// is a pointer so that partial files are safe: fields omitted from the JSON
// keep their defaults via the Get* accessors.
type Tuning struct {
	ArmThreshold              *int     `json:"arm_threshold,omitempty"`
	MissTolerance             *int     `json:"miss_tolerance,omitempty"`
	CooldownFrames            *int     `json:"cooldown_frames,omitempty"`
	FallbackScanTimeoutFrames *int     `json:"fallback_scan_timeout_frames,omitempty"`
	FallbackScanMinConf       *float64 `json:"fallback_scan_min_conf,omitempty"`
	BallConfThresh            *float64 `json:"ball_conf_thresh,omitempty"`
	EnableFallbackScan        *bool    `json:"enable_fallback_scan,omitempty"`
}

// EmptyTuning returns a Tuning with all fields unset.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The file must have a .json
// extension and stay under the size cap.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	t := EmptyTuning()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}

// Validate checks that any set fields are within operating ranges. Range
// checks on the resolved values run again inside the engine; this catches
// file mistakes with the file path still in hand.
func (t *Tuning) Validate() error {
	if t.ArmThreshold != nil && *t.ArmThreshold < 1 {
		return fmt.Errorf("arm_threshold must be >= 1, got %d", *t.ArmThreshold)
	}
	if t.MissTolerance != nil && *t.MissTolerance < 0 {
		return fmt.Errorf("miss_tolerance must be >= 0, got %d", *t.MissTolerance)
	}
	if t.CooldownFrames != nil && *t.CooldownFrames < 0 {
		return fmt.Errorf("cooldown_frames must be >= 0, got %d", *t.CooldownFrames)
	}
	if t.FallbackScanTimeoutFrames != nil && *t.FallbackScanTimeoutFrames < 1 {
		return fmt.Errorf("fallback_scan_timeout_frames must be >= 1, got %d", *t.FallbackScanTimeoutFrames)
	}
	if t.FallbackScanMinConf != nil && (*t.FallbackScanMinConf < 0 || *t.FallbackScanMinConf > 1) {
		return fmt.Errorf("fallback_scan_min_conf must be between 0 and 1, got %f", *t.FallbackScanMinConf)
	}
	if t.BallConfThresh != nil && (*t.BallConfThresh < 0 || *t.BallConfThresh > 1) {
		return fmt.Errorf("ball_conf_thresh must be between 0 and 1, got %f", *t.BallConfThresh)
	}
	return nil
}

// GetArmThreshold returns the arm_threshold value or the default.
func (t *Tuning) GetArmThreshold() int {
	if t.ArmThreshold == nil {
		return 3
	}
	return *t.ArmThreshold
}

// GetMissTolerance returns the miss_tolerance value or the default.
func (t *Tuning) GetMissTolerance() int {
	if t.MissTolerance == nil {
		return 2
	}
	return *t.MissTolerance
}

// GetCooldownFrames returns the cooldown_frames value or the default.
func (t *Tuning) GetCooldownFrames() int {
	if t.CooldownFrames == nil {
		return 30
	}
	return *t.CooldownFrames
}

// GetFallbackScanTimeoutFrames returns the fallback_scan_timeout_frames value or the default.
func (t *Tuning) GetFallbackScanTimeoutFrames() int {
	if t.FallbackScanTimeoutFrames == nil {
		return 30
	}
	return *t.FallbackScanTimeoutFrames
}

// GetFallbackScanMinConf returns the fallback_scan_min_conf value or the default.
func (t *Tuning) GetFallbackScanMinConf() float64 {
	if t.FallbackScanMinConf == nil {
		return 0.20
	}
	return *t.FallbackScanMinConf
}

// GetBallConfThresh returns the ball_conf_thresh value or the default.
// The default is deliberately low: high thresholds were observed to miss
// the ball far more often than they suppressed false positives.
func (t *Tuning) GetBallConfThresh() float64 {
	if t.BallConfThresh == nil {
		return 0.15
	}
	return *t.BallConfThresh
}

// GetEnableFallbackScan returns the enable_fallback_scan value or the default.
func (t *Tuning) GetEnableFallbackScan() bool {
	if t.EnableFallbackScan == nil {
		return true
	}
	return *t.EnableFallbackScan
}

// EngineConfig resolves the tuning into the engine's concrete configuration.
func (t *Tuning) EngineConfig() switcher.Config {
	return switcher.Config{
		ArmThreshold:              t.GetArmThreshold(),
		MissTolerance:             t.GetMissTolerance(),
		CooldownFrames:            t.GetCooldownFrames(),
		FallbackScanTimeoutFrames: t.GetFallbackScanTimeoutFrames(),
		FallbackScanMinConf:       t.GetFallbackScanMinConf(),
		BallConfThresh:            t.GetBallConfThresh(),
		EnableFallbackScan:        t.GetEnableFallbackScan(),
	}
}
