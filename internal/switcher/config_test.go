package switcher

import "testing"

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	mutations := []struct {
		name string
		mut  func(*Config)
	}{
		{"arm_threshold zero", func(c *Config) { c.ArmThreshold = 0 }},
		{"miss_tolerance negative", func(c *Config) { c.MissTolerance = -1 }},
		{"cooldown negative", func(c *Config) { c.CooldownFrames = -1 }},
		{"scan timeout zero", func(c *Config) { c.FallbackScanTimeoutFrames = 0 }},
		{"scan conf above one", func(c *Config) { c.FallbackScanMinConf = 1.5 }},
		{"ball conf negative", func(c *Config) { c.BallConfThresh = -0.1 }},
	}
	for _, m := range mutations {
		cfg := DefaultConfig()
		m.mut(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", m.name)
		}
	}
}

func TestConfigZeroCooldownAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CooldownFrames = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero cooldown should be valid: %v", err)
	}
	s := NewSwitchState(0)
	s.LastSwitchFrame = 10
	if (CooldownGate{Frames: 0}).Active(s, 10) {
		t.Error("zero-frame cooldown must never be active")
	}
}
