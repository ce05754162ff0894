package switcher

import (
	"fmt"

	"github.com/abdullah-azi/football-highlights/internal/monitoring"
)

// Decision is the per-frame outcome of a switch path. A zero Decision means
// "hold the current camera".
type Decision struct {
	Switch bool
	From   CameraID
	To     CameraID
	Zone   string // zone name, or FallbackScanZone for fallback switches
	Conf   float64
	Reason string
}

// Arbiter is the hysteresis state machine for zone-based switching. A zone
// must be occupied for ArmThreshold consecutive frames (tolerating up to
// MissTolerance single-frame gaps) before a switch fires, which suppresses
// detector jitter and one-frame occlusion artifacts.
type Arbiter struct {
	zones    ZoneMap
	routes   RoutingTable
	cfg      Config
	cooldown CooldownGate
}

// NewArbiter builds an arbiter over validated zone geometry and routing.
func NewArbiter(zones ZoneMap, routes RoutingTable, cfg Config) *Arbiter {
	return &Arbiter{
		zones:    zones,
		routes:   routes,
		cfg:      cfg,
		cooldown: CooldownGate{Frames: cfg.CooldownFrames},
	}
}

// CooldownActive reports whether the shared switch cooldown is in effect.
func (a *Arbiter) CooldownActive(s *SwitchState, frame int) bool {
	return a.cooldown.Active(s, frame)
}

// Observe advances the hysteresis state machine by one frame and returns the
// resulting decision. On a firing switch the state's active camera, switch
// frame and arming state are all updated before returning.
func (a *Arbiter) Observe(s *SwitchState, frame int, det Detection) Decision {
	if det.Found {
		a.observeHit(s, frame, det)
	} else {
		a.observeMiss(s)
	}

	if s.ArmedZone == NoZone || s.ArmCount < a.cfg.ArmThreshold {
		return Decision{}
	}
	if a.cooldown.Active(s, frame) {
		return Decision{}
	}

	dest, ok := a.routes.Route(s.ActiveCam, s.ArmedZone)
	if !ok {
		// Unreachable after startup validation; hold rather than guess.
		monitoring.Logf("arbiter: zone %q on camera %d has no route, holding", s.ArmedZone, s.ActiveCam)
		return Decision{}
	}
	if !a.zones.HasCamera(dest) {
		monitoring.Logf("arbiter: rejected switch %d->%d via %q: destination has no zones", s.ActiveCam, dest, s.ArmedZone)
		return Decision{}
	}

	zone := s.ArmedZone
	from := s.ActiveCam
	s.ActiveCam = dest
	s.LastSwitchFrame = frame
	s.disarm()

	return Decision{
		Switch: true,
		From:   from,
		To:     dest,
		Zone:   zone,
		Conf:   det.Conf,
		Reason: zone,
	}
}

// observeHit handles a frame with a ball detection present.
func (a *Arbiter) observeHit(s *SwitchState, frame int, det Detection) {
	zone := a.zones.ZoneFor(s.ActiveCam, det.CX, det.CY)

	switch {
	case zone == NoZone:
		// Ball visible but outside every exit zone: drop any arming.
		s.disarm()
	case zone == s.ArmedZone:
		s.ArmCount++
		s.ZoneLastSeenFrame = frame
		s.MissInZone = 0
		s.MissNotInZone = 0
	default:
		// Entered a different zone: re-arm from scratch.
		s.ArmedZone = zone
		s.ArmCount = 1
		s.ZoneArmedFrame = frame
		s.ZoneLastSeenFrame = frame
		s.MissInZone = 0
		s.MissNotInZone = 0
	}
}

// observeMiss handles a frame with no ball detection.
func (a *Arbiter) observeMiss(s *SwitchState) {
	if s.ArmedZone != NoZone {
		s.MissInZone++
		if s.MissInZone > a.cfg.MissTolerance {
			s.disarm()
		}
		return
	}
	s.MissNotInZone++
}

// String summarises the arbiter configuration for diagnostics.
func (a *Arbiter) String() string {
	return fmt.Sprintf("arbiter(arm=%d miss=%d cooldown=%d)",
		a.cfg.ArmThreshold, a.cfg.MissTolerance, a.cfg.CooldownFrames)
}
