package switcher

import (
	"fmt"
	"sort"
)

// CameraID identifies a fixed camera position.
type CameraID int

// NoZone is the sentinel zone name meaning "not inside any declared zone".
const NoZone = "NONE"

// Zone is a named rectangle in normalized camera-frame coordinates.
// Coordinates satisfy 0 <= X0 < X1 <= 1 and 0 <= Y0 < Y1 <= 1.
type Zone struct {
	Name string
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
}

// Contains reports whether the normalized point (x, y) lies inside the zone.
// Bounds are inclusive so that zones reaching the frame edge (x1 == 1.0)
// still capture detections pinned to the edge.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.X0 && x <= z.X1 && y >= z.Y0 && y <= z.Y1
}

// ZoneMap holds the exit-zone geometry for every camera. Zone order within a
// camera is significant: when rectangles overlap, the first declared zone
// containing the point wins.
type ZoneMap map[CameraID][]Zone

// ZoneFor returns the name of the first declared zone of cam containing the
// normalized point (x, y), or NoZone if the point is in no zone or the camera
// has no zones.
func (m ZoneMap) ZoneFor(cam CameraID, x, y float64) string {
	for _, z := range m[cam] {
		if z.Contains(x, y) {
			return z.Name
		}
	}
	return NoZone
}

// HasCamera reports whether cam has at least one declared zone.
func (m ZoneMap) HasCamera(cam CameraID) bool {
	return len(m[cam]) > 0
}

// Cameras returns the camera IDs with declared zones in ascending order.
func (m ZoneMap) Cameras() []CameraID {
	cams := make([]CameraID, 0, len(m))
	for cam := range m {
		cams = append(cams, cam)
	}
	sort.Slice(cams, func(i, j int) bool { return cams[i] < cams[j] })
	return cams
}

// RoutingTable maps (camera, zone name) to the destination camera a switch
// should hand off to when that zone fires.
type RoutingTable map[CameraID]map[string]CameraID

// Route returns the destination camera for the given camera and zone.
func (r RoutingTable) Route(cam CameraID, zone string) (CameraID, bool) {
	dest, ok := r[cam][zone]
	return dest, ok
}

// ValidateRouting verifies that every declared zone resolves in the routing
// table and that every routed destination has zones of its own. A failure
// here is a configuration error and is fatal at startup, never at decision
// time.
func ValidateRouting(zones ZoneMap, routes RoutingTable) error {
	for _, cam := range zones.Cameras() {
		seen := make(map[string]bool, len(zones[cam]))
		for _, z := range zones[cam] {
			if z.Name == "" || z.Name == NoZone {
				return fmt.Errorf("camera %d: zone name %q is reserved", cam, z.Name)
			}
			if seen[z.Name] {
				return fmt.Errorf("camera %d: duplicate zone %q", cam, z.Name)
			}
			seen[z.Name] = true
			if z.X0 < 0 || z.Y0 < 0 || z.X1 > 1 || z.Y1 > 1 || z.X0 >= z.X1 || z.Y0 >= z.Y1 {
				return fmt.Errorf("camera %d zone %q: invalid rectangle (%.2f,%.2f,%.2f,%.2f)",
					cam, z.Name, z.X0, z.Y0, z.X1, z.Y1)
			}
			dest, ok := routes.Route(cam, z.Name)
			if !ok {
				return fmt.Errorf("camera %d zone %q: no routing entry", cam, z.Name)
			}
			if !zones.HasCamera(dest) {
				return fmt.Errorf("camera %d zone %q: destination camera %d has no zones", cam, z.Name, dest)
			}
		}
	}
	return nil
}

// ResolveStartCamera picks the effective starting camera: the configured
// camera if it has zones, else the preferred default, else the lowest camera
// ID with zones. An empty zone map is unresolvable and fatal.
func ResolveStartCamera(configured, preferred CameraID, zones ZoneMap) (CameraID, error) {
	if zones.HasCamera(configured) {
		return configured, nil
	}
	if zones.HasCamera(preferred) {
		return preferred, nil
	}
	cams := zones.Cameras()
	if len(cams) == 0 {
		return 0, fmt.Errorf("no cameras with zones declared")
	}
	return cams[0], nil
}
