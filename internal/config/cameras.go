package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// CameraLayout is the on-disk description of the camera rig: per-camera exit
// zones, the zone-to-camera routing, and the starting camera. Zone order in
// the JSON array is the overlap tie-break order.
type CameraLayout struct {
	StartCamera    int          `json:"start_camera"`
	PreferredStart int          `json:"preferred_start"`
	Cameras        []CameraSpec `json:"cameras"`
}

// CameraSpec describes one fixed camera.
type CameraSpec struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Source string     `json:"source"` // video file or stream URL
	Zones  []ZoneSpec `json:"zones"`
}

// ZoneSpec describes one exit zone. Rect is [x0, y0, x1, y1] in normalized
// frame coordinates. NextCamera is the camera the zone hands off to.
type ZoneSpec struct {
	Name       string     `json:"name"`
	Rect       [4]float64 `json:"rect"`
	NextCamera int        `json:"next_camera"`
}

// LoadCameraLayout reads and validates a camera layout JSON file.
func LoadCameraLayout(path string) (*CameraLayout, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("camera layout must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera layout: %w", err)
	}
	layout := &CameraLayout{}
	if err := json.Unmarshal(data, layout); err != nil {
		return nil, fmt.Errorf("failed to parse camera layout JSON: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid camera layout: %w", err)
	}
	return layout, nil
}

// Validate performs the startup configuration checks: camera IDs unique,
// zone rectangles well formed, and every zone routable to a declared camera.
// Decision-time code never re-checks these.
func (l *CameraLayout) Validate() error {
	if len(l.Cameras) == 0 {
		return fmt.Errorf("no cameras declared")
	}
	ids := make(map[int]bool, len(l.Cameras))
	for _, cam := range l.Cameras {
		if ids[cam.ID] {
			return fmt.Errorf("duplicate camera id %d", cam.ID)
		}
		ids[cam.ID] = true
		if len(cam.Zones) == 0 {
			return fmt.Errorf("camera %d: no zones declared", cam.ID)
		}
	}
	zones, routes := l.ZoneTables()
	if err := switcher.ValidateRouting(zones, routes); err != nil {
		return err
	}
	return nil
}

// ZoneTables converts the layout into the engine's zone map and routing
// table. Declared zone order is preserved.
func (l *CameraLayout) ZoneTables() (switcher.ZoneMap, switcher.RoutingTable) {
	zones := make(switcher.ZoneMap, len(l.Cameras))
	routes := make(switcher.RoutingTable, len(l.Cameras))
	for _, cam := range l.Cameras {
		id := switcher.CameraID(cam.ID)
		zs := make([]switcher.Zone, 0, len(cam.Zones))
		rs := make(map[string]switcher.CameraID, len(cam.Zones))
		for _, z := range cam.Zones {
			zs = append(zs, switcher.Zone{
				Name: z.Name,
				X0:   z.Rect[0],
				Y0:   z.Rect[1],
				X1:   z.Rect[2],
				Y1:   z.Rect[3],
			})
			rs[z.Name] = switcher.CameraID(z.NextCamera)
		}
		zones[id] = zs
		routes[id] = rs
	}
	return zones, routes
}

// SourcePaths returns camera id to frame-source path, for opening captures.
func (l *CameraLayout) SourcePaths() map[switcher.CameraID]string {
	paths := make(map[switcher.CameraID]string, len(l.Cameras))
	for _, cam := range l.Cameras {
		paths[switcher.CameraID(cam.ID)] = cam.Source
	}
	return paths
}

// CameraName returns the display name for a camera id, or "CAM_<id>".
func (l *CameraLayout) CameraName(id switcher.CameraID) string {
	for _, cam := range l.Cameras {
		if switcher.CameraID(cam.ID) == id {
			return cam.Name
		}
	}
	return fmt.Sprintf("CAM_%d", id)
}
