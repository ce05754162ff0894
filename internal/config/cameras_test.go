package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

func writeLayout(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cameras.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write layout: %v", err)
	}
	return path
}

const minimalLayout = `{
  "start_camera": 0,
  "preferred_start": 0,
  "cameras": [
    {
      "id": 0,
      "name": "LEFT_CAM",
      "source": "footage/left.mp4",
      "zones": [
        {"name": "RIGHT", "rect": [0.85, 0.0, 1.0, 1.0], "next_camera": 1}
      ]
    },
    {
      "id": 1,
      "name": "RIGHT_CAM",
      "source": "footage/right.mp4",
      "zones": [
        {"name": "LEFT", "rect": [0.0, 0.0, 0.15, 1.0], "next_camera": 0}
      ]
    }
  ]
}`

func TestLoadCameraLayout(t *testing.T) {
	path := writeLayout(t, minimalLayout)
	layout, err := LoadCameraLayout(path)
	if err != nil {
		t.Fatalf("LoadCameraLayout: %v", err)
	}

	if layout.StartCamera != 0 || len(layout.Cameras) != 2 {
		t.Fatalf("layout = %+v", layout)
	}

	zones, routes := layout.ZoneTables()
	wantZones := switcher.ZoneMap{
		0: {{Name: "RIGHT", X0: 0.85, Y0: 0, X1: 1, Y1: 1}},
		1: {{Name: "LEFT", X0: 0, Y0: 0, X1: 0.15, Y1: 1}},
	}
	if diff := cmp.Diff(wantZones, zones); diff != "" {
		t.Errorf("zone map mismatch (-want +got):\n%s", diff)
	}
	wantRoutes := switcher.RoutingTable{
		0: {"RIGHT": 1},
		1: {"LEFT": 0},
	}
	if diff := cmp.Diff(wantRoutes, routes); diff != "" {
		t.Errorf("routing table mismatch (-want +got):\n%s", diff)
	}

	wantPaths := map[switcher.CameraID]string{
		0: "footage/left.mp4",
		1: "footage/right.mp4",
	}
	if diff := cmp.Diff(wantPaths, layout.SourcePaths()); diff != "" {
		t.Errorf("source paths mismatch (-want +got):\n%s", diff)
	}
}

func TestCameraLayoutValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "no cameras",
			body: `{"cameras": []}`,
		},
		{
			name: "duplicate camera id",
			body: `{"cameras": [
  {"id": 0, "source": "a.mp4", "zones": [{"name": "R", "rect": [0.8, 0, 1, 1], "next_camera": 0}]},
  {"id": 0, "source": "b.mp4", "zones": [{"name": "L", "rect": [0, 0, 0.2, 1], "next_camera": 0}]}
]}`,
		},
		{
			name: "camera without zones",
			body: `{"cameras": [
  {"id": 0, "source": "a.mp4", "zones": [{"name": "R", "rect": [0.8, 0, 1, 1], "next_camera": 1}]},
  {"id": 1, "source": "b.mp4", "zones": []}
]}`,
		},
		{
			name: "route to unknown camera",
			body: `{"cameras": [
  {"id": 0, "source": "a.mp4", "zones": [{"name": "R", "rect": [0.8, 0, 1, 1], "next_camera": 9}]}
]}`,
		},
		{
			name: "inverted zone rectangle",
			body: `{"cameras": [
  {"id": 0, "source": "a.mp4", "zones": [{"name": "R", "rect": [0.9, 0, 0.8, 1], "next_camera": 0}]}
]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLayout(t, tt.body)
			if _, err := LoadCameraLayout(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestZoneTablesPreserveDeclaredOrder(t *testing.T) {
	// Zone order in the JSON array is the overlap tie-break order and must
	// survive the conversion.
	path := writeLayout(t, `{
  "cameras": [
    {"id": 0, "source": "a.mp4", "zones": [
      {"name": "CORNER", "rect": [0.8, 0.8, 1.0, 1.0], "next_camera": 1},
      {"name": "RIGHT", "rect": [0.8, 0.0, 1.0, 1.0], "next_camera": 1}
    ]},
    {"id": 1, "source": "b.mp4", "zones": [
      {"name": "LEFT", "rect": [0.0, 0.0, 0.2, 1.0], "next_camera": 0}
    ]}
  ]
}`)
	layout, err := LoadCameraLayout(path)
	if err != nil {
		t.Fatalf("LoadCameraLayout: %v", err)
	}
	zones, _ := layout.ZoneTables()
	if got := zones.ZoneFor(0, 0.9, 0.9); got != "CORNER" {
		t.Errorf("ZoneFor(0.9, 0.9) = %q, want CORNER (first declared)", got)
	}
}

func TestCameraName(t *testing.T) {
	path := writeLayout(t, minimalLayout)
	layout, err := LoadCameraLayout(path)
	if err != nil {
		t.Fatalf("LoadCameraLayout: %v", err)
	}
	if got := layout.CameraName(0); got != "LEFT_CAM" {
		t.Errorf("CameraName(0) = %q, want LEFT_CAM", got)
	}
	if got := layout.CameraName(7); got != "CAM_7" {
		t.Errorf("CameraName(7) = %q, want CAM_7", got)
	}
}

func TestLoadExampleLayoutFile(t *testing.T) {
	layout, err := LoadCameraLayout("../../config/cameras.example.json")
	if err != nil {
		t.Fatalf("Failed to load example layout: %v", err)
	}
	if len(layout.Cameras) != 2 {
		t.Fatalf("expected 2 cameras, got %d", len(layout.Cameras))
	}
	zones, routes := layout.ZoneTables()
	if err := switcher.ValidateRouting(zones, routes); err != nil {
		t.Errorf("example layout fails routing validation: %v", err)
	}
}
