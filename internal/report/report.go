// Package report renders a switching run as a standalone HTML page with the
// switch timeline, camera usage and inter-switch statistics.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// GapStats summarises the frame deltas between consecutive switches.
type GapStats struct {
	Switches int
	MeanGap  float64
	P50Gap   float64
	P95Gap   float64
	MinGap   float64
}

// ComputeGapStats reduces inter-switch frame gaps to summary statistics.
// Returns the zero value when there are fewer than two switches.
func ComputeGapStats(gaps []float64, switches int) GapStats {
	gs := GapStats{Switches: switches}
	if len(gaps) == 0 {
		return gs
	}
	sorted := append([]float64(nil), gaps...)
	sort.Float64s(sorted)

	gs.MeanGap = stat.Mean(sorted, nil)
	gs.P50Gap = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	gs.P95Gap = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	gs.MinGap = sorted[0]
	return gs
}

// WriteHTML renders the full report page to w.
func WriteHTML(w io.Writer, sessionID string, evs []switcher.SwitchEvent, usage map[switcher.CameraID]int64, gaps []float64) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Switching report %s", sessionID)
	page.AddCharts(
		usageChart(usage),
		timelineChart(evs),
		gapChart(gaps),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// usageChart is a bar chart of frames broadcast per camera.
func usageChart(usage map[switcher.CameraID]int64) components.Charter {
	cams := make([]switcher.CameraID, 0, len(usage))
	for cam := range usage {
		cams = append(cams, cam)
	}
	sort.Slice(cams, func(i, j int) bool { return cams[i] < cams[j] })

	labels := make([]string, 0, len(cams))
	data := make([]opts.BarData, 0, len(cams))
	for _, cam := range cams {
		labels = append(labels, fmt.Sprintf("camera %d", cam))
		data = append(data, opts.BarData{Value: usage[cam]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Camera usage", Subtitle: "frames broadcast per camera"}),
	)
	bar.SetXAxis(labels).AddSeries("frames", data)
	return bar
}

// timelineChart is a scatter of switch events: frame index against the
// camera switched to, fallback switches in their own series.
func timelineChart(evs []switcher.SwitchEvent) components.Charter {
	var zone, fallback []opts.ScatterData
	for _, ev := range evs {
		point := opts.ScatterData{Value: []interface{}{ev.Frame, int(ev.ToCam)}}
		if ev.Zone == switcher.FallbackScanZone {
			fallback = append(fallback, point)
		} else {
			zone = append(zone, point)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Switch timeline"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "to camera", Type: "value"}),
	)
	scatter.AddSeries("zone switches", zone)
	scatter.AddSeries("fallback switches", fallback)
	return scatter
}

// gapChart is a line of inter-switch frame gaps over the run.
func gapChart(gaps []float64) components.Charter {
	labels := make([]string, 0, len(gaps))
	data := make([]opts.LineData, 0, len(gaps))
	for i, g := range gaps {
		labels = append(labels, fmt.Sprintf("%d", i+1))
		data = append(data, opts.LineData{Value: g})
	}

	gs := ComputeGapStats(gaps, len(gaps)+1)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Frames between switches",
			Subtitle: fmt.Sprintf("mean %.1f, p50 %.1f, p95 %.1f", gs.MeanGap, gs.P50Gap, gs.P95Gap),
		}),
	)
	line.SetXAxis(labels).AddSeries("gap", data)
	return line
}
