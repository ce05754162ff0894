package video

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// yoloInputSize is the square network input resolution. The blob is a plain
// resize (no letterbox crop), so normalized network coordinates map directly
// onto normalized frame coordinates.
const yoloInputSize = 640

// BallDetector runs YOLO inference via the OpenCV DNN module and reduces the
// output to the single best ball detection. It implements switcher.Detector.
type BallDetector struct {
	net         gocv.Net
	classNames  []string
	targetClass string
	minConf     float64
	mu          sync.Mutex
}

// NewBallDetector loads the network and class names. targetClass is the COCO
// class to track ("sports ball"); detections below minConf are discarded at
// the detector level and surface as absence.
func NewBallDetector(weightsPath, configPath, namesPath, targetClass string, minConf float64) (*BallDetector, error) {
	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s and %s", weightsPath, configPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	namesBytes, err := os.ReadFile(namesPath)
	if err != nil {
		net.Close()
		return nil, fmt.Errorf("could not read class names: %w", err)
	}
	names := strings.Split(strings.TrimSpace(string(namesBytes)), "\n")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	return &BallDetector{
		net:         net,
		classNames:  names,
		targetClass: targetClass,
		minConf:     minConf,
	}, nil
}

// Detect runs inference on the frame and returns the highest-confidence ball
// detection, or an empty Detection when no ball clears the threshold.
func (d *BallDetector) Detect(f switcher.Frame) (switcher.Detection, error) {
	mf, ok := f.(*MatFrame)
	if !ok {
		return switcher.Detection{}, fmt.Errorf("unsupported frame type %T", f)
	}
	if mf.Mat.Empty() {
		return switcher.Detection{}, fmt.Errorf("empty frame at index %d", mf.Index)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(mf.Mat, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	cands := d.collectCandidates(output)
	return BestBall(cands, d.minConf), nil
}

// collectCandidates walks the raw network output rows and keeps every
// detection whose best class is the target class.
func (d *BallDetector) collectCandidates(output gocv.Mat) []Candidate {
	var cands []Candidate
	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		data := row.Clone()
		scores := data.ColRange(5, data.Cols())
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)
		classID := maxLoc.X

		if classID < len(d.classNames) && d.classNames[classID] == d.targetClass {
			cands = append(cands, Candidate{
				CX:   float64(data.GetFloatAt(0, 0)),
				CY:   float64(data.GetFloatAt(0, 1)),
				Conf: float64(maxVal),
			})
		}

		scores.Close()
		data.Close()
		row.Close()
	}
	return cands
}

// Close releases the network.
func (d *BallDetector) Close() error {
	d.net.Close()
	return nil
}

// Candidate is one raw ball detection in normalized frame coordinates.
type Candidate struct {
	CX   float64
	CY   float64
	Conf float64
}

// BestBall reduces raw candidates to the engine's Detection: the
// highest-confidence candidate at or above minConf, with earlier candidates
// winning ties. Out-of-frame centers are clamped into [0,1].
func BestBall(cands []Candidate, minConf float64) switcher.Detection {
	best := switcher.Detection{}
	for _, c := range cands {
		if c.Conf < minConf {
			continue
		}
		if !best.Found || c.Conf > best.Conf {
			best = switcher.Detection{
				Found: true,
				CX:    clamp01(c.CX),
				CY:    clamp01(c.CY),
				Conf:  c.Conf,
			}
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
