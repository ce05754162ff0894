// Package video provides the gocv-backed frame sources, ball detector and
// continuity tracker consumed by the switching engine.
package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// MatFrame is a decoded frame backed by an OpenCV Mat.
type MatFrame struct {
	Index int
	Mat   gocv.Mat
}

// FrameIndex returns the absolute frame index within the source.
func (f *MatFrame) FrameIndex() int { return f.Index }

// Close releases the underlying pixel buffer.
func (f *MatFrame) Close() {
	if !f.Mat.Empty() {
		f.Mat.Close()
	}
}

// FileSource is a seekable frame source over a video file. It implements
// switcher.FrameSource. The source is stateful and must be used from a
// single goroutine.
type FileSource struct {
	path string
	cap  *gocv.VideoCapture
	pos  int // index of the frame the next Read returns
}

// OpenFileSource opens a video file as a frame source.
func OpenFileSource(path string) (*FileSource, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("open video %s: capture not opened", path)
	}
	return &FileSource{path: path, cap: cap}, nil
}

// ReadNext returns the next frame, or ok=false at end of stream. The caller
// owns the returned frame and must Close it.
func (s *FileSource) ReadNext() (switcher.Frame, bool) {
	mat := gocv.NewMat()
	if ok := s.cap.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, false
	}
	f := &MatFrame{Index: s.pos, Mat: mat}
	s.pos++
	return f, true
}

// Seek repositions the read cursor so the next ReadNext returns the frame at
// frameIndex.
func (s *FileSource) Seek(frameIndex int) error {
	if frameIndex < 0 {
		return fmt.Errorf("seek %s: negative frame index %d", s.path, frameIndex)
	}
	if ok := s.cap.Set(gocv.VideoCapturePosFrames, float64(frameIndex)); !ok {
		return fmt.Errorf("seek %s to frame %d failed", s.path, frameIndex)
	}
	s.pos = frameIndex
	return nil
}

// Position returns the absolute index of the frame the next ReadNext returns.
func (s *FileSource) Position() int { return s.pos }

// FrameCount returns the total number of frames, or 0 if unknown.
func (s *FileSource) FrameCount() int {
	return int(s.cap.Get(gocv.VideoCaptureFrameCount))
}

// FPS returns the source frame rate as reported by the container.
func (s *FileSource) FPS() float64 {
	return s.cap.Get(gocv.VideoCaptureFPS)
}

// Dimensions returns the frame width and height in pixels.
func (s *FileSource) Dimensions() (width, height int) {
	return int(s.cap.Get(gocv.VideoCaptureFrameWidth)), int(s.cap.Get(gocv.VideoCaptureFrameHeight))
}

// Close releases the capture.
func (s *FileSource) Close() error {
	return s.cap.Close()
}
