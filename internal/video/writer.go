package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// WriterSink writes the active camera's frames to a single output video,
// producing the switched broadcast feed. It implements switcher.FrameSink.
type WriterSink struct {
	writer *gocv.VideoWriter
}

// NewWriterSink opens the output file. Dimensions and fps must match the
// camera sources; all cameras are assumed to share a format.
func NewWriterSink(path string, fps float64, width, height int) (*WriterSink, error) {
	w, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open output video %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("open output video %s: writer not opened", path)
	}
	return &WriterSink{writer: w}, nil
}

// EmitFrame appends the frame to the output video.
func (s *WriterSink) EmitFrame(cam switcher.CameraID, f switcher.Frame) error {
	mf, ok := f.(*MatFrame)
	if !ok {
		return fmt.Errorf("unsupported frame type %T", f)
	}
	if err := s.writer.Write(mf.Mat); err != nil {
		return fmt.Errorf("write frame %d: %w", mf.Index, err)
	}
	return nil
}

// Close finalises the output file.
func (s *WriterSink) Close() error {
	return s.writer.Close()
}
