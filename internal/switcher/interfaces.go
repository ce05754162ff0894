package switcher

// Frame is an opaque decoded video frame. Concrete frame types are owned by
// the frame source that produced them; Close releases pixel buffers.
type Frame interface {
	FrameIndex() int
	Close()
}

// Detection is the output of one detector call on one frame. The bounding box
// is reduced to its normalized center, the anchor point used for zone
// containment tests.
type Detection struct {
	Found bool    // a bounding box was produced
	CX    float64 // normalized [0,1] center X of the bounding box
	CY    float64 // normalized [0,1] center Y of the bounding box
	Conf  float64
}

// Detector locates the ball in a frame. A failed call is recovered by the
// caller as "no detection" and never aborts the frame loop.
type Detector interface {
	Detect(f Frame) (Detection, error)
}

// FrameSource is the per-camera seekable frame capability. Each source is a
// stateful resource exclusively owned by the orchestrator; the fallback
// scanner repositions inactive sources' cursors as a side effect of probing,
// so sources must not be read concurrently from elsewhere during a scan.
type FrameSource interface {
	// ReadNext returns the next frame, or ok=false at end of stream.
	ReadNext() (f Frame, ok bool)
	// Seek positions the read cursor so the next ReadNext returns the frame
	// at the given absolute index.
	Seek(frameIndex int) error
	// Position returns the absolute index of the frame the next ReadNext
	// will return.
	Position() int
}

// StickyTracker is the external object-continuity tracker. It is reset on
// every active-camera change so stale continuity state from the previous
// camera cannot bias detections on the new one.
type StickyTracker interface {
	Reset()
}

// FrameSink receives the active camera's frame each iteration, after the
// switching decision. The frame remains owned by the orchestrator; sinks
// must not retain it past the call.
type FrameSink interface {
	EmitFrame(cam CameraID, f Frame) error
}
