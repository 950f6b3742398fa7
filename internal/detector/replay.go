package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// ErrRecordingExhausted is returned by a non-looping ReplayDetector after its last frame.
var ErrRecordingExhausted = errors.New("recording exhausted")

// recordedFrame is one entry of a landmark recording. A null or empty
// points list stands for a frame in which no hand was detected.
type recordedFrame struct {
	Points []Point3D `json:"points"`
}

type recording struct {
	Frames []recordedFrame `json:"frames"`
}

// LoadRecording decodes a JSON landmark recording and validates every hand.
// Returns one entry per frame; nil entries are no-hand frames.
func LoadRecording(r io.Reader) ([]*HandLandmarks, error) {
	var rec recording
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}

	frames := make([]*HandLandmarks, len(rec.Frames))
	for i, f := range rec.Frames {
		if len(f.Points) == 0 {
			continue
		}
		hand, err := FromPoints(f.Points)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames[i] = &hand
	}
	return frames, nil
}

// ReplayDetector plays back recorded landmarks one frame per Detect call,
// ignoring the camera image. Useful for demos and deterministic tests.
type ReplayDetector struct {
	frames []*HandLandmarks
	index  int
	loop   bool
	mu     sync.Mutex
}

// NewReplayDetector creates a ReplayDetector over the given frames.
func NewReplayDetector(frames []*HandLandmarks, loop bool) *ReplayDetector {
	return &ReplayDetector{
		frames: frames,
		loop:   loop,
	}
}

// Detect returns the next recorded hand.
func (d *ReplayDetector) Detect(frame *gocv.Mat) (*HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index >= len(d.frames) {
		if !d.loop || len(d.frames) == 0 {
			return nil, ErrRecordingExhausted
		}
		d.index = 0
	}

	hand := d.frames[d.index]
	d.index++
	if hand == nil {
		return nil, nil
	}
	cp := *hand
	return &cp, nil
}

// Remaining returns how many frames are left before the recording ends or loops.
func (d *ReplayDetector) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames) - d.index
}

// Close is a no-op.
func (d *ReplayDetector) Close() error {
	return nil
}
