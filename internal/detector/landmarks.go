// Package detector provides hand landmark types and the landmark detection boundary.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

var (
	// ErrLandmarkCount is returned when a hand does not carry exactly NumLandmarks points.
	ErrLandmarkCount = errors.New("hand must have exactly 21 landmarks")
	// ErrLandmarkRange is returned when a landmark lies outside normalized image space.
	ErrLandmarkRange = errors.New("landmark outside normalized [0,1] image space")
)

// Point3D represents a landmark in normalized image coordinates.
// Z is relative depth and carries no meaning for gesture classification.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromPoints builds a HandLandmarks from a detector's point list and validates it.
func FromPoints(points []Point3D) (HandLandmarks, error) {
	var h HandLandmarks
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("%w: got %d", ErrLandmarkCount, len(points))
	}
	copy(h.Points[:], points)
	if err := h.Validate(); err != nil {
		return h, err
	}
	return h, nil
}

// Validate checks that every landmark has finite x and y within [0,1].
func (h *HandLandmarks) Validate() error {
	for i, p := range h.Points {
		if !inUnitRange(p.X) || !inUnitRange(p.Y) {
			return fmt.Errorf("%w: landmark %d at (%g, %g)", ErrLandmarkRange, i, p.X, p.Y)
		}
	}
	return nil
}

func inUnitRange(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 0 && v <= 1
}
