// Package gesture turns a single frame of hand landmarks into geometric
// features and an instantaneous gesture candidate.
package gesture

import (
	"math"

	"github.com/ayusman/pinchtree/internal/detector"
)

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	numFingers
)

var fingerNames = [numFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= numFingers {
		return "unknown"
	}
	return fingerNames[f]
}

// fingerJoints maps each finger to its tip and base knuckle landmark.
// The thumb uses its MCP joint as the base; the others use their MCP knuckle.
var fingerJoints = [numFingers]struct{ tip, base int }{
	Thumb:  {detector.ThumbTip, detector.ThumbMCP},
	Index:  {detector.IndexTip, detector.IndexMCP},
	Middle: {detector.MiddleTip, detector.MiddleMCP},
	Ring:   {detector.RingTip, detector.RingMCP},
	Pinky:  {detector.PinkyTip, detector.PinkyMCP},
}

// palmLandmarks are averaged to estimate the palm centre. They do not move
// when fingers curl, so the estimate is independent of finger pose.
var palmLandmarks = [...]int{
	detector.Wrist,
	detector.IndexMCP,
	detector.MiddleMCP,
	detector.RingMCP,
	detector.PinkyMCP,
}

// Point is a 2D position in normalized image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center is the pointer position reported when no hand is visible.
var Center = Point{X: 0.5, Y: 0.5}

// Features is the geometric summary of one hand frame.
type Features struct {
	// Extended reports, per Finger, whether the finger is stretched out.
	Extended [numFingers]bool
	// PinchDistance is the planar distance between thumb tip and index tip.
	PinchDistance float64
	// Centroid is the palm centre.
	Centroid Point
	// PinchPoint is the midpoint between thumb tip and index tip.
	PinchPoint Point
}

// ExtendedCount returns how many of the given fingers are extended.
// With no arguments it counts all five.
func (f Features) ExtendedCount(fingers ...Finger) int {
	if len(fingers) == 0 {
		fingers = []Finger{Thumb, Index, Middle, Ring, Pinky}
	}
	n := 0
	for _, finger := range fingers {
		if f.Extended[finger] {
			n++
		}
	}
	return n
}

// Extract computes the Features of a hand. It reports false for a nil hand,
// which callers treat as a terminal no-hand frame.
//
// A finger counts as extended when its tip is further from the wrist than
// its base knuckle scaled by the finger's multiplier. Distances are planar;
// landmark depth is ignored.
func Extract(hand *detector.HandLandmarks, th Thresholds) (Features, bool) {
	if hand == nil {
		return Features{}, false
	}

	p := &hand.Points
	wrist := p[detector.Wrist]

	var f Features
	for finger, j := range fingerJoints {
		mult := th.FingerMultiplier
		if Finger(finger) == Thumb {
			mult = th.ThumbMultiplier
		}
		f.Extended[finger] = planarDistance(p[j.tip], wrist) > mult*planarDistance(p[j.base], wrist)
	}

	thumbTip, indexTip := p[detector.ThumbTip], p[detector.IndexTip]
	f.PinchDistance = planarDistance(thumbTip, indexTip)
	f.PinchPoint = Point{
		X: (thumbTip.X + indexTip.X) / 2,
		Y: (thumbTip.Y + indexTip.Y) / 2,
	}

	var sx, sy float64
	for _, idx := range palmLandmarks {
		sx += p[idx].X
		sy += p[idx].Y
	}
	n := float64(len(palmLandmarks))
	f.Centroid = Point{X: sx / n, Y: sy / n}

	return f, true
}

func planarDistance(a, b detector.Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
