package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hand  *HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHand sets the hand that will be returned by Detect. Nil means no hand.
func (m *MockDetector) SetHand(hand *HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hand = hand
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hand or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.hand == nil {
		return nil, nil
	}
	hand := *m.hand
	return &hand, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture geometry for a right hand, palm facing the camera, wrist near the
// bottom of the image. Base knuckles are fixed; only the tips move per pose.
var (
	fixtureWrist = Point3D{X: 0.50, Y: 0.80}
	fixtureBases = [5]Point3D{
		{X: 0.58, Y: 0.72}, // thumb MCP
		{X: 0.55, Y: 0.66}, // index MCP
		{X: 0.50, Y: 0.65}, // middle MCP
		{X: 0.45, Y: 0.66}, // ring MCP
		{X: 0.40, Y: 0.68}, // pinky MCP
	}
	extendedTips = [5]Point3D{
		{X: 0.74, Y: 0.64},
		{X: 0.57, Y: 0.40},
		{X: 0.50, Y: 0.35},
		{X: 0.43, Y: 0.40},
		{X: 0.36, Y: 0.48},
	}
	curledTips = [5]Point3D{
		{X: 0.56, Y: 0.70},
		{X: 0.53, Y: 0.70},
		{X: 0.50, Y: 0.70},
		{X: 0.47, Y: 0.70},
		{X: 0.43, Y: 0.72},
	}
)

// handFromTips builds a full 21-point hand from the five fingertip positions,
// placing the intermediate joints evenly between each base knuckle and its tip.
func handFromTips(tips [5]Point3D) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = fixtureWrist
	h.Points[ThumbCMC] = lerp(fixtureWrist, fixtureBases[0], 0.5)
	h.Points[ThumbMCP] = fixtureBases[0]
	h.Points[ThumbIP] = lerp(fixtureBases[0], tips[0], 0.5)
	h.Points[ThumbTip] = tips[0]

	bases := [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
	for i, base := range bases {
		b := fixtureBases[i+1]
		t := tips[i+1]
		h.Points[base] = b
		h.Points[base+1] = lerp(b, t, 1.0/3.0)
		h.Points[base+2] = lerp(b, t, 2.0/3.0)
		h.Points[base+3] = t
	}

	return h
}

func lerp(a, b Point3D, t float64) Point3D {
	return Point3D{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// OpenPalmLandmarks returns a hand with all five fingers extended and the
// thumb well away from the index finger.
func OpenPalmLandmarks() HandLandmarks {
	return handFromTips(extendedTips)
}

// FistLandmarks returns a hand with every finger curled toward the palm.
func FistLandmarks() HandLandmarks {
	return handFromTips(curledTips)
}

// PeaceLandmarks returns a hand with index and middle extended and the rest
// curled, an ambiguous pose that matches no mode gesture.
func PeaceLandmarks() HandLandmarks {
	tips := curledTips
	tips[1] = extendedTips[1]
	tips[2] = extendedTips[2]
	return handFromTips(tips)
}

// PinchLandmarks returns a hand with middle, ring and pinky extended and the
// thumb tip placed horizontally at distance from the index tip.
func PinchLandmarks(distance float64) HandLandmarks {
	tips := extendedTips
	tips[1] = Point3D{X: 0.60, Y: 0.55}
	tips[0] = Point3D{X: 0.60 + distance, Y: 0.55}
	return handFromTips(tips)
}
