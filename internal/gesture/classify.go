package gesture

import "fmt"

// Candidate is the instantaneous gesture observed in a single frame.
// Candidates are ordered by priority: a frame that satisfies several
// conditions is classified as the highest one.
type Candidate int

const (
	Neutral Candidate = iota
	Fist
	Open
	Aim
	Pinch
)

var candidateNames = map[Candidate]string{
	Neutral: "neutral",
	Fist:    "fist",
	Open:    "open",
	Aim:     "aim",
	Pinch:   "pinch",
}

func (c Candidate) String() string {
	if name, ok := candidateNames[c]; ok {
		return name
	}
	return fmt.Sprintf("candidate(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Candidate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Candidate) UnmarshalText(text []byte) error {
	for cand, name := range candidateNames {
		if name == string(text) {
			*c = cand
			return nil
		}
	}
	return fmt.Errorf("unknown candidate %q", text)
}

// Candidates lists every candidate, lowest priority first.
func Candidates() []Candidate {
	return []Candidate{Neutral, Fist, Open, Aim, Pinch}
}

// Aiming reports whether thumb and index are within aiming range. Every
// Pinch is also an aim at the feature level.
func (c Candidate) Aiming() bool {
	return c == Aim || c == Pinch
}

// Thresholds are the fixed geometric constants of the classifier.
type Thresholds struct {
	// PinchDistance is the thumb-index distance below which a pinch is seen.
	PinchDistance float64
	// AimDistance is the looser thumb-index distance used for aiming.
	AimDistance float64
	// ThumbMultiplier scales the thumb's base distance in the extension test.
	ThumbMultiplier float64
	// FingerMultiplier scales the other fingers' base distance.
	FingerMultiplier float64
}

// DefaultThresholds returns the standard classifier constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PinchDistance:    0.08,
		AimDistance:      0.25,
		ThumbMultiplier:  1.2,
		FingerMultiplier: 1.5,
	}
}

// Classify maps features to exactly one candidate.
//
// Pinch and aim require at least two of middle, ring and pinky extended.
// Open needs four or more fingers out and no aim; fist needs at most one.
func Classify(f Features, th Thresholds) Candidate {
	others := f.ExtendedCount(Middle, Ring, Pinky)
	total := f.ExtendedCount()

	if others >= 2 {
		switch {
		case f.PinchDistance < th.PinchDistance:
			return Pinch
		case f.PinchDistance < th.AimDistance:
			return Aim
		}
	}
	if total >= 4 {
		return Open
	}
	if total <= 1 {
		return Fist
	}
	return Neutral
}

// Pointer returns the cursor position for a classified frame: the pinch
// midpoint while aiming or pinching, the palm centre otherwise.
func (f Features) Pointer(c Candidate) Point {
	if c.Aiming() {
		return f.PinchPoint
	}
	return f.Centroid
}
