package interaction

import (
	"time"

	"github.com/ayusman/pinchtree/internal/gesture"
)

// Status is a human-readable summary of the classifier state. It is for
// diagnostics only.
type Status string

const (
	StatusNoHand   Status = "no hand"
	StatusSelect   Status = "pinch: select"
	StatusAiming   Status = "aiming: locked"
	StatusCooldown Status = "cooldown"
	StatusOpen     Status = "open: chaos"
	StatusFist     Status = "fist: formed"
	StatusTracking Status = "tracking"
)

// Timing holds the temporal constants of the debouncer.
type Timing struct {
	// ConfidenceFrames is the count open and fist streaks must exceed.
	ConfidenceFrames int
	// PinchConfirmFrames is the count a pinch streak must exceed.
	PinchConfirmFrames int
	// Cooldown is how long mode switches stay suppressed after a pinch release.
	Cooldown time.Duration
}

// DefaultTiming returns the standard debouncer constants: open and fist need
// six consecutive frames, pinch needs two, and a released pinch blocks mode
// switches for 300ms.
func DefaultTiming() Timing {
	return Timing{
		ConfidenceFrames:   5,
		PinchConfirmFrames: 1,
		Cooldown:           300 * time.Millisecond,
	}
}

// DebounceState is a snapshot of the debouncer's counters.
type DebounceState struct {
	PinchFrames        int       `json:"pinchFrames"`
	OpenFrames         int       `json:"openFrames"`
	ClosedFrames       int       `json:"closedFrames"`
	LastPinchReleaseAt time.Time `json:"lastPinchReleaseAt"`
}

// Decision is the debouncer's verdict for one frame.
type Decision struct {
	Status Status
	// Pinching is true while a pinch is confirmed.
	Pinching bool
	// Released is true on the frame a confirmed pinch ends.
	Released bool
	// Switch asks the mode machine to move to Target.
	Switch bool
	Target Mode
}

// Debouncer converts noisy per-frame candidates into confirmed events using
// consecutive-frame counters and a cooldown after pinch release.
//
// Counters reset to zero on the first frame their candidate is missing.
type Debouncer struct {
	timing             Timing
	pinchFrames        int
	openFrames         int
	closedFrames       int
	lastPinchReleaseAt time.Time
}

// NewDebouncer creates a Debouncer with zeroed counters.
func NewDebouncer(timing Timing) *Debouncer {
	return &Debouncer{timing: timing}
}

// Observe records one classified frame taken at now.
//
// Priority, highest first: confirmed pinch, aim (including a pinch that is
// not confirmed yet), cooldown, open/fist hysteresis, neutral.
func (d *Debouncer) Observe(c gesture.Candidate, now time.Time) Decision {
	var dec Decision

	if c == gesture.Pinch {
		d.pinchFrames++
	} else {
		if d.pinchConfirmed() {
			d.lastPinchReleaseAt = now
			dec.Released = true
		}
		d.pinchFrames = 0
	}

	if d.pinchConfirmed() {
		d.resetModeCounters()
		dec.Status = StatusSelect
		dec.Pinching = true
		dec.Switch, dec.Target = true, Formed
		return dec
	}

	if c.Aiming() {
		d.resetModeCounters()
		dec.Status = StatusAiming
		return dec
	}

	if d.coolingDown(now) {
		d.resetModeCounters()
		dec.Status = StatusCooldown
		return dec
	}

	switch c {
	case gesture.Open:
		d.openFrames++
		d.closedFrames = 0
		dec.Status = StatusOpen
		if d.openFrames > d.timing.ConfidenceFrames {
			dec.Switch, dec.Target = true, Chaos
		}
	case gesture.Fist:
		d.closedFrames++
		d.openFrames = 0
		dec.Status = StatusFist
		if d.closedFrames > d.timing.ConfidenceFrames {
			dec.Switch, dec.Target = true, Formed
		}
	default:
		d.resetModeCounters()
		dec.Status = StatusTracking
	}

	return dec
}

// Reset zeroes every counter, as when the hand leaves the frame. It reports
// whether a confirmed pinch was in progress. The cooldown is not armed.
func (d *Debouncer) Reset() (released bool) {
	released = d.pinchConfirmed()
	d.pinchFrames = 0
	d.resetModeCounters()
	return released
}

// State returns a snapshot of the counters.
func (d *Debouncer) State() DebounceState {
	return DebounceState{
		PinchFrames:        d.pinchFrames,
		OpenFrames:         d.openFrames,
		ClosedFrames:       d.closedFrames,
		LastPinchReleaseAt: d.lastPinchReleaseAt,
	}
}

func (d *Debouncer) pinchConfirmed() bool {
	return d.pinchFrames > d.timing.PinchConfirmFrames
}

func (d *Debouncer) coolingDown(now time.Time) bool {
	if d.lastPinchReleaseAt.IsZero() {
		return false
	}
	return now.Sub(d.lastPinchReleaseAt) < d.timing.Cooldown
}

func (d *Debouncer) resetModeCounters() {
	d.openFrames = 0
	d.closedFrames = 0
}
