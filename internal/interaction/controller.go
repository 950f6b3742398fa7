package interaction

import (
	"time"

	"github.com/ayusman/pinchtree/internal/detector"
	"github.com/ayusman/pinchtree/internal/gesture"
)

// Frame is one landmark observation. A nil Hand means no hand was detected.
type Frame struct {
	Hand *detector.HandLandmarks
	At   time.Time
}

// Event is the per-frame output handed to rendering and UI consumers.
// It is a value; consumers get their own copy.
type Event struct {
	PointerX float64 `json:"pointerX"`
	PointerY float64 `json:"pointerY"`
	Detected bool    `json:"detected"`
	// Pinching is true only for a confirmed pinch.
	Pinching bool `json:"pinching"`
	// Aiming is the instantaneous aim candidate. A pinch is also an aim,
	// so Aiming stays true while Pinching.
	Aiming bool `json:"aiming"`
}

// UndetectedEvent is the event reported for a frame without a hand.
var UndetectedEvent = Event{PointerX: gesture.Center.X, PointerY: gesture.Center.Y}

// Result is everything the controller produced for one frame.
type Result struct {
	Event     Event
	Candidate gesture.Candidate
	Status    Status
	// Change is set only when the mode actually changed this frame.
	Change *ModeChange
	// Released is true on the frame a confirmed pinch ends, including when
	// the hand is lost mid-pinch.
	Released bool
}

// Options configures a Controller.
type Options struct {
	Thresholds  gesture.Thresholds
	Timing      Timing
	InitialMode Mode
}

// DefaultOptions returns the standard classifier and debouncer constants.
func DefaultOptions() Options {
	return Options{
		Thresholds:  gesture.DefaultThresholds(),
		Timing:      DefaultTiming(),
		InitialMode: Formed,
	}
}

// Controller is one interaction session. It owns the debounce counters and
// the current mode. Create one when tracking starts and drop it when the
// session ends.
//
// A Controller is not safe for concurrent use: frames must be processed one
// at a time, each completing before the next begins.
type Controller struct {
	opts     Options
	debounce *Debouncer
	modes    *ModeMachine
}

// NewController creates a session in opts.InitialMode with zeroed counters.
func NewController(opts Options) *Controller {
	return &Controller{
		opts:     opts,
		debounce: NewDebouncer(opts.Timing),
		modes:    NewModeMachine(opts.InitialMode),
	}
}

// Process runs the whole pipeline for one frame. It never fails.
func (c *Controller) Process(f Frame) Result {
	features, ok := gesture.Extract(f.Hand, c.opts.Thresholds)
	if !ok {
		return Result{
			Event:    UndetectedEvent,
			Status:   StatusNoHand,
			Released: c.debounce.Reset(),
		}
	}

	candidate := gesture.Classify(features, c.opts.Thresholds)
	dec := c.debounce.Observe(candidate, f.At)
	pointer := features.Pointer(candidate)

	res := Result{
		Event: Event{
			PointerX: pointer.X,
			PointerY: pointer.Y,
			Detected: true,
			Pinching: dec.Pinching,
			Aiming:   candidate.Aiming(),
		},
		Candidate: candidate,
		Status:    dec.Status,
		Released:  dec.Released,
	}

	if dec.Switch {
		if change, changed := c.modes.Transition(dec.Target, f.At); changed {
			res.Change = &change
		}
	}

	return res
}

// SetMode overrides the current mode from outside the gesture pipeline, as
// a manual toggle does. Debounce counters are left untouched.
func (c *Controller) SetMode(m Mode, at time.Time) (ModeChange, bool) {
	return c.modes.Transition(m, at)
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	return c.modes.Mode()
}

// DebounceState returns a snapshot of the debounce counters.
func (c *Controller) DebounceState() DebounceState {
	return c.debounce.State()
}

// Options returns the options the controller was created with.
func (c *Controller) Options() Options {
	return c.opts
}
