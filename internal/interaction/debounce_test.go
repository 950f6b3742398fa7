package interaction

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/pinchtree/internal/gesture"
)

func TestDebouncer_Counters(t *testing.T) {
	d := NewDebouncer(DefaultTiming())
	now := sessionStart

	observe := func(c gesture.Candidate, n int) Decision {
		var dec Decision
		for i := 0; i < n; i++ {
			dec = d.Observe(c, now)
			now = now.Add(frameInterval)
		}
		return dec
	}

	observe(gesture.Open, 3)
	if diff := cmp.Diff(DebounceState{OpenFrames: 3}, d.State()); diff != "" {
		t.Fatalf("after 3 open (-want +got):\n%s", diff)
	}

	observe(gesture.Fist, 2)
	if diff := cmp.Diff(DebounceState{ClosedFrames: 2}, d.State()); diff != "" {
		t.Fatalf("after 2 fist (-want +got):\n%s", diff)
	}

	observe(gesture.Neutral, 1)
	if diff := cmp.Diff(DebounceState{}, d.State()); diff != "" {
		t.Fatalf("after neutral (-want +got):\n%s", diff)
	}

	dec := observe(gesture.Aim, 1)
	if dec.Status != StatusAiming || dec.Switch {
		t.Errorf("aim decision = %+v", dec)
	}
}

func TestDebouncer_PinchRelease(t *testing.T) {
	t.Run("confirmed pinch stamps release time", func(t *testing.T) {
		d := NewDebouncer(DefaultTiming())

		d.Observe(gesture.Pinch, sessionStart)
		dec := d.Observe(gesture.Pinch, sessionStart.Add(frameInterval))
		if !dec.Pinching || !dec.Switch || dec.Target != Formed {
			t.Fatalf("expected confirmed pinch forcing Formed, got %+v", dec)
		}

		releaseAt := sessionStart.Add(2 * frameInterval)
		dec = d.Observe(gesture.Neutral, releaseAt)
		if !dec.Released {
			t.Error("expected release")
		}
		if dec.Status != StatusCooldown {
			t.Errorf("expected cooldown on the release frame, got %q", dec.Status)
		}
		if got := d.State().LastPinchReleaseAt; !got.Equal(releaseAt) {
			t.Errorf("release stamped at %v, want %v", got, releaseAt)
		}
	})

	t.Run("one frame flicker does not arm cooldown", func(t *testing.T) {
		d := NewDebouncer(DefaultTiming())

		d.Observe(gesture.Pinch, sessionStart)
		dec := d.Observe(gesture.Open, sessionStart.Add(frameInterval))

		if dec.Released {
			t.Error("unexpected release")
		}
		if dec.Status != StatusOpen {
			t.Errorf("expected open status, got %q", dec.Status)
		}
		if !d.State().LastPinchReleaseAt.IsZero() {
			t.Error("release time should not be stamped")
		}
	})

	t.Run("reset reports a confirmed pinch without arming cooldown", func(t *testing.T) {
		d := NewDebouncer(DefaultTiming())

		d.Observe(gesture.Pinch, sessionStart)
		d.Observe(gesture.Pinch, sessionStart.Add(frameInterval))

		if !d.Reset() {
			t.Error("expected Reset to report the active pinch")
		}
		if d.Reset() {
			t.Error("second Reset should report nothing")
		}
		if diff := cmp.Diff(DebounceState{}, d.State()); diff != "" {
			t.Errorf("state after reset (-want +got):\n%s", diff)
		}
	})
}

func TestDebouncer_CooldownBoundary(t *testing.T) {
	d := NewDebouncer(DefaultTiming())

	d.Observe(gesture.Pinch, sessionStart)
	d.Observe(gesture.Pinch, sessionStart.Add(frameInterval))
	releaseAt := sessionStart.Add(2 * frameInterval)
	d.Observe(gesture.Open, releaseAt)

	if dec := d.Observe(gesture.Open, releaseAt.Add(299*time.Millisecond)); dec.Status != StatusCooldown {
		t.Errorf("expected cooldown at 299ms, got %q", dec.Status)
	}
	if got := d.State().OpenFrames; got != 0 {
		t.Errorf("suppressed frames must not count, open frames = %d", got)
	}
	if dec := d.Observe(gesture.Open, releaseAt.Add(300*time.Millisecond)); dec.Status != StatusOpen {
		t.Errorf("expected open at 300ms, got %q", dec.Status)
	}
	if got := d.State().OpenFrames; got != 1 {
		t.Errorf("expected counting to restart after cooldown, open frames = %d", got)
	}
}

func TestDebouncer_CustomTiming(t *testing.T) {
	d := NewDebouncer(Timing{ConfidenceFrames: 2, PinchConfirmFrames: 0, Cooldown: time.Second})

	if dec := d.Observe(gesture.Pinch, sessionStart); !dec.Pinching {
		t.Error("expected pinch confirmed on the first frame with PinchConfirmFrames 0")
	}
	if dec := d.Observe(gesture.Neutral, sessionStart.Add(frameInterval)); !dec.Released {
		t.Error("expected release")
	}

	now := sessionStart.Add(2 * time.Second)
	var dec Decision
	for i := 0; i < 3; i++ {
		dec = d.Observe(gesture.Fist, now)
		now = now.Add(frameInterval)
	}
	if !dec.Switch || dec.Target != Formed {
		t.Errorf("expected fist confirmed on the third frame, got %+v", dec)
	}
}
