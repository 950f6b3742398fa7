package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchtree/internal/detector"
	"github.com/ayusman/pinchtree/internal/interaction"
	"github.com/ayusman/pinchtree/internal/plugin"
	"github.com/ayusman/pinchtree/internal/store"
)

// effects are the side effects of one processed frame or manual change,
// applied after the App lock is released.
type effects struct {
	change    *interaction.ModeChange
	source    string
	mode      interaction.Mode
	event     interaction.Event
	at        time.Time
	sessionID string
	selected  bool
	released  bool
}

var modeTriggers = map[interaction.Mode]plugin.Trigger{
	interaction.Formed: plugin.TriggerModeFormed,
	interaction.Chaos:  plugin.TriggerModeChaos,
}

// runPipeline is the frame loop. Each tick reads a camera frame, detects the
// hand and feeds the Controller. After IdleAfter without a hand the camera
// drops to IdleFPS; the first detected hand restores ActiveFPS.
func (a *App) runPipeline(ctx context.Context, done chan struct{}) {
	defer close(done)

	activeInterval := time.Second / time.Duration(a.cfg.ActiveFPS)
	idleInterval := time.Second / time.Duration(a.cfg.IdleFPS)

	ticker := time.NewTicker(activeInterval)
	defer ticker.Stop()

	idle := false
	lastHand := a.cfg.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !a.Enabled() {
			continue
		}

		started := time.Now()
		hand, err := a.captureHand()
		if errors.Is(err, detector.ErrRecordingExhausted) {
			a.logger.Info("landmark recording finished")
			return
		}
		if err != nil {
			if a.cfg.Metrics != nil {
				a.cfg.Metrics.DetectorError()
			}
			a.logger.Debug("frame skipped", "error", err)
			continue
		}

		now := a.cfg.Now()
		res := a.step(interaction.Frame{Hand: hand, At: now}, started)

		if a.cfg.Camera == nil {
			continue
		}
		switch {
		case res.Event.Detected:
			lastHand = now
			if idle {
				idle = false
				a.cfg.Camera.SetFPS(a.cfg.ActiveFPS)
				ticker.Reset(activeInterval)
				a.logger.Debug("hand found, switching to active rate", "fps", a.cfg.ActiveFPS)
			}
		case !idle && now.Sub(lastHand) >= a.cfg.IdleAfter:
			idle = true
			a.cfg.Camera.SetFPS(a.cfg.IdleFPS)
			ticker.Reset(idleInterval)
			a.logger.Debug("no hand, switching to idle rate", "fps", a.cfg.IdleFPS)
		}
	}
}

// captureHand reads one camera frame, if there is a camera, and runs the
// detector on it. A nil hand means no hand in the frame.
func (a *App) captureHand() (*detector.HandLandmarks, error) {
	var frame *gocv.Mat
	if a.cfg.Camera != nil {
		f, err := a.cfg.Camera.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		defer f.Close()
		frame = f

		if a.cfg.Preview != nil {
			if err := a.cfg.Preview.PublishMat(f); err != nil {
				a.logger.Debug("preview frame dropped", "error", err)
			}
		}
	}

	hand, err := a.cfg.Detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect hand: %w", err)
	}
	return hand, nil
}

// Step processes one frame synchronously, exactly as the pipeline does, and
// returns the controller result.
func (a *App) Step(f interaction.Frame) interaction.Result {
	return a.step(f, time.Now())
}

func (a *App) step(f interaction.Frame, started time.Time) interaction.Result {
	a.mu.Lock()
	fx := a.processLocked(f)
	res := a.last
	a.mu.Unlock()

	if a.cfg.Metrics != nil {
		a.cfg.Metrics.ObserveResult(res, time.Since(started))
	}
	a.apply(fx)
	return res
}

// processLocked runs the Controller and publishes the frame. a.mu must be held.
func (a *App) processLocked(f interaction.Frame) effects {
	res := a.ctrl.Process(f)
	a.last = res

	selected := res.Event.Pinching && !a.lastPinching
	a.lastPinching = res.Event.Pinching

	a.frames++
	if res.Event.Detected {
		a.detected++
	}
	if a.frames >= frameFlushEvery {
		a.flushFramesLocked()
	}

	mode := a.ctrl.Mode()
	ev := res.Event
	msg := Message{Type: MessageFrame, Mode: mode, Event: &ev, Status: res.Status}
	if ev.Detected {
		c := res.Candidate
		msg.Candidate = &c
	}
	a.hub.Publish(msg)

	fx := effects{
		mode:      mode,
		event:     ev,
		at:        f.At,
		sessionID: a.sessionIDLocked(),
		selected:  selected,
		released:  res.Released,
	}
	if res.Change != nil {
		fx.change = res.Change
		fx.source = store.SourceGesture
		a.hub.Publish(Message{Type: MessageMode, Mode: res.Change.To, Change: res.Change, Source: store.SourceGesture})
	}
	return fx
}

func (a *App) sessionIDLocked() string {
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

// apply persists transitions and queues plugin triggers.
func (a *App) apply(fx effects) {
	if fx.change != nil {
		a.logger.Info("mode changed", "from", fx.change.From, "to", fx.change.To, "source", fx.source)
		if fx.source == store.SourceManual && a.cfg.Metrics != nil {
			a.cfg.Metrics.ObserveModeChange(*fx.change)
		}
		a.recordTransition(fx)
		a.trigger(modeTriggers[fx.change.To], fx)
	}
	if fx.selected {
		a.logger.Debug("pinch selected", "x", fx.event.PointerX, "y", fx.event.PointerY)
		a.trigger(plugin.TriggerPinchSelect, fx)
	}
	if fx.released {
		a.logger.Debug("pinch released")
		a.trigger(plugin.TriggerPinchRelease, fx)
	}
}

func (a *App) recordTransition(fx effects) {
	if a.cfg.Store == nil || fx.sessionID == "" {
		return
	}
	err := a.cfg.Store.Transitions().Record(&store.Transition{
		SessionID: fx.sessionID,
		From:      fx.change.From.String(),
		To:        fx.change.To.String(),
		Source:    fx.source,
		At:        fx.change.At,
	})
	if err != nil {
		a.logger.Warn("failed to record transition", "error", err)
	}
}

func (a *App) trigger(t plugin.Trigger, fx effects) {
	if a.cfg.Triggers == nil {
		return
	}
	a.cfg.Triggers.Dispatch(plugin.Event{
		Trigger:  t,
		Mode:     fx.mode.String(),
		PointerX: fx.event.PointerX,
		PointerY: fx.event.PointerY,
		At:       fx.at,
	})
}
