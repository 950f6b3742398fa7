// Package app runs the capture, detection and interaction pipeline and
// connects it to storage, plugins and UI subscribers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/pinchtree/internal/capture"
	"github.com/ayusman/pinchtree/internal/detector"
	"github.com/ayusman/pinchtree/internal/gesture"
	"github.com/ayusman/pinchtree/internal/interaction"
	"github.com/ayusman/pinchtree/internal/metrics"
	"github.com/ayusman/pinchtree/internal/plugin"
	"github.com/ayusman/pinchtree/internal/store"
)

// Pipeline timing defaults.
const (
	// ActiveFPS is the frame rate while a hand is being tracked.
	ActiveFPS = 30
	// IdleFPS is the frame rate after no hand has been seen for IdleAfter.
	IdleFPS = 5
	// IdleAfter is how long without a hand before dropping to IdleFPS.
	IdleAfter = 2 * time.Second
	// frameFlushEvery is how many frames are counted before the session row is updated.
	frameFlushEvery = 30
)

const settingEnabled = "enabled"

// ErrNoDetector is returned by Start when no detector is configured.
var ErrNoDetector = errors.New("no hand detector configured")

// TriggerSink receives interaction triggers for plugin dispatch.
type TriggerSink interface {
	Dispatch(ev plugin.Event) bool
}

// Config holds the collaborators and options of an App. Only Detector is
// required; a nil Camera feeds the detector nil frames, which suits replay
// detectors.
type Config struct {
	Options   interaction.Options
	Camera    capture.Camera
	Detector  detector.Detector
	Store     *store.Store
	Triggers  TriggerSink
	Metrics   *metrics.Metrics
	Preview   *capture.Preview
	Logger    *slog.Logger
	ActiveFPS int
	IdleFPS   int
	IdleAfter time.Duration
	// Now stamps frames; defaults to time.Now.
	Now func() time.Time
}

// State is a snapshot of the app for API and tray consumers.
type State struct {
	Mode      interaction.Mode          `json:"mode"`
	Event     interaction.Event         `json:"event"`
	Status    interaction.Status        `json:"status"`
	Candidate gesture.Candidate         `json:"candidate"`
	Enabled   bool                      `json:"enabled"`
	Running   bool                      `json:"running"`
	SessionID string                    `json:"sessionId,omitempty"`
	Debounce  interaction.DebounceState `json:"debounce"`
}

// App owns the interaction Controller and serializes every access to it:
// frames from the pipeline goroutine and manual mode changes from the API
// and tray go through the same mutex.
type App struct {
	cfg    Config
	logger *slog.Logger
	hub    *Hub

	mu           sync.Mutex
	ctrl         *interaction.Controller
	enabled      bool
	last         interaction.Result
	lastPinching bool
	session      *store.Session
	frames       int64
	detected     int64
	cancel       context.CancelFunc
	done         chan struct{}
}

// New creates an App. Detection starts disabled unless the store has a
// saved enabled setting.
func New(cfg Config) *App {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = ActiveFPS
	}
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = IdleFPS
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = IdleAfter
	}

	a := &App{
		cfg:    cfg,
		logger: cfg.Logger,
		hub:    NewHub(),
		ctrl:   interaction.NewController(cfg.Options),
		last:   interaction.Result{Event: interaction.UndetectedEvent, Status: interaction.StatusNoHand},
	}

	if cfg.Store != nil {
		if v, err := cfg.Store.Settings().Get(settingEnabled); err == nil {
			a.enabled, _ = strconv.ParseBool(v)
		} else if !errors.Is(err, store.ErrNotFound) {
			a.logger.Warn("failed to load enabled setting", "error", err)
		}
	}

	return a
}

// Subscribe registers a UI subscriber. See Hub.Subscribe.
func (a *App) Subscribe(buffer int) (<-chan Message, func()) {
	return a.hub.Subscribe(buffer)
}

// Preview returns the camera preview broadcaster, or nil.
func (a *App) Preview() *capture.Preview {
	return a.cfg.Preview
}

// Start opens the camera, begins a new session and launches the pipeline.
// Starting a running App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	if a.cfg.Detector == nil {
		return ErrNoDetector
	}

	if a.cfg.Camera != nil {
		if err := a.cfg.Camera.Open(); err != nil {
			return fmt.Errorf("start pipeline: %w", err)
		}
		a.cfg.Camera.SetFPS(a.cfg.ActiveFPS)
	}

	now := a.cfg.Now()
	a.ctrl = interaction.NewController(a.cfg.Options)
	a.last = interaction.Result{Event: interaction.UndetectedEvent, Status: interaction.StatusNoHand}
	a.lastPinching = false
	a.startSessionLocked(now)

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.runPipeline(ctx, a.done)

	a.logger.Info("pipeline started", "mode", a.ctrl.Mode(), "fps", a.cfg.ActiveFPS)
	return nil
}

// Stop halts the pipeline, closes the camera and ends the session.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if a.cfg.Camera != nil {
		if err := a.cfg.Camera.Close(); err != nil {
			a.logger.Error("failed to close camera", "error", err)
		}
	}

	a.mu.Lock()
	a.endSessionLocked(a.cfg.Now())
	a.mu.Unlock()

	a.logger.Info("pipeline stopped")
}

// Wait blocks until the running pipeline exits on its own or is stopped.
func (a *App) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() error {
	a.Stop()
	if a.cfg.Detector != nil {
		return a.cfg.Detector.Close()
	}
	return nil
}

// SetEnabled turns detection on or off. Disabling behaves like losing the
// hand: counters reset and an active pinch is released.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	var fx effects
	if changed && !enabled {
		fx = a.processLocked(interaction.Frame{At: a.cfg.Now()})
	}
	a.mu.Unlock()

	a.apply(fx)

	if !changed {
		return
	}
	a.logger.Info("detection toggled", "enabled", enabled)
	if a.cfg.Store != nil {
		if err := a.cfg.Store.Settings().Set(settingEnabled, strconv.FormatBool(enabled)); err != nil {
			a.logger.Warn("failed to save enabled setting", "error", err)
		}
	}
}

// Enabled reports whether detection is on.
func (a *App) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// SetMode overrides the mode, as the manual toggle does. It reports the
// change, or false when m is already current.
func (a *App) SetMode(m interaction.Mode) (interaction.ModeChange, bool) {
	a.mu.Lock()
	change, changed := a.ctrl.SetMode(m, a.cfg.Now())
	var fx effects
	if changed {
		fx = effects{
			change:    &change,
			source:    store.SourceManual,
			mode:      change.To,
			event:     a.last.Event,
			at:        change.At,
			sessionID: a.sessionIDLocked(),
		}
		a.hub.Publish(Message{Type: MessageMode, Mode: change.To, Change: &change, Source: store.SourceManual})
	}
	a.mu.Unlock()

	a.apply(fx)
	if changed {
		a.logger.Info("mode set manually", "from", change.From, "to", change.To)
	}
	return change, changed
}

// ToggleMode flips between Formed and Chaos.
func (a *App) ToggleMode() interaction.ModeChange {
	a.mu.Lock()
	target := a.ctrl.Mode().Toggle()
	a.mu.Unlock()

	change, _ := a.SetMode(target)
	return change
}

// Mode returns the current mode.
func (a *App) Mode() interaction.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctrl.Mode()
}

// State returns a snapshot of the app.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := State{
		Mode:      a.ctrl.Mode(),
		Event:     a.last.Event,
		Status:    a.last.Status,
		Candidate: a.last.Candidate,
		Enabled:   a.enabled,
		Debounce:  a.ctrl.DebounceState(),
	}
	if a.done != nil {
		select {
		case <-a.done:
		default:
			s.Running = true
		}
	}
	if a.session != nil {
		s.SessionID = a.session.ID
	}
	return s
}

func (a *App) startSessionLocked(now time.Time) {
	a.session = nil
	a.frames, a.detected = 0, 0
	if a.cfg.Store == nil {
		return
	}

	sess := &store.Session{InitialMode: a.ctrl.Mode().String(), StartedAt: now}
	if err := a.cfg.Store.Sessions().Start(sess); err != nil {
		a.logger.Warn("failed to record session", "error", err)
		return
	}
	a.session = sess
}

func (a *App) endSessionLocked(now time.Time) {
	if a.session == nil || a.cfg.Store == nil {
		return
	}
	a.flushFramesLocked()
	if err := a.cfg.Store.Sessions().End(a.session.ID, now); err != nil {
		a.logger.Warn("failed to end session", "session", a.session.ID, "error", err)
	}
}

func (a *App) flushFramesLocked() {
	if a.session == nil || a.cfg.Store == nil || a.frames == 0 {
		return
	}
	if err := a.cfg.Store.Sessions().AddFrames(a.session.ID, a.frames, a.detected); err != nil {
		a.logger.Warn("failed to update session frames", "session", a.session.ID, "error", err)
	}
	a.frames, a.detected = 0, 0
}
