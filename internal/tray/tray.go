// Package tray provides the system tray menu: current mode and hand status,
// a manual mode toggle, the detection switch and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/pinchtree/internal/app"
	"github.com/ayusman/pinchtree/internal/interaction"
)

// Controller is the part of the App the tray drives.
type Controller interface {
	State() app.State
	ToggleMode() interaction.ModeChange
	SetEnabled(enabled bool)
	Subscribe(buffer int) (<-chan app.Message, func())
}

// Tray is the system tray application.
type Tray struct {
	ctrl       Controller
	onSettings func()
	onQuit     func()
	mu         sync.RWMutex

	mode    interaction.Mode
	status  interaction.Status
	enabled bool

	menuMode    *systray.MenuItem
	menuStatus  *systray.MenuItem
	menuEnabled *systray.MenuItem
	unsubscribe func()
}

// New creates a Tray over ctrl, seeded from its current state.
func New(ctrl Controller) *Tray {
	st := ctrl.State()
	return &Tray{
		ctrl:    ctrl,
		mode:    st.Mode,
		status:  st.Status,
		enabled: st.Enabled,
	}
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit and must be called from the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Pinchtree")
	systray.SetTooltip("Pinchtree hand gesture control")

	t.mu.Lock()
	t.menuMode = systray.AddMenuItem(modeTitle(t.mode), "Current display mode")
	t.menuMode.Disable()
	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Hand status")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuToggle := systray.AddMenuItem("Toggle Mode", "Switch between formed and chaos")
	t.mu.Lock()
	t.menuEnabled = systray.AddMenuItem(enabledTitle(t.enabled), "Toggle hand detection")
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Pinchtree")

	msgs, unsubscribe := t.ctrl.Subscribe(16)
	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				t.handleMessage(msg)
			case <-menuToggle.ClickedCh:
				t.handleToggleMode()
			case <-t.menuEnabled.ClickedCh:
				t.handleToggleEnabled()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// handleMessage refreshes the mode and status lines. Titles are only set
// when the text changes since frame messages arrive at camera rate.
func (t *Tray) handleMessage(msg app.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.Mode != t.mode {
		t.mode = msg.Mode
		if t.menuMode != nil {
			t.menuMode.SetTitle(modeTitle(t.mode))
		}
	}
	if msg.Type == app.MessageFrame && msg.Status != t.status {
		t.status = msg.Status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(statusTitle(t.status))
		}
	}
}

func (t *Tray) handleToggleMode() {
	change := t.ctrl.ToggleMode()
	t.handleMessage(app.Message{Type: app.MessageMode, Mode: change.To})
}

func (t *Tray) handleToggleEnabled() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuEnabled != nil {
		t.menuEnabled.SetTitle(enabledTitle(enabled))
	}
	t.mu.Unlock()

	// Outside the lock: disabling publishes a frame message back to us.
	t.ctrl.SetEnabled(enabled)
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Enabled returns the detection state as shown in the menu.
func (t *Tray) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Mode returns the mode as shown in the menu.
func (t *Tray) Mode() interaction.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

func modeTitle(m interaction.Mode) string {
	return "Mode: " + m.String()
}

func statusTitle(s interaction.Status) string {
	if s == "" {
		return "Hand: " + string(interaction.StatusNoHand)
	}
	return "Hand: " + string(s)
}

func enabledTitle(enabled bool) string {
	if enabled {
		return "● Detection On"
	}
	return "○ Detection Off"
}
