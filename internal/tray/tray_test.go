package tray

import (
	"testing"
	"time"

	"github.com/ayusman/pinchtree/internal/app"
	"github.com/ayusman/pinchtree/internal/interaction"
)

func newTestApp() *app.App {
	return app.New(app.Config{
		Options: interaction.DefaultOptions(),
		Now:     func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
	})
}

func TestTray_ToggleMode(t *testing.T) {
	a := newTestApp()
	tr := New(a)

	if tr.Mode() != interaction.Formed {
		t.Fatalf("expected initial mode formed, got %s", tr.Mode())
	}

	tr.handleToggleMode()
	if a.Mode() != interaction.Chaos {
		t.Errorf("app mode = %s, want chaos", a.Mode())
	}
	if tr.Mode() != interaction.Chaos {
		t.Errorf("tray mode = %s, want chaos", tr.Mode())
	}
}

func TestTray_ToggleEnabled(t *testing.T) {
	a := newTestApp()
	tr := New(a)

	if tr.Enabled() {
		t.Fatal("detection should start disabled")
	}

	tr.handleToggleEnabled()
	if !a.Enabled() || !tr.Enabled() {
		t.Errorf("expected enabled, app=%v tray=%v", a.Enabled(), tr.Enabled())
	}

	tr.handleToggleEnabled()
	if a.Enabled() || tr.Enabled() {
		t.Errorf("expected disabled, app=%v tray=%v", a.Enabled(), tr.Enabled())
	}
}

func TestTray_HandleMessage(t *testing.T) {
	tr := New(newTestApp())

	tr.handleMessage(app.Message{Type: app.MessageFrame, Mode: interaction.Formed, Status: interaction.StatusNoHand})
	tr.handleMessage(app.Message{Type: app.MessageMode, Mode: interaction.Chaos})

	if tr.Mode() != interaction.Chaos {
		t.Errorf("mode = %s, want chaos", tr.Mode())
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New(newTestApp())

	called := false
	tr.OnSettings(func() { called = true })
	tr.handleSettings()
	if !called {
		t.Error("settings callback not called")
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{modeTitle(interaction.Chaos), "Mode: chaos"},
		{statusTitle(""), "Hand: no hand"},
		{statusTitle(interaction.StatusNoHand), "Hand: no hand"},
		{enabledTitle(true), "● Detection On"},
		{enabledTitle(false), "○ Detection Off"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
