// Package plugin discovers external action plugins and runs them when
// interaction triggers fire.
package plugin

import (
	"encoding/json"
	"fmt"
	"time"
)

// Trigger names an interaction edge that plugins can be bound to.
type Trigger string

const (
	// TriggerModeFormed fires when the mode changes to Formed.
	TriggerModeFormed Trigger = "mode.formed"
	// TriggerModeChaos fires when the mode changes to Chaos.
	TriggerModeChaos Trigger = "mode.chaos"
	// TriggerPinchSelect fires on the frame a pinch is confirmed.
	TriggerPinchSelect Trigger = "pinch.select"
	// TriggerPinchRelease fires when a confirmed pinch ends.
	TriggerPinchRelease Trigger = "pinch.release"
)

// Triggers lists every known trigger.
func Triggers() []Trigger {
	return []Trigger{TriggerModeFormed, TriggerModeChaos, TriggerPinchSelect, TriggerPinchRelease}
}

// ParseTrigger validates a trigger name.
func ParseTrigger(s string) (Trigger, error) {
	for _, t := range Triggers() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown trigger %q", s)
}

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// HasAction reports whether the manifest declares action.
func (m Manifest) HasAction(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to a plugin's stdin as JSON.
type Request struct {
	Action  string          `json:"action"`
	Trigger Trigger         `json:"trigger"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Event is the payload sent as Request.Params when a trigger fires.
type Event struct {
	Trigger  Trigger   `json:"trigger"`
	Mode     string    `json:"mode"`
	PointerX float64   `json:"pointerX"`
	PointerY float64   `json:"pointerY"`
	At       time.Time `json:"at"`
}
