// Package recordings embeds landmark recordings used by tests and the replay demo.
package recordings

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ayusman/pinchtree/internal/detector"
)

//go:embed data/*.json
var dataFS embed.FS

// Recording names.
const (
	// PinchRelease is three pinch frames followed by two frames without a hand.
	PinchRelease = "pinch_release.json"
	// OpenStreak is eight open palm frames followed by two frames without a hand.
	OpenStreak = "open_streak.json"
	// Demo cycles through open palm, pinch and fist with gaps between them.
	Demo = "demo.json"
)

// Load loads an embedded recording by name.
func Load(name string) ([]*detector.HandLandmarks, error) {
	data, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}

	frames, err := detector.LoadRecording(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return frames, nil
}

// MustLoad is Load for tests; it panics on error.
func MustLoad(name string) []*detector.HandLandmarks {
	frames, err := Load(name)
	if err != nil {
		panic(err)
	}
	return frames
}

// Names lists the embedded recordings.
func Names() []string {
	entries, _ := dataFS.ReadDir("data")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
