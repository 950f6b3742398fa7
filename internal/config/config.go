// Package config loads pinchtree settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/pinchtree/internal/gesture"
	"github.com/ayusman/pinchtree/internal/interaction"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level pinchtree configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Store    StoreConfig    `yaml:"store"`
	Plugins  PluginsConfig  `yaml:"plugins"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// CameraConfig selects and sizes the capture device. The pipeline drops to
// IdleFPS after no hand has been seen for IdleAfter.
type CameraConfig struct {
	Device    int           `yaml:"device"`
	FPS       int           `yaml:"fps"`
	Width     int           `yaml:"width"`
	Height    int           `yaml:"height"`
	IdleFPS   int           `yaml:"idle_fps"`
	IdleAfter time.Duration `yaml:"idle_after"`
}

// DetectorConfig controls the landmark source. When Replay is set, landmarks
// come from a recording instead of the camera.
type DetectorConfig struct {
	MinConfidence         float64 `yaml:"min_confidence"`
	MinPresenceConfidence float64 `yaml:"min_presence_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
	Replay                string  `yaml:"replay"`
	ReplayLoop            bool    `yaml:"replay_loop"`
}

// GestureConfig holds classifier thresholds and debounce timing.
type GestureConfig struct {
	PinchThreshold     float64       `yaml:"pinch_threshold"`
	AimThreshold       float64       `yaml:"aim_threshold"`
	ThumbMultiplier    float64       `yaml:"thumb_multiplier"`
	FingerMultiplier   float64       `yaml:"finger_multiplier"`
	ConfidenceFrames   int           `yaml:"confidence_frames"`
	PinchConfirmFrames int           `yaml:"pinch_confirm_frames"`
	Cooldown           time.Duration `yaml:"cooldown"`
	InitialMode        string        `yaml:"initial_mode"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PluginsConfig controls plugin discovery and execution.
type PluginsConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file. Missing fields get defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Camera.FPS <= 0 {
		c.Camera.FPS = 30
	}
	if c.Camera.Width <= 0 {
		c.Camera.Width = 320
	}
	if c.Camera.Height <= 0 {
		c.Camera.Height = 240
	}
	if c.Camera.IdleFPS <= 0 {
		c.Camera.IdleFPS = 5
	}
	if c.Camera.IdleAfter <= 0 {
		c.Camera.IdleAfter = 2 * time.Second
	}

	if c.Detector.MinConfidence <= 0 {
		c.Detector.MinConfidence = 0.5
	}
	if c.Detector.MinPresenceConfidence <= 0 {
		c.Detector.MinPresenceConfidence = 0.5
	}
	if c.Detector.MinTrackingConfidence <= 0 {
		c.Detector.MinTrackingConfidence = 0.5
	}

	th := gesture.DefaultThresholds()
	timing := interaction.DefaultTiming()
	if c.Gesture.PinchThreshold <= 0 {
		c.Gesture.PinchThreshold = th.PinchDistance
	}
	if c.Gesture.AimThreshold <= 0 {
		c.Gesture.AimThreshold = th.AimDistance
	}
	if c.Gesture.ThumbMultiplier <= 0 {
		c.Gesture.ThumbMultiplier = th.ThumbMultiplier
	}
	if c.Gesture.FingerMultiplier <= 0 {
		c.Gesture.FingerMultiplier = th.FingerMultiplier
	}
	if c.Gesture.ConfidenceFrames <= 0 {
		c.Gesture.ConfidenceFrames = timing.ConfidenceFrames
	}
	if c.Gesture.PinchConfirmFrames <= 0 {
		c.Gesture.PinchConfirmFrames = timing.PinchConfirmFrames
	}
	if c.Gesture.Cooldown <= 0 {
		c.Gesture.Cooldown = timing.Cooldown
	}
	if c.Gesture.InitialMode == "" {
		c.Gesture.InitialMode = interaction.Formed.String()
	}

	home, _ := os.UserHomeDir()
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(home, ".pinchtree", "pinchtree.db")
	}
	if c.Plugins.Dir == "" {
		c.Plugins.Dir = filepath.Join(home, ".pinchtree", "plugins")
	}
	if c.Plugins.Timeout <= 0 {
		c.Plugins.Timeout = 5 * time.Second
	}
}

// Validate checks that thresholds and timings are usable.
func (c *Config) Validate() error {
	g := c.Gesture
	if g.PinchThreshold >= g.AimThreshold {
		return fmt.Errorf("%w: pinch_threshold %.3f must be below aim_threshold %.3f",
			ErrInvalid, g.PinchThreshold, g.AimThreshold)
	}
	if _, err := interaction.ParseMode(g.InitialMode); err != nil {
		return fmt.Errorf("%w: initial_mode: %v", ErrInvalid, err)
	}
	for name, v := range map[string]float64{
		"detector.min_confidence":          c.Detector.MinConfidence,
		"detector.min_presence_confidence": c.Detector.MinPresenceConfidence,
		"detector.min_tracking_confidence": c.Detector.MinTrackingConfidence,
	} {
		if v > 1 {
			return fmt.Errorf("%w: %s must be at most 1, got %.2f", ErrInvalid, name, v)
		}
	}
	if c.Camera.IdleFPS > c.Camera.FPS {
		return fmt.Errorf("%w: camera.idle_fps %d exceeds camera.fps %d", ErrInvalid, c.Camera.IdleFPS, c.Camera.FPS)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("%w: camera.device must not be negative", ErrInvalid)
	}
	return nil
}

// InteractionOptions converts the gesture section into controller options.
// Call Validate first; an unparseable initial mode falls back to Formed.
func (c *Config) InteractionOptions() interaction.Options {
	mode, err := interaction.ParseMode(c.Gesture.InitialMode)
	if err != nil {
		mode = interaction.Formed
	}
	return interaction.Options{
		Thresholds: gesture.Thresholds{
			PinchDistance:    c.Gesture.PinchThreshold,
			AimDistance:      c.Gesture.AimThreshold,
			ThumbMultiplier:  c.Gesture.ThumbMultiplier,
			FingerMultiplier: c.Gesture.FingerMultiplier,
		},
		Timing: interaction.Timing{
			ConfidenceFrames:   c.Gesture.ConfidenceFrames,
			PinchConfirmFrames: c.Gesture.PinchConfirmFrames,
			Cooldown:           c.Gesture.Cooldown,
		},
		InitialMode: mode,
	}
}
