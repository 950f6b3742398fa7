package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/pinchtree/internal/app"
	"github.com/ayusman/pinchtree/internal/capture"
	"github.com/ayusman/pinchtree/internal/config"
	"github.com/ayusman/pinchtree/internal/detector"
	"github.com/ayusman/pinchtree/internal/metrics"
	"github.com/ayusman/pinchtree/internal/plugin"
	"github.com/ayusman/pinchtree/internal/recordings"
	"github.com/ayusman/pinchtree/internal/server"
	"github.com/ayusman/pinchtree/internal/store"
	"github.com/ayusman/pinchtree/internal/tray"
)

type options struct {
	configPath string
	addr       string
	logLevel   string
	logFormat  string
	replay     string
	loop       bool
	enable     bool
	tray       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides server.addr)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flag.StringVar(&opts.replay, "replay", "", `landmark recording to replay instead of the camera ("demo" for the built-in one)`)
	flag.BoolVar(&opts.loop, "loop", false, "loop the replayed recording")
	flag.BoolVar(&opts.enable, "enable", false, "enable detection at startup")
	flag.BoolVar(&opts.tray, "tray", false, "show the system tray menu")
	flag.Parse()

	logger, err := newLogger(opts.logLevel, opts.logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("pinchtree failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid -log-format %q", format)
	}
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.replay != "" {
		cfg.Detector.Replay = opts.replay
		cfg.Detector.ReplayLoop = cfg.Detector.ReplayLoop || opts.loop
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(opts options, logger *slog.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("store opened", "path", st.Path())

	plugins := plugin.NewManager(cfg.Plugins.Dir, logger)
	if err := plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.Plugins.Dir, "error", err)
	}
	dispatcher := plugin.NewDispatcher(st.Bindings(), plugins, plugin.NewExecutor(cfg.Plugins.Timeout), logger)
	go dispatcher.Run(ctx)

	m := metrics.New()

	det, cam, err := newSource(cfg, logger)
	if err != nil {
		return err
	}
	var preview *capture.Preview
	if cam != nil {
		preview = capture.NewPreview()
	}

	a := app.New(app.Config{
		Options:   cfg.InteractionOptions(),
		Camera:    cam,
		Detector:  det,
		Store:     st,
		Triggers:  dispatcher,
		Metrics:   m,
		Preview:   preview,
		Logger:    logger,
		ActiveFPS: cfg.Camera.FPS,
		IdleFPS:   cfg.Camera.IdleFPS,
		IdleAfter: cfg.Camera.IdleAfter,
	})
	defer a.Close()

	if opts.enable {
		a.SetEnabled(true)
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		App:       a,
		Store:     st,
		Plugins:   plugins,
		Metrics:   m,
		Logger:    logger,
	})
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe(ctx, cfg.Server.Addr)
	}()

	if opts.tray {
		tr := tray.New(a)
		tr.OnSettings(func() { openBrowser("http://"+cfg.Server.Addr, logger) })
		tr.OnQuit(stop)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		tr.Run()
		stop()
		return <-srvErr
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return <-srvErr
	case err := <-srvErr:
		return err
	}
}

// newSource picks the landmark source. A replay recording runs without a
// camera; otherwise MediaPipe reads the camera. When the MediaPipe helper is
// missing the built-in demo recording is looped instead.
func newSource(cfg *config.Config, logger *slog.Logger) (detector.Detector, capture.Camera, error) {
	if cfg.Detector.Replay != "" {
		frames, err := loadReplay(cfg.Detector.Replay)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("replaying landmarks", "source", cfg.Detector.Replay, "frames", len(frames), "loop", cfg.Detector.ReplayLoop)
		return detector.NewReplayDetector(frames, cfg.Detector.ReplayLoop), nil, nil
	}

	det, err := detector.NewMediaPipeDetector(detector.Config{
		MinConfidence:   cfg.Detector.MinConfidence,
		MinPresenceConf: cfg.Detector.MinPresenceConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConfidence,
	}, logger)
	if errors.Is(err, detector.ErrServiceNotFound) {
		logger.Warn("mediapipe helper not found, looping the demo recording", "error", err)
		return detector.NewReplayDetector(recordings.MustLoad(recordings.Demo), true), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	cam := capture.NewCamera(capture.Options{
		Device: cfg.Camera.Device,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
	})
	return det, cam, nil
}

func loadReplay(source string) ([]*detector.HandLandmarks, error) {
	if source == "demo" {
		return recordings.Load(recordings.Demo)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return detector.LoadRecording(f)
}

func openBrowser(url string, logger *slog.Logger) {
	cmd := "xdg-open"
	if runtime.GOOS == "darwin" {
		cmd = "open"
	}
	if err := exec.Command(cmd, url).Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
	}
}

// findWebDir searches for the web UI in common locations: "web", "../web",
// "../../web" and ~/.pinchtree/web. Returns "" if none exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWeb := filepath.Join(home, ".pinchtree", "web")
	if info, err := os.Stat(homeWeb); err == nil && info.IsDir() {
		return homeWeb
	}
	return ""
}
