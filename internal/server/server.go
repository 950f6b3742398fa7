// Package server provides the HTTP API, event WebSocket and camera preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/pinchtree/internal/app"
	"github.com/ayusman/pinchtree/internal/interaction"
	"github.com/ayusman/pinchtree/internal/metrics"
	"github.com/ayusman/pinchtree/internal/plugin"
	"github.com/ayusman/pinchtree/internal/server/api"
	"github.com/ayusman/pinchtree/internal/store"
)

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir string
	App       *app.App
	Store     *store.Store
	Plugins   *plugin.Manager
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Server is the HTTP front end of the application.
type Server struct {
	config Config
	router chi.Router
	logger *slog.Logger
	start  time.Time
}

// New creates a Server with all routes registered.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: config.Logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/api/health", s.handleHealth)

	if s.config.App != nil {
		r.Get("/api/state", s.handleState)
		r.Put("/api/mode", s.handleSetMode)
		r.Post("/api/mode/toggle", s.handleToggleMode)
		r.Put("/api/enabled", s.handleSetEnabled)
		r.Get("/api/events", NewEventsHandler(s.config.App, s.config.Metrics, s.logger).ServeHTTP)
		if preview := s.config.App.Preview(); preview != nil {
			r.Get("/api/stream", NewStreamHandler(preview).ServeHTTP)
		}
	}

	if s.config.Store != nil {
		var lookup api.PluginLookup
		if s.config.Plugins != nil {
			lookup = s.config.Plugins
		}
		r.Route("/api/bindings", api.NewBindingHandler(s.config.Store, lookup).Routes)

		history := api.NewHistoryHandler(s.config.Store)
		r.Get("/api/transitions", history.Transitions)
		r.Get("/api/sessions", history.Sessions)
	}

	if s.config.Plugins != nil {
		r.Get("/api/plugins", api.ListPlugins(s.config.Plugins))
	}

	if s.config.Metrics != nil {
		r.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, s.config.App.State())
}

type modeRequest struct {
	Mode *interaction.Mode `json:"mode"`
}

type modeResponse struct {
	Mode    interaction.Mode        `json:"mode"`
	Changed bool                    `json:"changed"`
	Change  *interaction.ModeChange `json:"change,omitempty"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mode == nil {
		api.WriteError(w, http.StatusBadRequest, "mode must be \"formed\" or \"chaos\"")
		return
	}

	change, changed := s.config.App.SetMode(*req.Mode)
	resp := modeResponse{Mode: s.config.App.Mode(), Changed: changed}
	if changed {
		resp.Change = &change
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleMode(w http.ResponseWriter, r *http.Request) {
	change := s.config.App.ToggleMode()
	api.WriteJSON(w, http.StatusOK, modeResponse{Mode: change.To, Changed: true, Change: &change})
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		api.WriteError(w, http.StatusBadRequest, "enabled must be a boolean")
		return
	}

	s.config.App.SetEnabled(*req.Enabled)
	api.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.App.Enabled()})
}

// requestLogger logs each request at debug level once it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
