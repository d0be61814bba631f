// Package web serves the chewtube dashboard API and wires browser clients
// to the playback session.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/chewtube/internal/config"
	"github.com/teslashibe/chewtube/internal/httpc"
	"github.com/teslashibe/chewtube/internal/log"
	"github.com/teslashibe/chewtube/pkg/bridge"
	"github.com/teslashibe/chewtube/pkg/hub"
	"github.com/teslashibe/chewtube/pkg/metrics"
	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/session"
	"github.com/teslashibe/chewtube/pkg/source"
	"github.com/teslashibe/chewtube/pkg/tuning"
)

// Status is what dashboards receive: the session snapshot plus the
// server-side view of the player surface.
type Status struct {
	session.Snapshot
	Notice          string          `json:"notice,omitempty"`
	Video           source.Resolved `json:"video"`
	PlayerConnected bool            `json:"player_connected"`
	Observers       int             `json:"observers"`
}

// Option configures a Server.
type Option func(*Server)

// WithLookup enables /api/source/lookup.
func WithLookup(l *source.Lookup) Option {
	return func(s *Server) { s.lookup = l }
}

// WithMetrics replaces the default metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// Server is the chewtube HTTP server.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	fallback player.Kind

	session  *session.Session
	bridge   *bridge.Bridge
	backends func(player.Kind) player.Backend
	status   *hub.Hub
	metrics  *metrics.Collector
	lookup   *source.Lookup

	mu          sync.RWMutex
	video       source.Resolved
	notice      string
	noticeUntil time.Time

	logger *slog.Logger
}

// New builds the server and its session. The initial backend is installed
// immediately; nothing runs until Start.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	kind, _ := player.ParseKind(cfg.Backend)
	fallback, _ := player.ParseKind(cfg.Fallback)

	s := &Server{
		cfg:      cfg,
		fallback: fallback,
		bridge:   bridge.New(),
		status:   hub.New("status"),
		logger:   log.Component("web"),
	}
	s.backends = s.newBackend
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	video, err := source.Resolve(source.WatchURL(cfg.VideoID))
	if err != nil {
		return nil, fmt.Errorf("video_id: %w", err)
	}
	s.video = video

	s.session = session.New(cfg.Session(), tuning.NewStore(cfg.Tuning), s.newBackend(kind))
	s.session.SetRecorder(s.metrics)
	s.session.OnUpdate(func(snap session.Snapshot) {
		_ = s.status.BroadcastJSON(s.statusFor(snap, false))
	})

	s.bridge.OnFrame(s.session.Submit)
	s.bridge.OnCameraError(func(reason string) {
		if err := s.session.DetectionFault(reason); err != nil {
			s.logger.Debug("detection fault not applied", "error", err)
		}
	})
	s.bridge.OnPlayerError(s.handlePlayerError)

	s.app = s.routes()
	return s, nil
}

func (s *Server) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ChewTube",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/session/start", s.handleStart)
	api.Post("/session/stop", s.handleStop)
	api.Get("/tuning", s.handleGetTuning)
	api.Put("/tuning", s.handlePutTuning)
	api.Post("/backend", s.handleBackend)
	api.Post("/error/clear", s.handleClearError)
	api.Get("/presets", s.handlePresets)
	api.Post("/source", s.handleSource)
	api.Get("/source/lookup", s.handleLookup)

	app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	// Browser clients
	s.bridge.RegisterRoutes(app)
	app.Get("/ws/status", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, s.status.Handler())

	if s.cfg.StaticDir != "" {
		app.Static("/", s.cfg.StaticDir)
	}
	return app
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Session returns the playback session.
func (s *Server) Session() *session.Session {
	return s.session
}

// Start runs the session loop and status hub until ctx is done.
// It does not listen; see Run.
func (s *Server) Start(ctx context.Context) {
	go s.status.Run(ctx)
	go func() {
		if err := s.session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("session loop failed", "error", err)
		}
	}()
}

// Run starts the background loops and serves HTTP on cfg.Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "backend", s.cfg.Backend)
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

// newBackend constructs a backend of the given kind on the bridge.
// An api backend that cannot be reached falls back to the embed channel.
func (s *Server) newBackend(kind player.Kind) player.Backend {
	switch kind {
	case player.KindMedia:
		m := player.NewMedia(s.bridge.MediaElement())
		m.SetPlayTimeout(s.cfg.CallTimeout.Std())
		return m
	case player.KindAPI:
		if s.cfg.VLC.URL == "" {
			return player.NewAPIPlayer(s.bridge.API(), nil)
		}
		vlc := player.NewVLC(s.cfg.VLC.URL, s.cfg.VLC.Password, httpc.Client)
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout.Std())
		defer cancel()
		if _, err := vlc.PlayerState(ctx); err != nil {
			s.logger.Warn("api player unavailable, using embed", "url", s.cfg.VLC.URL, "error", err)
			return player.NewEmbed(s.bridge.Channel())
		}
		return player.NewAPIPlayer(vlc, nil)
	default:
		return player.NewEmbed(s.bridge.Channel())
	}
}

// switchBackend installs a new backend of kind. The backend is closed again
// when the session does not accept it.
func (s *Server) switchBackend(kind player.Kind) error {
	b := s.backends(kind)
	if err := s.session.SwitchBackend(b); err != nil {
		_ = b.Close()
		return err
	}
	return nil
}

// handlePlayerError routes an error from the player surface. Blocked sources
// switch to the fallback backend with a short notice; anything else locks
// the gate until cleared.
func (s *Server) handlePlayerError(code int, message string) {
	kind := s.session.Snapshot().Backend
	perr := &player.Error{Kind: kind, Code: code, Message: message}

	if perr.IsBlocked() && kind != s.fallback {
		s.logger.Warn("source blocked embedded playback, switching backend",
			"code", code, "from", kind, "to", s.fallback)
		if err := s.switchBackend(s.fallback); err == nil {
			s.setNotice(perr.Notice(), s.cfg.ErrorDisplay.Std())
			return
		}
	}
	if err := s.session.ReportError(perr); err != nil {
		s.logger.Debug("player error not applied", "error", err)
	}
}

func (s *Server) setNotice(text string, d time.Duration) {
	s.mu.Lock()
	s.notice = text
	s.noticeUntil = time.Now().Add(d)
	s.mu.Unlock()
}

func (s *Server) clearNotice() {
	s.mu.Lock()
	s.notice = ""
	s.noticeUntil = time.Time{}
	s.mu.Unlock()
}

// statusFor decorates a snapshot. Keypoints are only included for the
// debug overlay.
func (s *Server) statusFor(snap session.Snapshot, debug bool) Status {
	if !debug {
		snap.Keypoints = nil
	}

	s.mu.RLock()
	st := Status{Snapshot: snap, Video: s.video}
	if s.notice != "" && time.Now().Before(s.noticeUntil) {
		st.Notice = s.notice
	}
	s.mu.RUnlock()

	if st.Notice == "" && snap.Error != "" {
		st.Notice = snap.Error
	}
	st.PlayerConnected = s.bridge.PlayerConnected()
	st.Observers = s.bridge.ObserverCount()
	return st
}
