package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/chewtube/pkg/bridge"
	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/session"
	"github.com/teslashibe/chewtube/pkg/source"
	"github.com/teslashibe/chewtube/pkg/tuning"
)

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, session.ErrClosed):
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

// handleStatus returns the current session status.
// ?debug=1 includes face keypoints for the overlay.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.statusFor(s.session.Snapshot(), c.QueryBool("debug")))
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	if err := s.session.Start(); err != nil {
		return err
	}
	return c.JSON(s.statusFor(s.session.Snapshot(), false))
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	if err := s.session.Stop(); err != nil {
		return err
	}
	return c.JSON(s.statusFor(s.session.Snapshot(), false))
}

func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.session.Params().Get())
}

// handlePutTuning applies a partial update. Omitted fields keep their value.
func (s *Server) handlePutTuning(c *fiber.Ctx) error {
	var update tuning.Params
	if err := c.BodyParser(&update); err != nil {
		return badRequest(err)
	}
	p, err := s.session.Params().Update(update)
	if err != nil {
		return badRequest(err)
	}
	s.logger.Info("tuning updated", "sensitivity", p.Sensitivity, "decay_rate", p.DecayRate, "fuel_per_bite", p.FuelPerBite)
	return c.JSON(p)
}

// BackendRequest selects a playback backend.
type BackendRequest struct {
	Kind string `json:"kind"`
}

func (s *Server) handleBackend(c *fiber.Ctx) error {
	var req BackendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	kind, err := player.ParseKind(req.Kind)
	if err != nil {
		return badRequest(err)
	}
	if err := s.switchBackend(kind); err != nil {
		return err
	}
	s.clearNotice()
	return c.JSON(s.statusFor(s.session.Snapshot(), false))
}

func (s *Server) handleClearError(c *fiber.Ctx) error {
	if err := s.session.ClearError(); err != nil {
		return err
	}
	s.clearNotice()
	return c.JSON(s.statusFor(s.session.Snapshot(), false))
}

func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets":         source.Presets(),
		"local_video_url": source.LocalVideoURL,
	})
}

// SourceRequest selects a video by link or preset id.
type SourceRequest struct {
	URL string `json:"url"`
}

// handleSource resolves a YouTube link, tells the player surface to load it
// and clears any error left by the previous video.
func (s *Server) handleSource(c *fiber.Ctx) error {
	var req SourceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}

	link := req.URL
	if p, ok := source.FindPreset(link); ok {
		link = source.WatchURL(p.ID)
	}
	video, err := source.Resolve(link)
	if err != nil {
		return badRequest(err)
	}

	s.mu.Lock()
	s.video = video
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := s.bridge.Load(ctx, video.ID, video.EmbedURL); err != nil && !errors.Is(err, bridge.ErrNotConnected) {
		s.logger.Warn("load command failed", "video_id", video.ID, "error", err)
	}

	if err := s.session.ClearError(); err != nil {
		return err
	}
	s.clearNotice()
	s.logger.Info("video selected", "video_id", video.ID)
	return c.JSON(video)
}

// handleLookup returns Data API metadata for ?url=.
func (s *Server) handleLookup(c *fiber.Ctx) error {
	if s.lookup == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "video lookup not configured")
	}
	link := c.Query("url")
	if link == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}

	v, err := s.lookup.Resolve(c.UserContext(), link)
	switch {
	case err == nil:
		return c.JSON(v)
	case errors.Is(err, source.ErrInvalidURL), errors.Is(err, source.ErrInvalidVideoID):
		return badRequest(err)
	case errors.Is(err, source.ErrVideoNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
}
