// Package server exposes predictions over a local HTTP API for browser
// integrations.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/leetcode"
	"github.com/abhisek/leetprob/internal/observability"
	"github.com/abhisek/leetprob/internal/predict"
)

// Predictor is the calculation surface the API serves.
type Predictor interface {
	Calculate(ctx context.Context, slug string, opts predict.Options) (*predict.Prediction, error)
	Summary(ctx context.Context) (*predict.Report, error)
	Sync(ctx context.Context) (*predict.SyncReport, error)
}

// Server is the HTTP API.
type Server struct {
	app       *fiber.App
	predictor Predictor
	latest    *predict.LatestSink
	logger    zerolog.Logger
}

// New builds the API. latest may be nil, in which case /api/predictions is
// always empty.
func New(p Predictor, latest *predict.LatestSink, logger zerolog.Logger) *Server {
	if latest == nil {
		latest = predict.NewLatestSink()
	}
	s := &Server{
		predictor: p,
		latest:    latest,
		logger:    logger.With().Str("component", "server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "leetprob",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(requestID(), observe(s.logger))

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/metrics", observability.MetricsHandler())

	api := s.app.Group("/api")
	api.Get("/probability", s.probability)
	api.Get("/probability/:slug", s.probability)
	api.Get("/predictions", s.predictions)
	api.Get("/stats", s.stats)
	api.Post("/sync", s.sync)

	return s
}

// App returns the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is done.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()
	s.logger.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

// probability computes the prediction for :slug, or for the ?url= query
// when no slug is in the path.
func (s *Server) probability(c *fiber.Ctx) error {
	input := c.Params("slug")
	if input == "" {
		input = c.Query("url")
	}
	slug := predict.ProblemSlug(input)
	if slug == "" {
		return sendError(c, fiber.StatusBadRequest, "a problem slug or url is required")
	}

	opts := predict.Options{
		ForceRefresh:    c.QueryBool("refresh", false),
		SkipSuggestions: c.QueryBool("skip_ai", false),
	}
	pred, err := s.predictor.Calculate(c.UserContext(), slug, opts)
	if err != nil {
		return err
	}
	return sendSuccess(c, pred)
}

func (s *Server) predictions(c *fiber.Ctx) error {
	return sendSuccess(c, s.latest.All())
}

func (s *Server) stats(c *fiber.Ctx) error {
	report, err := s.predictor.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return sendSuccess(c, report)
}

func (s *Server) sync(c *fiber.Ctx) error {
	report, err := s.predictor.Sync(c.UserContext())
	if err != nil {
		return err
	}
	return sendSuccess(c, report)
}

// handleError maps domain errors onto statuses: insufficient data is 422,
// site failures 502.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var (
		insufficient *predict.InsufficientDataError
		transport    *leetcode.TransportError
		fiberErr     *fiber.Error
	)
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(Response{
			Success: false,
			Message: insufficient.Error(),
			Reason:  string(insufficient.Reason),
		})
	case errors.As(err, &transport):
		s.logger.Warn().Err(err).Str("request_id", getRequestID(c)).Msg("site request failed")
		return sendError(c, fiber.StatusBadGateway, "the practice site could not be reached")
	case errors.As(err, &fiberErr):
		return sendError(c, fiberErr.Code, fiberErr.Message)
	default:
		s.logger.Error().Err(err).Str("request_id", getRequestID(c)).Msg("unhandled error")
		return sendError(c, fiber.StatusInternalServerError, "internal error")
	}
}
