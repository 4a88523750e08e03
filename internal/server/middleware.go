package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/observability"
)

const requestIDLocal = "request_id"

// requestID tags every request with an X-Request-ID, reusing the caller's.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDLocal, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDLocal).(string); ok {
		return id
	}
	return ""
}

// observe records request metrics and logs each API call.
func observe(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler set the final status before it is recorded.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
			err = nil
		}
		duration := time.Since(start)

		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()

		observability.APIRequests().WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(duration.Seconds())

		l := logger.With().
			Str("request_id", getRequestID(c)).
			Str("route", route).
			Str("method", method).
			Int("status", status).
			Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
			Logger()
		switch {
		case status >= fiber.StatusInternalServerError:
			l.Error().Msg("request failed")
		case status >= fiber.StatusBadRequest:
			l.Warn().Msg("request completed with client error")
		default:
			l.Debug().Msg("request completed")
		}
		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}
