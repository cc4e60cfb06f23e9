package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in requests and responses.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// requestID reuses the caller's request id or assigns a new one.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

func requestIDOf(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func (s *Server) logRequests() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler write the response so the logged status is final.
			if herr := s.handleError(c, err); herr != nil {
				return herr
			}
		}

		status := c.Response().StatusCode()
		entry := s.log.WithFields(logrus.Fields{
			"request_id": requestIDOf(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		})

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("server error")
		case status >= fiber.StatusBadRequest:
			entry.Warn("client error")
		default:
			entry.Debug("request served")
		}
		return nil
	}
}
