package middleware

import (
	"strings"
	"time"

	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/log"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// newLoggingMiddleware logs one line per request. Request bodies are never
// logged: they are images, either as multipart or as base64 JSON.
func newLoggingMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		requestID, ok := c.Locals(contextPkg.RequestIDHeader).(string)
		if !ok || requestID == "" {
			requestID = "unknown"
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := log.Fields{
			"request_id":    requestID,
			"method":        c.Method(),
			"path":          c.Path(),
			"query":         string(c.Request().URI().QueryString()),
			"status":        status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"ip":            c.IP(),
			"user_agent":    c.Get(fiber.HeaderUserAgent),
			"content_type":  contentType(c),
			"response_size": len(c.Response().Body()),
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Success")
		}

		return err
	}
}

func contentType(c *fiber.Ctx) string {
	ct := c.Get(fiber.HeaderContentType)
	if i := strings.Index(ct, ";"); i != -1 {
		return ct[:i]
	}
	return ct
}
