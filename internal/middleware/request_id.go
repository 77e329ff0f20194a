package middleware

import (
	"time"

	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

func newRequestIDMiddleware(u utils.IUtils) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(contextPkg.RequestIDHeader)

		if requestID == "" {
			requestID, _ = u.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(contextPkg.RequestIDHeader, requestID)
		c.Set(contextPkg.RequestIDHeader, requestID)

		return c.Next()
	}
}
