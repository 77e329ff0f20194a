package config

import (
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger, appName string) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               appName,
			BodyLimit:             50 * 1024 * 1024,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			DisableStartupMessage: true,
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				code := fiber.StatusInternalServerError
				if fe, ok := err.(*fiber.Error); ok {
					code = fe.Code
				}
				logger.WithField("path", c.Path()).Warnf("Unhandled error: %v", err)
				return c.Status(code).JSON(fiber.Map{"error": err.Error()})
			},
		})

	return app
}
