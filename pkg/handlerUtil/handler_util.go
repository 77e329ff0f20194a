package handlerUtil

import (
	"errors"

	"CutoutDemo/pkg/log"
	"CutoutDemo/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DetailKey is the error key of the inference server replies.
	DetailKey = "detail"
	// ErrorKey is the error key of the gateway and client replies.
	ErrorKey = "error"
)

type ErrorHandler struct {
	logger     *logrus.Logger
	messageKey string
}

func New(logger *logrus.Logger, messageKey string) *ErrorHandler {
	if messageKey == "" {
		messageKey = ErrorKey
	}
	return &ErrorHandler{
		logger:     logger,
		messageKey: messageKey,
	}
}

// Handle answers with the status carried by a response.Error, or 500. The
// error text is always surfaced verbatim.
func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		if respErr.Code >= fiber.StatusInternalServerError {
			h.logger.WithFields(fields).Error("Operation failed with error response")
		} else {
			h.logger.WithFields(fields).Warn("Operation failed with error response")
		}
		return c.Status(respErr.Code).JSON(fiber.Map{h.messageKey: err.Error()})
	}

	traceID := log.ErrorWithTraceID(fields, "Unexpected error")
	c.Set("X-Trace-ID", traceID)

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		h.messageKey: err.Error(),
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
