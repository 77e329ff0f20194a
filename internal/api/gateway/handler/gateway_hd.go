package gatewayHandler

import (
	"CutoutDemo/internal/api/gateway"
	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/handlerUtil"
	"CutoutDemo/pkg/log"
	"CutoutDemo/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Segment relays the request to the inference server and answers with the
// upstream status, content type and body unchanged.
func (h *GatewayHandler) Segment(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c := contextPkg.FromFiberCtx(ctx)

	errHandler := handlerUtil.New(h.log, handlerUtil.ErrorKey)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing gateway segment request")

	var req gateway.SegmentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, response.Wrap(fiber.StatusInternalServerError, err), ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.Handle(ctx, requestID, gateway.ErrNoImage, ctx.Path(), "validate_request")
	}

	resp, err := h.gatewayService.Forward(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "forward")
	}

	if score := resp.Header.Get(response.ScoreHeader); score != "" {
		ctx.Set(response.ScoreHeader, score)
	}
	if resp.ContentType != "" {
		ctx.Set(fiber.HeaderContentType, resp.ContentType)
	}
	return ctx.Status(resp.StatusCode).Send(resp.Body)
}
