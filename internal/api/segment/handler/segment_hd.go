package segmentHandler

import (
	"strconv"

	"CutoutDemo/internal/api/segment"
	"CutoutDemo/internal/entity"
	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/handlerUtil"
	"CutoutDemo/pkg/log"
	"CutoutDemo/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Segment accepts a multipart "file" plus optional point_x, point_y and
// box_x1..box_y2 integers, read from the form or the query string.
func (h *SegmentHandler) Segment(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c := contextPkg.FromFiberCtx(ctx)

	errHandler := handlerUtil.New(h.log, handlerUtil.DetailKey)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing segment request")

	if !h.segmentService.ModelLoaded() {
		return errHandler.Handle(ctx, requestID, segment.ErrModelNotLoaded, ctx.Path(), "segment")
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return errHandler.Handle(ctx, requestID, segment.ErrMissingFile, ctx.Path(), "parse_form_file")
	}

	if err := h.utils.CheckFileSize(file); err != nil {
		return errHandler.Handle(ctx, requestID, response.Wrap(fiber.StatusBadRequest, err), ctx.Path(), "check_file_size")
	}

	image, err := h.utils.ReadFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_form_file")
	}

	params, err := parsePromptParams(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_prompt")
	}

	result, err := h.segmentService.Segment(c, segment.SegmentRequest{
		Image:  image,
		Params: params,
	})
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "segment")
	}

	ctx.Set(response.ScoreHeader, strconv.FormatFloat(result.Score, 'f', 4, 64))

	if result.ImageURL != "" {
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, segment.ImageURLResponse{
			ImageURL: result.ImageURL,
		})
	}

	ctx.Set(fiber.HeaderContentType, "image/png")
	return ctx.Status(fiber.StatusOK).Send(result.PNG)
}

func (h *SegmentHandler) Health(ctx *fiber.Ctx) error {
	status := "ok"
	if !h.segmentService.ModelLoaded() {
		status = "degraded"
	}

	return ctx.JSON(segment.HealthResponse{
		Status:      status,
		ModelLoaded: h.segmentService.ModelLoaded(),
	})
}

// parsePromptParams reads each coordinate from the form body, falling back
// to the query string. Absent or empty values stay nil.
func parsePromptParams(ctx *fiber.Ctx) (entity.PromptParams, error) {
	var params entity.PromptParams

	fields := []struct {
		name string
		dst  **int
	}{
		{"point_x", &params.PointX},
		{"point_y", &params.PointY},
		{"box_x1", &params.BoxX1},
		{"box_y1", &params.BoxY1},
		{"box_x2", &params.BoxX2},
		{"box_y2", &params.BoxY2},
	}

	for _, f := range fields {
		raw := ctx.FormValue(f.name)
		if raw == "" {
			raw = ctx.Query(f.name)
		}
		if raw == "" {
			continue
		}

		v, err := strconv.Atoi(raw)
		if err != nil {
			return params, segment.ErrInvalidCoordinate(f.name, raw)
		}
		*f.dst = &v
	}

	return params, nil
}
