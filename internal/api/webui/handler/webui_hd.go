package webuiHandler

import (
	"errors"

	"CutoutDemo/internal/api/webui"
	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/handlerUtil"
	"CutoutDemo/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *WebUIHandler) Index(ctx *fiber.Ctx) error {
	return h.renderPage(ctx, contextPkg.FromFiberCtx(ctx), fiber.StatusOK, nil)
}

func (h *WebUIHandler) Submit(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c := contextPkg.FromFiberCtx(ctx)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing cutout submission")

	file, err := ctx.FormFile("image")
	if err != nil {
		return h.renderPage(ctx, c, fiber.StatusBadRequest, &webui.Banner{Title: webui.ErrNoImage.Error()})
	}

	if err := h.utils.ValidateImageFile(file); err != nil {
		return h.renderPage(ctx, c, fiber.StatusBadRequest, &webui.Banner{Title: err.Error()})
	}

	var form webui.SubmitForm
	if err := ctx.BodyParser(&form); err != nil {
		return h.renderPage(ctx, c, fiber.StatusBadRequest, &webui.Banner{Title: "Invalid selection", Detail: err.Error()})
	}
	if err := h.validator.Struct(form); err != nil {
		return h.renderPage(ctx, c, fiber.StatusBadRequest, &webui.Banner{Title: "Invalid selection", Detail: err.Error()})
	}

	image, err := h.utils.ReadFile(file)
	if err != nil {
		return h.renderPage(ctx, c, fiber.StatusInternalServerError, &webui.Banner{Title: err.Error()})
	}

	if _, err := h.webuiService.Submit(c, image, form.PromptParams()); err != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Cutout submission failed")
		return h.renderPage(ctx, c, fiber.StatusBadGateway, bannerFor(err))
	}

	return ctx.Redirect("/", fiber.StatusSeeOther)
}

func (h *WebUIHandler) History(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log, handlerUtil.ErrorKey)

	entries, err := h.webuiService.History(contextPkg.FromFiberCtx(ctx))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_history")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, entries)
}

func (h *WebUIHandler) ClearHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log, handlerUtil.ErrorKey)

	if err := h.webuiService.ClearHistory(contextPkg.FromFiberCtx(ctx)); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "clear_history")
	}

	return ctx.Redirect("/", fiber.StatusSeeOther)
}

func (h *WebUIHandler) renderPage(ctx *fiber.Ctx, c context.Context, status int, banner *webui.Banner) error {
	data := webui.PageData{Banner: banner}

	entries, err := h.webuiService.History(c)
	if err != nil {
		h.log.WithField("error", err.Error()).Error("Failed to load history")
		if data.Banner == nil {
			data.Banner = &webui.Banner{Title: "History unavailable", Detail: err.Error()}
		}
	}

	data.History = entries
	if len(entries) > 0 {
		data.Latest = entries[0].URL
		data.LatestScore = entries[0].Score
	}

	return render(ctx, status, data)
}

func bannerFor(err error) *webui.Banner {
	var gwErr *webui.GatewayError
	if errors.As(err, &gwErr) {
		return &webui.Banner{Title: gwErr.Error(), Detail: gwErr.Body}
	}

	return &webui.Banner{Title: err.Error()}
}
