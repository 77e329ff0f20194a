package webuiHandler

import (
	webuiService "CutoutDemo/internal/api/webui/service"
	"CutoutDemo/internal/middleware"
	"CutoutDemo/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type WebUIHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	webuiService webuiService.IWebUIService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ws webuiService.IWebUIService,
	utils utils.IUtils,
) *WebUIHandler {
	return &WebUIHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		webuiService: ws,
		utils:        utils,
	}
}

func (h *WebUIHandler) Start(srv fiber.Router) {
	srv.Get("/", h.Index)
	srv.Post("/segment", h.middleware.NewRateLimiter, h.Submit)

	srv.Get("/history", h.History)
	srv.Post("/history/clear", h.ClearHistory)
}
