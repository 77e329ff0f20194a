package gatewayHandler

import (
	gatewayService "CutoutDemo/internal/api/gateway/service"
	"CutoutDemo/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type GatewayHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	gatewayService gatewayService.IGatewayService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	gs gatewayService.IGatewayService,
) *GatewayHandler {
	return &GatewayHandler{
		log:            log,
		validator:      validate,
		middleware:     middleware,
		gatewayService: gs,
	}
}

func (h *GatewayHandler) Start(srv fiber.Router) {
	srv.Post("/segment", h.middleware.NewRateLimiter, h.Segment)
}
