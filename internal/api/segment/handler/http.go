package segmentHandler

import (
	segmentService "CutoutDemo/internal/api/segment/service"
	"CutoutDemo/internal/middleware"
	"CutoutDemo/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SegmentHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	segmentService segmentService.ISegmentService
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ss segmentService.ISegmentService,
	utils utils.IUtils,
) *SegmentHandler {
	return &SegmentHandler{
		log:            log,
		validator:      validate,
		middleware:     middleware,
		segmentService: ss,
		utils:          utils,
	}
}

func (h *SegmentHandler) Start(srv fiber.Router) {
	srv.Post("/segment", h.middleware.NewRateLimiter, h.Segment)
	srv.Get("/health", h.Health)
}
