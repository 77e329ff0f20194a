package config

import (
	"fmt"
	"time"

	gatewayHandler "CutoutDemo/internal/api/gateway/handler"
	gatewayService "CutoutDemo/internal/api/gateway/service"
	segmentHandler "CutoutDemo/internal/api/segment/handler"
	segmentService "CutoutDemo/internal/api/segment/service"
	"CutoutDemo/internal/api/webui"
	webuiHandler "CutoutDemo/internal/api/webui/handler"
	webuiRepository "CutoutDemo/internal/api/webui/repository"
	webuiService "CutoutDemo/internal/api/webui/service"
	"CutoutDemo/internal/middleware"
	"CutoutDemo/pkg/httpclient"
	"CutoutDemo/pkg/predictor"
	"CutoutDemo/pkg/redis"
	"CutoutDemo/pkg/s3"
	"CutoutDemo/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	log         *logrus.Logger
	cfg         *Config
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	predictor   predictor.Predictor
	s3Client    s3.ItfS3
	redisServer redis.IRedis
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, server.cfg.RateLimit)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.cfg.RateLimit)
		return nil
	}
}

func WithUtils(maxFileSize int64) ServerOption {
	return func(s *Server) error {
		s.utils = utils.NewWithLimit(maxFileSize)
		return nil
	}
}

// WithPredictor accepts a nil predictor; the inference handler then runs in
// degraded mode.
func WithPredictor(p predictor.Predictor) ServerOption {
	return func(s *Server) error {
		s.predictor = p
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before S3 client")
		}
		client, err := s3.New(s.cfg.S3)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

// RegisterInferenceHandler mounts POST /segment backed by the model.
func (s *Server) RegisterInferenceHandler() {
	segmentServices := segmentService.New(s.log, s.predictor, s.s3Client, segmentService.Config{
		Output:       s.cfg.Segment.Output,
		ObjectPrefix: s.cfg.Segment.ObjectPrefix,
	})
	segmentHandlers := segmentHandler.New(s.log, s.validator, s.middleware, segmentServices, s.utils)

	s.handlers = append(s.handlers, segmentHandlers)
}

// RegisterGatewayHandler mounts the proxy in front of the inference server.
func (s *Server) RegisterGatewayHandler() {
	client := httpclient.NewHTTPClient(httpclient.WithTimeout(s.cfg.Gateway.Timeout))
	gatewayServices := gatewayService.New(s.log, client, s.utils, s.cfg.Gateway.InferenceServerURL)
	gatewayHandlers := gatewayHandler.New(s.log, s.validator, s.middleware, gatewayServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, gatewayHandlers)
}

// RegisterClientHandler mounts the browser UI and its history store.
func (s *Server) RegisterClientHandler() error {
	var repo webuiRepository.Repository
	switch s.cfg.Client.HistoryBackend {
	case HistoryRedis:
		if s.redisServer == nil {
			return fmt.Errorf("redis history backend requires a redis server")
		}
		repo = webuiRepository.NewRedisRepository(s.redisServer, s.cfg.Client.HistoryRedisKey, s.log)
	default:
		repo = webuiRepository.NewFileRepository(s.cfg.Client.HistoryFile, s.log)
	}

	// The per-request timeout is applied by the service.
	client := httpclient.NewHTTPClient(httpclient.WithTimeout(0))
	results := webuiRepository.NewFileResultStore(s.cfg.Client.ResultsDir, webui.ResultsRoute, s.log)
	webuiServices := webuiService.New(s.log, client, repo, results, s.utils, webuiService.Config{
		GatewayURL: s.cfg.Client.GatewayURL,
		Timeout:    s.cfg.Client.Timeout,
	})
	webuiHandlers := webuiHandler.New(s.log, s.validator, s.middleware, webuiServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, staticHandler{prefix: webui.ResultsRoute, root: s.cfg.Client.ResultsDir})
	s.handlers = append(s.handlers, webuiHandlers)
	return nil
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	for _, h := range s.handlers {
		h.Start(s.engine)
	}

	return s.engine.Listen(fmt.Sprintf(":%s", s.cfg.Port))
}

func (s *Server) Shutdown(timeout time.Duration) error {
	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			s.log.Warnf("Error closing redis client: %v", err)
		}
	}
	return s.engine.ShutdownWithTimeout(timeout)
}

func (s *Server) setupHealthCheck() {
	s.handlers = append(s.handlers, healthHandler{})
}

// staticHandler serves cutouts the client stored from raw gateway replies.
type staticHandler struct {
	prefix string
	root   string
}

func (h staticHandler) Start(srv fiber.Router) {
	srv.Static(h.prefix, h.root)
}

type healthHandler struct{}

func (healthHandler) Start(srv fiber.Router) {
	srv.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
