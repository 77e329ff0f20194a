package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CutoutDemo/internal/api/segment"
	"CutoutDemo/internal/config"
	"CutoutDemo/pkg/log"
	"CutoutDemo/pkg/predictor"
)

func main() {
	cfg, cfgErr := config.Load(config.ComponentServer)
	logger := log.NewLogger(string(config.ComponentServer))
	if cfgErr != nil {
		logger.Fatalf("Error loading configuration: %v", cfgErr)
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	model, err := predictor.Load(loadCtx, cfg.Model)
	cancel()
	if err != nil {
		log.Error(log.Fields{
			"backend":    cfg.Model.Backend,
			"checkpoint": cfg.Model.CheckpointPath,
			"error":      err.Error(),
		}, "Error loading model, serving in degraded mode")
	} else {
		log.Info(log.Fields{"backend": cfg.Model.Backend}, "Model loaded")
	}

	options := []config.ServerOption{
		config.WithFiber(config.NewFiber(logger, "cutout-inference")),
		config.WithLogger(logger),
		config.WithConfig(cfg),
		config.WithValidator(config.NewValidator()),
		config.WithMiddleware(),
		config.WithUtils(cfg.Segment.MaxUploadSize),
		config.WithPredictor(model),
	}
	if cfg.Segment.Output == segment.OutputS3 {
		options = append(options, config.WithS3Client())
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterInferenceHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Infof("Inference server listening on :%s", cfg.Port)

	<-sigChan
	logger.Info("Shutting down server...")
	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
