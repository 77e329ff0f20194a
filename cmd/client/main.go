package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"CutoutDemo/internal/config"
	"CutoutDemo/pkg/log"
	"CutoutDemo/pkg/redis"
)

func main() {
	cfg, cfgErr := config.Load(config.ComponentClient)
	logger := log.NewLogger(string(config.ComponentClient))
	if cfgErr != nil {
		logger.Fatalf("Error loading configuration: %v", cfgErr)
	}

	options := []config.ServerOption{
		config.WithFiber(config.NewFiber(logger, "cutout-client")),
		config.WithLogger(logger),
		config.WithConfig(cfg),
		config.WithValidator(config.NewValidator()),
		config.WithMiddleware(),
		config.WithUtils(cfg.Client.MaxUploadSize),
	}
	if cfg.Client.HistoryBackend == config.HistoryRedis {
		options = append(options, config.WithRedisServer(redis.New(cfg.Redis, logger)))
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	if err := server.RegisterClientHandler(); err != nil {
		logger.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Infof("Client UI listening on :%s, gateway at %s", cfg.Port, cfg.Client.GatewayURL)

	<-sigChan
	logger.Info("Shutting down server...")
	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
