package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"CutoutDemo/internal/config"
	"CutoutDemo/pkg/log"
)

func main() {
	cfg, cfgErr := config.Load(config.ComponentGateway)
	logger := log.NewLogger(string(config.ComponentGateway))
	if cfgErr != nil {
		logger.Fatalf("Error loading configuration: %v", cfgErr)
	}

	server, err := config.NewServer(
		config.WithFiber(config.NewFiber(logger, "cutout-gateway")),
		config.WithLogger(logger),
		config.WithConfig(cfg),
		config.WithValidator(config.NewValidator()),
		config.WithMiddleware(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterGatewayHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Infof("Gateway listening on :%s, forwarding to %s", cfg.Port, cfg.Gateway.InferenceServerURL)

	<-sigChan
	logger.Info("Shutting down server...")
	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
