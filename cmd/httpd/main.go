package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalwatch/propagraph/internal/api"
	"github.com/signalwatch/propagraph/internal/bootstrap"
	"github.com/signalwatch/propagraph/internal/config"
	"github.com/signalwatch/propagraph/internal/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	app, err := bootstrap.New(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	logger := app.Logger
	logger.Info("Starting propagraph HTTP server",
		logging.Int("port", app.Config.Server.Port),
		logging.String("pipeline_version", app.Config.Pipeline.Version),
	)

	server := api.NewServer(app.Handler(), api.ServerConfig{
		Port:  app.Config.Server.Port,
		Debug: app.Config.Logging.Development,
	}, app.Telemetry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The poller keeps analyzing newly ingested content in the background
	app.Poller.Start(ctx)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", logging.Error(err))
		app.Poller.Stop()
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", logging.String("signal", sig.String()))

		app.Poller.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", logging.Error(err))
			os.Exit(1)
		}

		logger.Info("Server stopped gracefully")
	}
}
