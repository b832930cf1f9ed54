// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/opd-ai/go-armada/pkg/config"
	"github.com/opd-ai/go-armada/pkg/engine"
	"github.com/opd-ai/go-armada/pkg/health"
	"github.com/opd-ai/go-armada/pkg/logging"
	"github.com/opd-ai/go-armada/pkg/network"
	"github.com/opd-ai/go-armada/pkg/resource"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	flag.Parse()

	// Create default configuration file if requested
	if *createDefault {
		defaultConfig := config.DefaultConfig()
		if err := config.SaveConfig(defaultConfig, *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	// Load game configuration
	var gameConfig *config.GameConfig

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", *configPath,
		)
		gameConfig = config.DefaultConfig()
	} else {
		gameConfig, err = config.LoadConfig(*configPath)
		if err != nil {
			logger.Error(ctx, "Failed to load configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
	}

	// Load deployment settings and apply overrides to the game config
	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		logger.Error(ctx, "Failed to load environment configuration", err)
		os.Exit(1)
	}
	config.ApplyEnvironmentOverrides(gameConfig, envConfig)

	// Create the match and the server hosting it
	game := engine.NewGame(gameConfig)
	server := network.NewGameServer(game, envConfig)

	// Start resource monitoring
	resources := resource.NewManager(envConfig)
	if err := resources.Start(); err != nil {
		logger.Error(ctx, "Failed to start resource manager", err)
		os.Exit(1)
	}

	// Setup health checks
	healthChecker := health.NewHealthChecker()

	healthChecker.AddCheck(health.NewMatchHealthCheck(
		func() string { return game.Phase().String() },
	))

	healthChecker.AddCheck(health.NewNetworkHealthCheck(
		server.ListenerAddress,
	))

	healthChecker.AddCheck(resource.NewHealthCheck(resources))

	// Start health check HTTP server
	healthPort := "8080" // Default health check port
	if envPort := os.Getenv("ARMADA_HEALTH_PORT"); envPort != "" {
		if _, err := strconv.Atoi(envPort); err == nil {
			healthPort = envPort
		}
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", healthChecker.LivenessHandler)
	healthMux.HandleFunc("/ready", healthChecker.ReadinessHandler)

	healthServer := &http.Server{
		Addr:         ":" + healthPort,
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	err = resources.StartGoroutine(ctx, "health-server", func(ctx context.Context) {
		logger.Info(ctx, "Starting health check server",
			"port", healthPort,
		)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	})
	if err != nil {
		logger.Error(ctx, "Failed to start health check server", err)
		os.Exit(1)
	}

	// Start server
	logger.Info(ctx, "Starting server",
		"address", envConfig.ServerAddr,
		"port", envConfig.ServerPort,
		"max_clients", envConfig.MaxClients,
	)
	if err := server.Start(ctx); err != nil {
		logger.Error(ctx, "Failed to start server", err)
		os.Exit(1)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Health check server shutdown failed", err)
	}

	server.Stop()

	if err := resources.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Resource manager shutdown failed", err)
	}
}
