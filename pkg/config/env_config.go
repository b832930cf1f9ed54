// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvironmentConfig holds deployment settings read from ARMADA_* environment
// variables. Game balancing stays in GameConfig; this covers the knobs an
// operator tunes per deployment.
type EnvironmentConfig struct {
	ServerAddr   string
	ServerPort   int
	MaxClients   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	BoardSize        int
	TurnActionPoints int

	// Circuit Breaker Configuration
	CircuitBreakerMaxRequests         uint32
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails uint32

	// Rate Limiter Configuration
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Resource Management Configuration
	MaxMemoryMB           int64
	MaxGoroutines         int
	ShutdownTimeout       time.Duration
	ResourceCheckInterval time.Duration
}

// LoadConfigFromEnv builds an EnvironmentConfig from environment variables,
// falling back to defaults for anything unset.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	config := &EnvironmentConfig{
		ServerAddr:   getEnvOrDefault("ARMADA_SERVER_ADDR", "localhost"),
		ServerPort:   getEnvAsIntOrDefault("ARMADA_SERVER_PORT", 4566),
		MaxClients:   getEnvAsIntOrDefault("ARMADA_MAX_CLIENTS", 32),
		ReadTimeout:  getEnvAsDurationOrDefault("ARMADA_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvAsDurationOrDefault("ARMADA_WRITE_TIMEOUT", 30*time.Second),

		BoardSize:        getEnvAsIntOrDefault("ARMADA_BOARD_SIZE", 128),
		TurnActionPoints: getEnvAsIntOrDefault("ARMADA_TURN_ACTION_POINTS", 40),

		CircuitBreakerMaxRequests:         uint32(getEnvAsIntOrDefault("ARMADA_CB_MAX_REQUESTS", 3)),
		CircuitBreakerInterval:            getEnvAsDurationOrDefault("ARMADA_CB_INTERVAL", 60*time.Second),
		CircuitBreakerTimeout:             getEnvAsDurationOrDefault("ARMADA_CB_TIMEOUT", 30*time.Second),
		CircuitBreakerMaxConsecutiveFails: uint32(getEnvAsIntOrDefault("ARMADA_CB_MAX_CONSECUTIVE_FAILS", 5)),

		RateLimitPerSecond: getEnvAsFloatOrDefault("ARMADA_RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsIntOrDefault("ARMADA_RATE_LIMIT_BURST", 20),

		MaxMemoryMB:           int64(getEnvAsIntOrDefault("ARMADA_MAX_MEMORY_MB", 500)),
		MaxGoroutines:         getEnvAsIntOrDefault("ARMADA_MAX_GOROUTINES", 100),
		ShutdownTimeout:       getEnvAsDurationOrDefault("ARMADA_SHUTDOWN_TIMEOUT", 30*time.Second),
		ResourceCheckInterval: getEnvAsDurationOrDefault("ARMADA_RESOURCE_CHECK_INTERVAL", 10*time.Second),
	}

	if err := ValidateEnvironmentConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateEnvironmentConfig checks an EnvironmentConfig for values the
// server cannot start with.
func ValidateEnvironmentConfig(config *EnvironmentConfig) error {
	if config.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if config.ServerPort < 1 || config.ServerPort > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", config.ServerPort)
	}
	if config.MaxClients < 1 {
		return fmt.Errorf("max clients must be positive, got %d", config.MaxClients)
	}
	if config.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", config.ReadTimeout)
	}
	if config.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", config.WriteTimeout)
	}
	if config.BoardSize < 2 {
		return fmt.Errorf("board size must be at least 2, got %d", config.BoardSize)
	}
	if config.TurnActionPoints < 1 {
		return fmt.Errorf("turn action points must be positive, got %d", config.TurnActionPoints)
	}
	if config.RateLimitPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive, got %f", config.RateLimitPerSecond)
	}
	if config.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be positive, got %d", config.RateLimitBurst)
	}
	if config.MaxMemoryMB < 1 {
		return fmt.Errorf("max memory must be positive, got %d", config.MaxMemoryMB)
	}
	if config.MaxGoroutines < 1 {
		return fmt.Errorf("max goroutines must be positive, got %d", config.MaxGoroutines)
	}
	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", config.ShutdownTimeout)
	}
	if config.ResourceCheckInterval <= 0 {
		return fmt.Errorf("resource check interval must be positive, got %v", config.ResourceCheckInterval)
	}
	return nil
}

// ApplyEnvironmentOverrides copies environment-provided values onto a game
// configuration loaded from file or defaults.
func ApplyEnvironmentOverrides(game *GameConfig, env *EnvironmentConfig) {
	game.BoardSize = env.BoardSize
	game.TurnActionPoints = env.TurnActionPoints
	game.Network.ServerPort = env.ServerPort
	game.Network.ServerAddress = fmt.Sprintf("%s:%d", env.ServerAddr, env.ServerPort)
	game.Network.MaxClients = env.MaxClients
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
