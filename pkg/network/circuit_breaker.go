// pkg/network/circuit_breaker.go
package network

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-armada/pkg/config"
	"github.com/opd-ai/go-armada/pkg/logging"
)

// NetworkService wraps network operations with a circuit breaker. It provides
// retry logic with exponential backoff and isolates failing operations so a
// flaky link does not cascade through the client.
type NetworkService struct {
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	config  *config.EnvironmentConfig
}

// NetworkOperation represents a function that performs a network operation.
// It should return an error if the operation fails.
type NetworkOperation func() error

// NewNetworkService creates a NetworkService with the circuit breaker
// configured from environment settings.
func NewNetworkService(envConfig *config.EnvironmentConfig) *NetworkService {
	logger := logging.NewLogger()

	settings := gobreaker.Settings{
		Name:        "armada-network",
		MaxRequests: envConfig.CircuitBreakerMaxRequests,
		Interval:    envConfig.CircuitBreakerInterval,
		Timeout:     envConfig.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= envConfig.CircuitBreakerMaxConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from,
				"to", to,
			)
		},
	}

	return &NetworkService{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		config:  envConfig,
	}
}

// Execute runs a network operation through the circuit breaker. If the
// circuit is open the operation is rejected immediately.
func (ns *NetworkService) Execute(ctx context.Context, operation NetworkOperation) error {
	_, err := ns.breaker.Execute(func() (interface{}, error) {
		return nil, operation()
	})
	if err != nil {
		ns.logger.LogWithContext(ctx, slog.LevelError, "circuit breaker execution failed",
			"error", err,
			"state", ns.breaker.State(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}

	return nil
}

// ExecuteWithRetry runs a network operation with retries and exponential
// backoff. The circuit breaker state is checked before each retry; an open
// circuit ends the attempts early.
func (ns *NetworkService) ExecuteWithRetry(ctx context.Context, operation NetworkOperation) error {
	maxRetries := 3
	baseDelay := 1 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := ns.Execute(ctx, operation)
		if err == nil {
			return nil
		}

		if ns.breaker.State() == gobreaker.StateOpen {
			ns.logger.LogWithContext(ctx, slog.LevelWarn, "circuit breaker is open, skipping retries",
				"attempt", attempt+1,
				"max_retries", maxRetries,
			)
			return err
		}

		if attempt == maxRetries-1 {
			ns.logger.LogWithContext(ctx, slog.LevelError, "all retry attempts failed",
				"attempts", maxRetries,
				"final_error", err,
			)
			return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, err)
		}

		delay := time.Duration(attempt+1) * baseDelay
		ns.logger.LogWithContext(ctx, slog.LevelWarn, "operation failed, retrying",
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("unexpected exit from retry loop")
}

// GetState returns the current state of the circuit breaker.
func (ns *NetworkService) GetState() gobreaker.State {
	return ns.breaker.State()
}

// GetCounts returns the current failure/success counts of the circuit breaker.
func (ns *NetworkService) GetCounts() gobreaker.Counts {
	return ns.breaker.Counts()
}
