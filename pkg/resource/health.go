// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// HealthCheck reports unhealthy when the manager's tracked resources
// approach or exceed their configured limits.
type HealthCheck struct {
	manager *Manager
}

// NewHealthCheck creates a health check backed by a resource manager.
func NewHealthCheck(manager *Manager) *HealthCheck {
	return &HealthCheck{manager: manager}
}

// Name returns the name of this health check.
func (h *HealthCheck) Name() string {
	return "resource"
}

// Check verifies that resource usage is within acceptable limits.
// Goroutine usage fails the check at 80% of the limit so the server
// degrades visibly before refusing new work.
func (h *HealthCheck) Check(ctx context.Context) error {
	stats := h.manager.GetStats()

	if stats.MemoryUsageMB > stats.MaxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB",
			stats.MemoryUsageMB, stats.MaxMemoryMB)
	}

	goroutineThreshold := int64(float64(stats.MaxGoroutines) * 0.8)
	if stats.GoroutineCount > goroutineThreshold {
		return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
			stats.GoroutineCount, goroutineThreshold, stats.MaxGoroutines)
	}

	return nil
}
