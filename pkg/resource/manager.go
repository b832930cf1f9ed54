// pkg/resource/manager.go
package resource

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-armada/pkg/config"
	"github.com/opd-ai/go-armada/pkg/logging"
)

// Manager tracks memory and goroutine usage for the server process,
// enforcing configured limits and coordinating graceful shutdown of
// the goroutines it started.
type Manager struct {
	maxMemoryMB     int64
	maxGoroutines   int64
	shutdownTimeout time.Duration
	checkInterval   time.Duration

	// Atomic counters for thread-safe access
	goroutineCount int64
	memoryUsageMB  int64

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.RWMutex
	running bool
	logger  *logging.Logger

	lastMemoryCheck    time.Time
	lastGoroutineCheck time.Time
}

// NewManager creates a resource manager from the deployment configuration.
func NewManager(env *config.EnvironmentConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		maxMemoryMB:        env.MaxMemoryMB,
		maxGoroutines:      int64(env.MaxGoroutines),
		shutdownTimeout:    env.ShutdownTimeout,
		checkInterval:      env.ResourceCheckInterval,
		ctx:                ctx,
		cancel:             cancel,
		done:               make(chan struct{}),
		logger:             logging.NewLogger(),
		lastMemoryCheck:    time.Now(),
		lastGoroutineCheck: time.Now(),
	}
}

// Start begins the periodic resource monitoring loop.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	m.running = true
	m.mu.Unlock()

	go m.monitoringLoop()

	m.logger.Info(m.ctx, "Resource manager started",
		"max_memory_mb", m.maxMemoryMB,
		"max_goroutines", m.maxGoroutines,
		"check_interval", m.checkInterval,
	)

	return nil
}

// StartGoroutine runs fn in a tracked goroutine with panic recovery.
// It fails when the goroutine limit would be exceeded.
func (m *Manager) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	current := atomic.LoadInt64(&m.goroutineCount)
	if current >= m.maxGoroutines {
		m.logger.Warn(ctx, "Goroutine limit exceeded",
			"current", current,
			"limit", m.maxGoroutines,
			"name", name,
		)
		return fmt.Errorf("goroutine limit exceeded: %d/%d", current, m.maxGoroutines)
	}

	atomic.AddInt64(&m.goroutineCount, 1)

	go func() {
		defer atomic.AddInt64(&m.goroutineCount, -1)

		defer func() {
			if r := recover(); r != nil {
				m.logger.Error(ctx, "Goroutine panic",
					fmt.Errorf("panic: %v", r),
					"name", name,
				)
			}
		}()

		fn(ctx)
	}()

	return nil
}

// CheckMemoryUsage samples current heap usage and compares it against
// the configured limit.
func (m *Manager) CheckMemoryUsage() error {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	currentMB := int64(stats.Alloc / 1024 / 1024)
	atomic.StoreInt64(&m.memoryUsageMB, currentMB)
	m.lastMemoryCheck = time.Now()

	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}

	return nil
}

// GetGoroutineCount returns the current number of tracked goroutines.
func (m *Manager) GetGoroutineCount() int64 {
	return atomic.LoadInt64(&m.goroutineCount)
}

// GetMemoryUsage returns the most recently sampled memory usage in MB.
func (m *Manager) GetMemoryUsage() int64 {
	return atomic.LoadInt64(&m.memoryUsageMB)
}

// GetStats returns current resource usage statistics.
func (m *Manager) GetStats() Stats {
	return Stats{
		GoroutineCount:     m.GetGoroutineCount(),
		MaxGoroutines:      m.maxGoroutines,
		MemoryUsageMB:      m.GetMemoryUsage(),
		MaxMemoryMB:        m.maxMemoryMB,
		LastMemoryCheck:    m.lastMemoryCheck,
		LastGoroutineCheck: m.lastGoroutineCheck,
	}
}

// Stats contains resource usage statistics.
type Stats struct {
	GoroutineCount     int64     `json:"goroutine_count"`
	MaxGoroutines      int64     `json:"max_goroutines"`
	MemoryUsageMB      int64     `json:"memory_usage_mb"`
	MaxMemoryMB        int64     `json:"max_memory_mb"`
	LastMemoryCheck    time.Time `json:"last_memory_check"`
	LastGoroutineCheck time.Time `json:"last_goroutine_check"`
}

// Shutdown stops the monitoring loop and waits for tracked goroutines
// to finish, bounded by the configured shutdown timeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info(ctx, "Shutting down resource manager")

	m.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
	defer cancel()

	select {
	case <-m.done:
	case <-shutdownCtx.Done():
		m.logger.Warn(ctx, "Resource manager monitoring loop did not stop gracefully")
	}

	return m.waitForGoroutines(shutdownCtx)
}

func (m *Manager) waitForGoroutines(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		count := m.GetGoroutineCount()
		if count == 0 {
			m.logger.Info(ctx, "All tracked goroutines finished")
			return nil
		}

		select {
		case <-ticker.C:
			m.logger.Debug(ctx, "Waiting for goroutines to finish",
				"remaining", count,
			)
		case <-ctx.Done():
			remaining := m.GetGoroutineCount()
			m.logger.Warn(ctx, "Shutdown timeout exceeded with goroutines still running",
				"remaining", remaining,
			)
			return fmt.Errorf("shutdown timeout: %d goroutines still running", remaining)
		}
	}
}

func (m *Manager) monitoringLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.performChecks()
		case <-m.ctx.Done():
			m.logger.Info(m.ctx, "Resource monitoring loop stopping")
			return
		}
	}
}

func (m *Manager) performChecks() {
	if err := m.CheckMemoryUsage(); err != nil {
		m.logger.Error(m.ctx, "Memory limit exceeded", err,
			"current_mb", m.GetMemoryUsage(),
			"limit_mb", m.maxMemoryMB,
		)
	}

	m.lastGoroutineCheck = time.Now()

	m.logger.Debug(m.ctx, "Resource usage check",
		"goroutines", m.GetGoroutineCount(),
		"max_goroutines", m.maxGoroutines,
		"memory_mb", m.GetMemoryUsage(),
		"max_memory_mb", m.maxMemoryMB,
	)
}
