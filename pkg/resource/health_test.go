// pkg/resource/health_test.go
package resource

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHealthCheck_Name(t *testing.T) {
	m := NewManager(testEnvConfig())
	defer m.Shutdown(context.Background())

	check := NewHealthCheck(m)

	if check.Name() != "resource" {
		t.Errorf("Expected name 'resource', got %s", check.Name())
	}
}

func TestHealthCheck_Healthy(t *testing.T) {
	env := testEnvConfig()
	env.MaxMemoryMB = 1000
	env.MaxGoroutines = 100

	m := NewManager(env)
	defer m.Shutdown(context.Background())

	m.CheckMemoryUsage()

	check := NewHealthCheck(m)
	if err := check.Check(context.Background()); err != nil {
		t.Errorf("Expected healthy check to pass, got error: %v", err)
	}
}

func TestHealthCheck_MemoryUnhealthy(t *testing.T) {
	env := testEnvConfig()
	env.MaxMemoryMB = 1

	m := NewManager(env)
	defer m.Shutdown(context.Background())

	data := make([]byte, 2*1024*1024)
	_ = data

	m.CheckMemoryUsage()

	check := NewHealthCheck(m)
	if err := check.Check(context.Background()); err == nil {
		t.Error("Expected health check to fail due to memory limit")
	}
}

func TestHealthCheck_GoroutineUnhealthy(t *testing.T) {
	env := testEnvConfig()
	env.MaxGoroutines = 5

	m := NewManager(env)
	defer m.Shutdown(context.Background())

	ctx := context.Background()
	release := make(chan struct{})
	var wg sync.WaitGroup

	// 5 of 5 tracked goroutines is over the 80% threshold (4).
	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := m.StartGoroutine(ctx, "busy", func(ctx context.Context) {
			defer wg.Done()
			<-release
		})
		if err != nil {
			t.Fatalf("Expected no error starting goroutine %d, got: %v", i, err)
		}
	}

	check := NewHealthCheck(m)
	err := check.Check(context.Background())

	close(release)
	wg.Wait()

	if err == nil {
		t.Error("Expected health check to fail due to goroutine threshold")
	}

	time.Sleep(50 * time.Millisecond)
	if err := check.Check(context.Background()); err != nil {
		t.Errorf("Expected check to recover after goroutines finished, got: %v", err)
	}
}
