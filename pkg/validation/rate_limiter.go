package validation

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket per client. Buckets for clients that
// have gone quiet are dropped periodically to keep the map bounded.
type RateLimiter struct {
	perSecond rate.Limit
	burst     int

	mu      sync.Mutex
	clients map[string]*clientLimiter

	cleanupTick *time.Ticker
	done        chan struct{}
}

// clientLimiter tracks rate limiting state for a single client
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing perSecond sustained requests
// per client with the given burst capacity.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		clients:   make(map[string]*clientLimiter),
		done:      make(chan struct{}),
	}

	// Cleanup goroutine removes inactive clients.
	rl.cleanupTick = time.NewTicker(time.Minute)
	go rl.cleanup()

	return rl
}

// Allow reports whether a request from the given client should be admitted.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	client, ok := rl.clients[clientID]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.clients[clientID] = client
	}
	client.lastSeen = time.Now()
	rl.mu.Unlock()

	return client.limiter.Allow()
}

// Forget drops the bucket for a disconnected client.
func (rl *RateLimiter) Forget(clientID string) {
	rl.mu.Lock()
	delete(rl.clients, clientID)
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.removeInactiveClients()
		case <-rl.done:
			return
		}
	}
}

// removeInactiveClients removes clients that have been idle for two minutes.
func (rl *RateLimiter) removeInactiveClients() {
	cutoff := time.Now().Add(-2 * time.Minute)

	rl.mu.Lock()
	for clientID, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, clientID)
		}
	}
	rl.mu.Unlock()
}

// Close stops the rate limiter and cleans up resources
func (rl *RateLimiter) Close() {
	close(rl.done)
	rl.cleanupTick.Stop()
}
