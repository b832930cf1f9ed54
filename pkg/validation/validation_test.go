package validation

import (
	"strings"
	"testing"
	"time"
)

func TestValidatePlayerName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid simple name",
			input:   "Player1",
			want:    "Player1",
			wantErr: false,
		},
		{
			name:    "valid name with spaces",
			input:   "Player One",
			want:    "Player One",
			wantErr: false,
		},
		{
			name:    "valid name with hyphen",
			input:   "Player-One",
			want:    "Player-One",
			wantErr: false,
		},
		{
			name:    "valid name with underscore",
			input:   "Player_One",
			want:    "Player_One",
			wantErr: false,
		},
		{
			name:    "name with leading/trailing spaces",
			input:   "  Player1  ",
			want:    "Player1",
			wantErr: false,
		},
		{
			name:        "empty name",
			input:       "",
			want:        "",
			wantErr:     true,
			errContains: "cannot be empty",
		},
		{
			name:        "only whitespace",
			input:       "   ",
			want:        "",
			wantErr:     true,
			errContains: "cannot be only whitespace",
		},
		{
			name:        "too long name",
			input:       strings.Repeat("a", MaxPlayerNameLen+1),
			want:        "",
			wantErr:     true,
			errContains: "too long",
		},
		{
			name:        "name with special characters",
			input:       "Player@#$",
			want:        "",
			wantErr:     true,
			errContains: "invalid characters",
		},
		{
			name:        "name with control character",
			input:       "Player\x00One",
			want:        "",
			wantErr:     true,
			errContains: "control characters",
		},
		{
			name:    "HTML entities should be escaped",
			input:   "Player<script>",
			want:    "Player&lt;script&gt;",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePlayerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePlayerName() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidatePlayerName() error = %v, should contain %q", err, tt.errContains)
			}
			if got != tt.want {
				t.Errorf("ValidatePlayerName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageValidator_ValidateMessage(t *testing.T) {
	validator := NewMessageValidator(DefaultMessagesPerSec, DefaultMessageBurstSize)
	defer validator.Close()

	tests := []struct {
		name        string
		data        []byte
		clientID    string
		wantErr     bool
		errContains string
	}{
		{
			name:     "valid JSON message",
			data:     []byte(`{"type":"test","data":"value"}`),
			clientID: "client1",
			wantErr:  false,
		},
		{
			name:        "too large message",
			data:        make([]byte, MaxMessageSize+1),
			clientID:    "client1",
			wantErr:     true,
			errContains: "too large",
		},
		{
			name:        "invalid JSON",
			data:        []byte(`{"invalid": json`),
			clientID:    "client1",
			wantErr:     true,
			errContains: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateMessage(tt.data, tt.clientID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidateMessage() error = %v, should contain %q", err, tt.errContains)
			}
		})
	}
}

func TestMessageValidator_RateLimitExceeded(t *testing.T) {
	// Refill is effectively zero within the test, so only the burst passes.
	validator := NewMessageValidator(0.001, 3)
	defer validator.Close()

	data := []byte(`{"type":"test"}`)
	for i := 0; i < 3; i++ {
		if err := validator.ValidateMessage(data, "client1"); err != nil {
			t.Errorf("Message %d should be allowed, got %v", i+1, err)
		}
	}

	err := validator.ValidateMessage(data, "client1")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("Expected rate limit error, got %v", err)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(0.001, 5) // burst of 5, negligible refill
	defer rl.Close()

	clientID := "test-client"

	// Should allow first 5 requests
	for i := 0; i < 5; i++ {
		if !rl.Allow(clientID) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be denied
	if rl.Allow(clientID) {
		t.Error("6th request should be denied")
	}

	// Different client should still be allowed
	if !rl.Allow("other-client") {
		t.Error("Different client should be allowed")
	}
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	rl := NewRateLimiter(20, 2) // refills a token every 50ms
	defer rl.Close()

	clientID := "test-client"

	// Consume the burst
	rl.Allow(clientID)
	rl.Allow(clientID)

	// Should be denied
	if rl.Allow(clientID) {
		t.Error("Request should be denied after consuming all tokens")
	}

	// Wait for refill
	time.Sleep(150 * time.Millisecond)

	// Should be allowed again after refill
	if !rl.Allow(clientID) {
		t.Error("Request should be allowed after token refill")
	}
}

func TestRateLimiter_Forget(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()

	clientID := "test-client"
	rl.Allow(clientID)
	if rl.Allow(clientID) {
		t.Error("Second request should be denied")
	}

	// Forgetting the client resets its bucket.
	rl.Forget(clientID)
	if !rl.Allow(clientID) {
		t.Error("Request should be allowed after the client was forgotten")
	}
}
