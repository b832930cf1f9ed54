// Package validation provides input validation and sanitization for network messages.
package validation

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Message size and content limits
const (
	MaxMessageSize          = 64 * 1024 // 64KB max message
	MaxPlayerNameLen        = 32
	DefaultMessagesPerSec   = 10
	DefaultMessageBurstSize = 20
)

// Regular expressions for input validation
var (
	// Allow alphanumeric, spaces, hyphens, underscores, and basic punctuation for player names
	// This prevents most special characters that could cause issues while allowing reasonable names
	validPlayerNameChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.<>()]+$`)
)

// MessageValidator provides validation for inbound client messages
type MessageValidator struct {
	rateLimiter *RateLimiter
}

// NewMessageValidator creates a new message validator with per-client rate limiting
func NewMessageValidator(messagesPerSec float64, burst int) *MessageValidator {
	return &MessageValidator{
		rateLimiter: NewRateLimiter(messagesPerSec, burst),
	}
}

// Close releases resources used by the message validator
func (v *MessageValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// ForgetClient drops the rate limiting state of a disconnected client
func (v *MessageValidator) ForgetClient(clientID string) {
	if v.rateLimiter != nil {
		v.rateLimiter.Forget(clientID)
	}
}

// ValidateMessage validates a raw message against size and format constraints
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	// Check message size
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	// Check if message is valid JSON
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}

	// Check rate limiting
	if !v.rateLimiter.Allow(clientID) {
		return fmt.Errorf("rate limit exceeded")
	}

	return nil
}

// ValidatePlayerName validates and sanitizes a player name
func ValidatePlayerName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("player name cannot be empty")
	}

	// Check length
	if len(name) > MaxPlayerNameLen {
		return "", fmt.Errorf("player name too long: %d characters (max %d)", len(name), MaxPlayerNameLen)
	}

	// Check UTF-8 validity
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("player name contains invalid UTF-8 characters")
	}

	// Trim whitespace
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("player name cannot be only whitespace")
	}

	// Check for control characters first
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("player name contains control characters")
		}
	}

	// Check for allowed character set
	if !validPlayerNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("player name contains invalid characters (only alphanumeric, spaces, hyphens, underscores, and basic punctuation allowed)")
	}

	// Escape HTML to prevent XSS
	sanitized := html.EscapeString(trimmed)

	return sanitized, nil
}
