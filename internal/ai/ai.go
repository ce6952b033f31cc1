// Package ai wraps the external text-completion services used to classify
// complaints. A nil Completer is a valid, first-class "no client" state.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer sends one prompt to a completion service and returns the raw text
// of the answer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrTimeout       = errors.New("request timed out")
	ErrUnavailable   = errors.New("service unavailable")
	ErrRejected      = errors.New("request rejected")
	ErrEmptyResponse = errors.New("empty response")
)

// Error carries the provider, the HTTP status when known, and one of the
// sentinel kinds above. errors.Is matches both the kind and the cause.
type Error struct {
	Provider   string
	Kind       error
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(provider string, kind error, status int, cause error) *Error {
	return &Error{Provider: provider, Kind: kind, StatusCode: status, Err: cause}
}

// Classify returns a short log category for an error returned by a Completer.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	default:
		return "error"
	}
}

// kindForStatus maps an HTTP status (and an optional provider error code) to
// an error kind.
func kindForStatus(status int, code string) error {
	code = strings.ToLower(code)
	if status == http.StatusTooManyRequests || strings.Contains(code, "quota") || strings.Contains(code, "rate_limit") {
		return ErrRateLimited
	}
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status >= 500:
		return ErrUnavailable
	case status >= 400:
		return ErrRejected
	}
	return ErrUnavailable
}

// kindForTransport classifies errors that never produced an HTTP status.
func kindForTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnavailable
}

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

var placeholderKeys = map[string]bool{
	"changeme":    true,
	"placeholder": true,
	"none":        true,
	"todo":        true,
	"xxx":         true,
	"sk-xxx":      true,
	"sk-...":      true,
}

// IsPlaceholderKey reports whether key is empty or one of the template values
// people leave in .env files.
func IsPlaceholderKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" || placeholderKeys[k] {
		return true
	}
	return strings.HasPrefix(k, "<") || strings.HasPrefix(k, "your-") || strings.HasPrefix(k, "your_") || strings.Contains(k, "api-key-here")
}

// NewCompleter builds the configured client. It returns (nil, nil) when no
// provider is configured or the credential is missing or a placeholder.
func NewCompleter(ctx context.Context, cfg Config) (Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", "none", "disabled":
		return nil, nil
	case "mock":
		return MockCompleter{ModelVersion: "mock-v1"}, nil
	case "http":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, nil
		}
		return NewHTTPCompleter(cfg), nil
	}

	if IsPlaceholderKey(cfg.APIKey) {
		return nil, nil
	}

	switch provider {
	case "openai":
		return NewOpenAICompleter(cfg), nil
	case "anthropic", "claude":
		return NewAnthropicCompleter(cfg), nil
	case "gemini", "google":
		g, err := NewGeminiCompleter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s (supported: openai, anthropic, gemini, http, mock)", cfg.Provider)
	}
}
