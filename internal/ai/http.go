package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPCompleter calls an in-house classification gateway:
// POST {BaseURL}/complete -> {"text": "..."}.
type HTTPCompleter struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type completeRequest struct {
	Model       string  `json:"model,omitempty"`
	System      string  `json:"system"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completeResponse struct {
	Text string `json:"text"`
}

// RateLimitError is returned by the gateway on 429; RetryAfter is informational
// only, calls are never retried.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

func NewHTTPCompleter(cfg Config) *HTTPCompleter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPCompleter{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPCompleter) Name() string {
	if h.Model == "" {
		return "http"
	}
	return "http/" + h.Model
}

func (h *HTTPCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	b, _ := json.Marshal(completeRequest{
		Model:       h.Model,
		System:      req.System,
		Prompt:      req.User,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/complete", bytes.NewReader(b))
	if err != nil {
		return "", newError("http", ErrRejected, 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(h.APIKey) != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", newError("http", kindForTransport(err), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", newError("http", ErrRateLimited, resp.StatusCode, RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		code := ""
		if e, ok := errBody["error"].(map[string]any); ok {
			code, _ = e["code"].(string)
		}
		return "", newError("http", kindForStatus(resp.StatusCode, code), resp.StatusCode, fmt.Errorf("gateway error: %s: %v", resp.Status, errBody))
	}

	var out completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", newError("http", ErrEmptyResponse, resp.StatusCode, err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", newError("http", ErrEmptyResponse, resp.StatusCode, nil)
	}
	return text, nil
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
