package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testRequest() CompletionRequest {
	return CompletionRequest{
		System:      "respond with JSON",
		User:        "classify this",
		MaxTokens:   300,
		Temperature: 0.3,
	}
}

func TestOpenAICompleter_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 300, body.MaxTokens)
		assert.InDelta(t, 0.3, body.Temperature, 0.0001)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, body.Messages[0].Role)
		assert.Equal(t, "classify this", body.Messages[1].Content)

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: ` {"priority":"low"} `},
				FinishReason: "stop",
			}},
		})
	}))
	defer server.Close()

	c := NewOpenAICompleter(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o-mini"})
	text, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"priority":"low"}`, text)
}

func TestOpenAICompleter_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error", "code": "rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestOpenAICompleter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "chatcmpl-2"})
	}))
	defer server.Close()

	c := NewOpenAICompleter(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := c.Complete(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropicCompleter_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 300, body["max_tokens"])
		assert.NotNil(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": `{"priority":"high"}`},
			},
			"model":       defaultAnthropicModel,
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer ts.Close()

	c := NewAnthropicCompleter(Config{APIKey: "test-key", BaseURL: ts.URL})
	text, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"priority":"high"}`, text)
}

func TestAnthropicCompleter_RateLimit(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer ts.Close()

	c := NewAnthropicCompleter(Config{APIKey: "test-key", BaseURL: ts.URL})
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls, "expected no SDK retries")
}

func TestGeminiCompleter_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+defaultGeminiModel+":generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotNil(t, body["systemInstruction"])
		assert.NotNil(t, body["generationConfig"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": ` {"priority":"urgent"} `}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer ts.Close()

	c, err := NewGeminiCompleter(context.Background(), Config{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)
	text, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"priority":"urgent"}`, text)
}

func TestGeminiCompleter_RateLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer ts.Close()

	c, err := NewGeminiCompleter(context.Background(), Config{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGeminiError_UsesAPIStatus(t *testing.T) {
	err := geminiError(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad field, request id 500-abc"})
	assert.ErrorIs(t, err, ErrRejected)

	err = geminiError(genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "try later"})
	assert.ErrorIs(t, err, ErrUnavailable)

	err = geminiError(genai.APIError{Code: 429, Message: "slow down"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestHTTPCompleter_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/complete", r.URL.Path)
		var body completeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "classify this", body.Prompt)
		assert.Equal(t, 300, body.MaxTokens)
		_ = json.NewEncoder(w).Encode(completeResponse{Text: `{"priority":"medium"}`})
	}))
	defer ts.Close()

	c := NewHTTPCompleter(Config{BaseURL: ts.URL + "/"})
	text, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"priority":"medium"}`, text)
}

func TestHTTPCompleter_RateLimitRetryAfter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewHTTPCompleter(Config{BaseURL: ts.URL})
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	var rl RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 30*time.Second, rl.RetryAfter)
}

func TestHTTPCompleter_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewHTTPCompleter(Config{BaseURL: ts.URL})
	_, err := c.Complete(ctx, testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPCompleter_GatewayError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"code":"upstream_down"}}`))
	}))
	defer ts.Close()

	c := NewHTTPCompleter(Config{BaseURL: ts.URL})
	_, err := c.Complete(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, 1500*time.Millisecond, parseRetryAfter("1.5s"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
}
