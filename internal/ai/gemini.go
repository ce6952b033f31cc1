package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, cfg Config) (*GeminiCompleter, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Name() string {
	return "gemini/" + g.model
}

func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	conf := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:  int32(req.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), conf)
	if err != nil {
		return "", geminiError(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", newError("gemini", ErrEmptyResponse, 0, nil)
	}
	return text, nil
}

// geminiError classifies by the API status when the client returns one and
// falls back to the message text for transport failures.
func geminiError(err error) error {
	cause := eris.Wrap(err, "gemini: generate content")
	if errors.Is(err, context.DeadlineExceeded) {
		return newError("gemini", ErrTimeout, 0, cause)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		switch {
		case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
			return newError("gemini", ErrRateLimited, apiErr.Code, cause)
		case apiErr.Code == 504 || apiErr.Status == "DEADLINE_EXCEEDED":
			return newError("gemini", ErrTimeout, apiErr.Code, cause)
		case apiErr.Code >= 500:
			return newError("gemini", ErrUnavailable, apiErr.Code, cause)
		case apiErr.Code >= 400:
			return newError("gemini", ErrRejected, apiErr.Code, cause)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota"):
		return newError("gemini", ErrRateLimited, 429, cause)
	case strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout"):
		return newError("gemini", ErrTimeout, 0, cause)
	case strings.Contains(msg, "unavailable") || strings.Contains(msg, "overloaded"):
		return newError("gemini", ErrUnavailable, 0, cause)
	case strings.Contains(msg, "invalid_argument") || strings.Contains(msg, "permission_denied"):
		return newError("gemini", ErrRejected, 0, cause)
	}
	return newError("gemini", kindForTransport(err), 0, cause)
}
