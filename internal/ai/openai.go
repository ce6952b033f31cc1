package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter talks to the OpenAI chat completions API or any gateway
// that speaks the same protocol.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(cfg Config) *OpenAICompleter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (c *OpenAICompleter) Name() string {
	return "openai/" + c.model
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", newError("openai", ErrEmptyResponse, 0, nil)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", newError("openai", ErrEmptyResponse, 0, nil)
	}
	return text, nil
}

func openAIError(err error) error {
	cause := eris.Wrap(err, "openai: create chat completion")

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		if code == "" {
			code = apiErr.Type
		}
		return newError("openai", kindForStatus(apiErr.HTTPStatusCode, code), apiErr.HTTPStatusCode, cause)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return newError("openai", kindForStatus(reqErr.HTTPStatusCode, ""), reqErr.HTTPStatusCode, cause)
	}

	return newError("openai", kindForTransport(err), 0, cause)
}
