package ai

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

type AnthropicCompleter struct {
	client sdk.Client
	model  string
}

func NewAnthropicCompleter(cfg Config) *AnthropicCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// one call per complaint, a failure degrades to the default priority
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicCompleter{
		client: sdk.NewClient(opts...),
		model:  model,
	}
}

func (c *AnthropicCompleter) Name() string {
	return "anthropic/" + c.model
}

func (c *AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.User))},
		Temperature: sdk.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", anthropicError(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", newError("anthropic", ErrEmptyResponse, 0, nil)
	}
	return text, nil
}

func anthropicError(err error) error {
	cause := eris.Wrap(err, "anthropic: create message")

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return newError("anthropic", kindForStatus(apiErr.StatusCode, ""), apiErr.StatusCode, cause)
	}
	return newError("anthropic", kindForTransport(err), 0, cause)
}
