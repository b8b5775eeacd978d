// Package openai sends classification prompts to any OpenAI-compatible chat
// completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/agrilink/agrilink/internal/classify"
)

const DefaultModel = "gpt-4o-mini"

type Sender struct {
	client openai.Client
	model  string
}

// New returns a Sender. An empty baseURL keeps the SDK default.
func New(apiKey, model, baseURL string, opts ...option.RequestOption) *Sender {
	if model == "" {
		model = DefaultModel
	}
	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)
	return &Sender{client: openai.NewClient(all...), model: model}
}

func userMessage(p classify.Prompt) openai.ChatCompletionMessageParamUnion {
	if p.Image == nil {
		return openai.UserMessage(p.Text)
	}
	return openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(p.Text),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: p.Image.DataURI(),
		}),
	})
}

// Send returns the first choice's message content as a string.
func (s *Sender) Send(ctx context.Context, p classify.Prompt) (any, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{userMessage(p)},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &classify.ProviderError{Status: apiErr.StatusCode, Body: apiErr.Message, Err: err}
		}
		return nil, &classify.ProviderError{Err: fmt.Errorf("failed to call openai: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &classify.ProviderError{Err: errors.New("openai returned no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}
