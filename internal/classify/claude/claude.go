// Package claude sends classification prompts through the Anthropic
// Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/agrilink/agrilink/internal/classify"
)

const DefaultModel = "claude-3-5-sonnet-20241022"

// maxTokens comfortably covers the classification schema, which rarely
// exceeds a few hundred tokens.
const maxTokens = 1024

type Sender struct {
	client *anthropic.Client
	model  string
}

// New returns a Sender. opts are passed to the SDK client, e.g.
// anthropic.WithBaseURL in tests.
func New(apiKey, model string, opts ...anthropic.ClientOption) *Sender {
	if model == "" {
		model = DefaultModel
	}
	return &Sender{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// buildMessages places the image block ahead of the prompt text, which is
// the order the Messages API recommends for vision requests.
func buildMessages(p classify.Prompt) []anthropic.Message {
	var content []anthropic.MessageContent
	if p.Image != nil {
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				normaliseMIME(p.Image.MIME),
				p.Image.Base64(),
			),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(p.Text))
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

// Send returns the first text block of the reply as a string.
func (s *Sender) Send(ctx context.Context, p classify.Prompt) (any, error) {
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(p),
	})
	if err != nil {
		var reqErr *anthropic.RequestError
		if errors.As(err, &reqErr) {
			return nil, &classify.ProviderError{Status: reqErr.StatusCode, Body: reqErr.Error(), Err: err}
		}
		return nil, &classify.ProviderError{Err: fmt.Errorf("failed to call claude: %w", err)}
	}

	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			return c.GetText(), nil
		}
	}
	return nil, &classify.ProviderError{Err: errors.New("claude returned no text content")}
}

// normaliseMIME maps MIME types to the values the Anthropic API accepts.
// Unknown types are coerced to jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
