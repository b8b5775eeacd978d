// Package gemini sends classification prompts through the Google Gemini SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/agrilink/agrilink/internal/classify"
)

const DefaultModel = "gemini-1.5-flash"

type Sender struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

// New returns a Sender. Extra client options are appended after the API key.
func New(apiKey, model string, opts ...option.ClientOption) *Sender {
	if model == "" {
		model = DefaultModel
	}
	return &Sender{apiKey: apiKey, model: model, opts: opts}
}

// Send returns the first text part of the first candidate as a string.
func (s *Sender) Send(ctx context.Context, p classify.Prompt) (any, error) {
	if s.apiKey == "" {
		return nil, &classify.ProviderError{Err: errors.New("GEMINI_API_KEY is empty")}
	}

	opts := append([]option.ClientOption{option.WithAPIKey(s.apiKey)}, s.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, &classify.ProviderError{Err: fmt.Errorf("failed to create gemini client: %w", err)}
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(s.model))
	temperature := float32(0.2)
	m.GenerationConfig = genai.GenerationConfig{Temperature: &temperature}

	parts := []genai.Part{genai.Text(p.Text)}
	if p.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: p.Image.MIME, Data: p.Image.Data})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, &classify.ProviderError{Err: fmt.Errorf("failed to call gemini: %w", err)}
	}

	txt := firstText(resp)
	if txt == "" {
		return nil, &classify.ProviderError{Err: errors.New("gemini returned an empty response")}
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok && t != "" {
				return string(t)
			}
		}
	}
	return ""
}
