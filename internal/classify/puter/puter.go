// Package puter sends classification prompts to a Puter-style chat endpoint
// over plain HTTP, falling back between payload shapes on failure.
package puter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agrilink/agrilink/internal/classify"
)

const (
	DefaultBaseURL = "https://api.puter.com"
	DefaultModel   = "gpt-4o"
	chatPath       = "/v2/ai/chat"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 * 1024

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type messagesPayload struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type simplePayload struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Image  string `json:"image,omitempty"`
}

// Invoker implements classify.Sender against the chat endpoint.
type Invoker struct {
	apiKey  string
	model   string
	baseURL string
	policy  classify.RetryPolicy
	client  *http.Client
	logger  *slog.Logger
}

func NewInvoker(baseURL, apiKey, model string, policy classify.RetryPolicy, logger *slog.Logger) *Invoker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  policy,
		client:  &http.Client{},
		logger:  logger,
	}
}

func (i *Invoker) Send(ctx context.Context, p classify.Prompt) (any, error) {
	return i.policy.Run(ctx, i.logger, func(ctx context.Context, shape classify.Shape) (any, error) {
		return i.post(ctx, i.payload(shape, p))
	})
}

// payload renders p in the given shape. An attached image travels as an
// image_url content part (messages) or as a data URI field (simple).
func (i *Invoker) payload(shape classify.Shape, p classify.Prompt) any {
	if shape == classify.ShapeSimple {
		body := simplePayload{Prompt: p.Text, Model: i.model}
		if p.Image != nil {
			body.Image = p.Image.DataURI()
		}
		return body
	}

	var content any = p.Text
	if p.Image != nil {
		content = []contentPart{
			{Type: "text", Text: p.Text},
			{Type: "image_url", ImageURL: &imageURL{URL: p.Image.DataURI()}},
		}
	}
	return messagesPayload{
		Model:    i.model,
		Messages: []message{{Role: "user", Content: content}},
	}
}

func (i *Invoker) post(ctx context.Context, body any) (any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set("X-API-Key", i.apiKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, &classify.ProviderError{Err: fmt.Errorf("failed to call provider: %w", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			i.logger.Error("failed to close provider response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &classify.ProviderError{Status: resp.StatusCode, Body: string(errBody)}
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &classify.ProviderError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return decoded, nil
}
