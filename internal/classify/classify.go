// Package classify turns a farmer's waste description or photo into a
// structured, priced classification by way of an external AI provider.
//
// The pipeline runs strictly forward: the request is normalised and gated,
// a prompt is built, a Sender delivers it to the provider, the answer text is
// located in the provider envelope, and the embedded JSON object is parsed,
// validated and price-patched. Transports live in the sub-packages (puter,
// claude, gemini, openai) and only implement Sender.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type AnalysisType string

const (
	AnalysisImage AnalysisType = "image"
	AnalysisText  AnalysisType = "text"
	AnalysisBoth  AnalysisType = "both"
)

// Request is the classification request as composed by the client.
type Request struct {
	AnalysisType  AnalysisType `json:"analysisType"`
	Image         string       `json:"image,omitempty"`
	Description   string       `json:"description,omitempty"`
	CropType      Hint         `json:"cropType,omitempty"`
	Quantity      Hint         `json:"quantity,omitempty"`
	MoistureLevel Hint         `json:"moistureLevel,omitempty"`
	Age           Hint         `json:"age,omitempty"`
}

// Hint is an optional free-text hint. Clients sometimes send numbers for
// quantity, so numbers decode to their literal text.
type Hint string

func (h *Hint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*h = Hint(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*h = Hint(n.String())
		return nil
	}
	if strings.TrimSpace(string(data)) == "null" {
		*h = ""
		return nil
	}
	return fmt.Errorf("hint must be a string or number, got %s", data)
}

// Normalize applies the input gate and settles the analysis type. At least
// one of Image or Description must be present. An empty or unknown analysis
// type is inferred from the inputs; image-based types without an image fall
// back to text.
func (r Request) Normalize() (Request, error) {
	r.Image = strings.TrimSpace(r.Image)
	r.Description = strings.TrimSpace(r.Description)

	hasImage := r.Image != ""
	hasText := r.Description != ""
	if !hasImage && !hasText {
		return r, &InputError{
			Reason:   "either image or description is required",
			Required: []string{"analysisType", "image|description"},
		}
	}

	switch {
	case hasImage && hasText:
		if r.AnalysisType != AnalysisImage {
			r.AnalysisType = AnalysisBoth
		}
	case hasImage:
		r.AnalysisType = AnalysisImage
	default:
		r.AnalysisType = AnalysisText
	}
	return r, nil
}

// Prompt is what a Sender delivers to the provider.
type Prompt struct {
	Text  string
	Image *Image
}

// Sender delivers a prompt to an AI provider and returns the decoded
// response envelope. HTTP transports return the decoded JSON body (usually a
// map[string]any); SDK transports return the answer text as a string.
type Sender interface {
	Send(ctx context.Context, p Prompt) (any, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, p Prompt) (any, error)

func (f SenderFunc) Send(ctx context.Context, p Prompt) (any, error) {
	return f(ctx, p)
}
