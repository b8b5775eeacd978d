package classify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/agrilink/agrilink/internal/domain"
)

// Classifier runs the full pipeline against one Sender.
type Classifier struct {
	sender    Sender
	validator *Validator
	logger    *slog.Logger
}

func New(sender Sender, prices PriceTable, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		sender:    sender,
		validator: NewValidator(prices),
		logger:    logger,
	}
}

// Classify returns a validated, priced classification or one of the typed
// errors in errors.go. No partial result is ever returned.
func (c *Classifier) Classify(ctx context.Context, req Request) (*domain.Classification, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	prompt := Prompt{Text: BuildPrompt(req)}
	if req.Image != "" && req.AnalysisType != AnalysisText {
		img, err := DecodeImage(req.Image)
		if err != nil {
			return nil, err
		}
		prompt.Image = img
	}

	resp, err := c.sender.Send(ctx, prompt)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, &ProviderError{Err: err}
	}

	text := ExtractText(resp)
	result, applied, err := c.validator.Validate(ExtractJSON(text), text)
	if err != nil {
		c.logger.Warn("provider answer rejected", "analysis_type", req.AnalysisType, "error", err)
		return nil, err
	}
	if applied {
		c.logger.Debug("default price applied",
			"crop_type", result.CropType,
			"estimated_value", float64(result.EstimatedValue))
	}
	return result, nil
}
