package classify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Fallback tries Preferred first and silently falls through to Fallback on
// any failure other than cancellation of ctx.
type Fallback struct {
	Preferred Sender
	Fallback  Sender
	Logger    *slog.Logger
}

func (f *Fallback) Send(ctx context.Context, p Prompt) (any, error) {
	if f.Preferred != nil {
		resp, err := f.Preferred.Send(ctx, p)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		logger := f.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Info("preferred provider failed, falling back", "error", err)
	}
	return f.Fallback.Send(ctx, p)
}

// WithTimeout bounds every Send on sender by d. A non-positive d leaves
// sender unchanged.
func WithTimeout(sender Sender, d time.Duration) Sender {
	if d <= 0 {
		return sender
	}
	return SenderFunc(func(ctx context.Context, p Prompt) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return sender.Send(ctx, p)
	})
}
