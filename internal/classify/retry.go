package classify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Shape names a provider payload layout.
type Shape string

const (
	// ShapeMessages is {model, messages:[{role, content}]}.
	ShapeMessages Shape = "messages"
	// ShapeSimple is {prompt, model}.
	ShapeSimple Shape = "simple"
)

// RetryPolicy drives the payload-shape fallback of a transport. Each shape
// gets exactly one attempt, in order; the policy never loops past the last
// shape.
type RetryPolicy struct {
	Shapes    []Shape
	Backoff   time.Duration
	Retryable func(error) bool
}

// DefaultRetryPolicy tries the messages shape and then the simple shape with
// no pause in between.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Shapes:    []Shape{ShapeMessages, ShapeSimple},
		Retryable: DefaultRetryable,
	}
}

// DefaultRetryable retries everything except cancellation of the caller's
// context.
func DefaultRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Attempt performs one provider call with the given payload shape.
type Attempt func(ctx context.Context, shape Shape) (any, error)

// Run calls attempt once per shape until one succeeds. The last failure is
// returned as a *ProviderError.
func (p RetryPolicy) Run(ctx context.Context, logger *slog.Logger, attempt Attempt) (any, error) {
	shapes := p.Shapes
	if len(shapes) == 0 {
		shapes = DefaultRetryPolicy().Shapes
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for i, shape := range shapes {
		if i > 0 {
			if err := sleep(ctx, p.Backoff); err != nil {
				return nil, &ProviderError{Err: err}
			}
		}

		resp, err := attempt(ctx, shape)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		attrs := []any{"shape", shape, "attempt", i + 1, "error", err}
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Status != 0 {
			attrs = append(attrs, "status", perr.Status, "body", perr.Body)
		}
		logger.Warn("provider attempt failed", attrs...)

		if !retryable(err) {
			break
		}
	}

	var perr *ProviderError
	if errors.As(lastErr, &perr) {
		return nil, perr
	}
	return nil, &ProviderError{Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
