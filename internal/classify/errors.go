package classify

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the pipeline stages. Every typed error below matches
// exactly one of them with errors.Is.
var (
	ErrInput      = errors.New("invalid classification input")
	ErrProvider   = errors.New("provider call failed")
	ErrParse      = errors.New("failed to parse provider response")
	ErrIncomplete = errors.New("incomplete response from provider")
)

// InputError rejects a request before any provider call is made.
type InputError struct {
	Reason   string
	Required []string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInput }

// ProviderError is returned once every payload shape has failed. Status is
// zero when the last attempt never produced an HTTP response.
type ProviderError struct {
	Status int
	Body   string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider call failed: %v", e.Err)
	}
	return ErrProvider.Error()
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

func (e *ProviderError) Unwrap() error { return e.Err }

// ParseError carries the raw answer text so provider drift can be diagnosed.
// It also covers the degenerate case where no JSON object was found at all.
type ParseError struct {
	Err error
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports mandatory fields missing from a parsed answer.
type ValidationError struct {
	Missing []string
	Raw     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: missing %s", ErrIncomplete, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrIncomplete }
