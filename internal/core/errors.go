package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means no inference credential is configured.
	ErrConfiguration = errors.New("inference API key not configured")
	// ErrEmptyGeneration means the inference API answered without usable text.
	ErrEmptyGeneration = errors.New("inference API returned no generated text")
)

// UpstreamError is a failed call to the inference API. It is absorbed by the
// chat fallback and never reaches the client.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("inference API status %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("inference API: %v", e.Err)
	default:
		return fmt.Sprintf("inference API status %d: %s", e.StatusCode, e.Body)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ProcessingError wraps any failure while handling a chat request after the
// configuration check. It is not retried.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return "error processing chat: " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error { return e.Err }
