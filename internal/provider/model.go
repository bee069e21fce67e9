// Package provider talks to the external completion backend. Failures are
// returned as typed sentinel errors so every call site handles them
// explicitly instead of catching opaque transport exceptions.
package provider

import (
	"context"
	"errors"

	"tradechat/internal/types"
)

var (
	// ErrMissingCredential means no API key is configured. Fatal; checked
	// before any network IO and never retried.
	ErrMissingCredential = errors.New("completion credential not configured")
	// ErrBackendUnavailable covers transport errors and non-2xx statuses.
	ErrBackendUnavailable = errors.New("completion backend unavailable")
	// ErrEmptyResponse means a 2xx reply carried no completion text.
	ErrEmptyResponse = errors.New("completion backend returned no content")
)

// Options tunes a single completion request.
type Options struct {
	MaxTokens   int
	Temperature float64
	// Purpose tags the request in the payload dump log ("chat", "summary").
	Purpose string
}

// Result is a normalized completion.
type Result struct {
	Content string
	Usage   types.Usage
}

// Client issues one completion request per call. No retries: resubmission is
// the caller's decision.
type Client interface {
	// Complete sends systemContext as the system role and, when non-empty,
	// userMessage as the user role. Summary requests pass an empty user
	// message.
	Complete(ctx context.Context, systemContext, userMessage string, opts Options) (Result, error)
}
