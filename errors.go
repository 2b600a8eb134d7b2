package soto

import (
	"fmt"

	"github.com/soto-project/soto-core-runtime/request"
	"github.com/soto-project/soto-core-runtime/response"
)

// The four request-build error kinds are aliased rather than redefined:
// package request is where they are actually raised, and a
// caller depending only on this root package should still be able to
// errors.As against the same concrete type.
type (
	ValidationError                 = request.ValidationError
	InvalidURLError                 = request.InvalidURLError
	StreamingNotAllowedError        = request.StreamingNotAllowedError
	ChunkedStreamingNotAllowedError = request.ChunkedStreamingNotAllowedError
	TypedServiceError               = response.TypedServiceError
	GenericResponseError            = response.GenericResponseError
)

// CredentialsError wraps any failure from the credential subsystem:
// tokenLoadFailed, tokenParseFailed, tokenRefreshFailed, profileNotFound,
// configFileNotFound, loginSessionMissing, httpRequestFailed. Propagated to
// the caller without retry.
type CredentialsError struct {
	Err error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("soto: credentials: %v", e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// RetryableError marks a failure eligible for the retry surface:
// transport errors, 5xx, 429, Throttling. Attempts records how many times
// the orchestrator tried before giving up; 0 means the error has not yet
// been through the retry loop.
type RetryableError struct {
	Err      error
	Attempts int
}

func (e *RetryableError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("soto: retryable error after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("soto: retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }
