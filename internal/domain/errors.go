package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no credential is stored for the user.
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrRefreshFailed means the stored refresh token was rejected; the user
	// must re-authorize. Terminal for the affected run, never retried.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoHistory means the deduplicated window contained no watch events.
	// Raised before the AI service is called.
	ErrNoHistory = errors.New("no watch history in window")

	// ErrEmptyResult means enrichment and filtering left nothing to publish.
	ErrEmptyResult = errors.New("no recommendations after enrichment")
)

// AIServiceError is a failure reaching or using the suggestion service.
type AIServiceError struct {
	Msg string
}

func (e *AIServiceError) Error() string { return "ai service: " + e.Msg }

func IsAIServiceError(err error) bool {
	var target *AIServiceError
	return errors.As(err, &target)
}

// UnparsableResponseError means the suggestion service answered but the text
// could not be decoded into the expected shape.
type UnparsableResponseError struct {
	Msg string
}

func (e *UnparsableResponseError) Error() string { return "unparsable ai response: " + e.Msg }

func IsUnparsableResponse(err error) bool {
	var target *UnparsableResponseError
	return errors.As(err, &target)
}

// UpstreamError is a transient network or 5xx failure from the history or
// metadata services.
type UpstreamError struct {
	Service string
	Status  int
	Msg     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error (status %d): %s", e.Service, e.Status, e.Msg)
}

// Transient reports whether retrying the same request can plausibly succeed.
func (e *UpstreamError) Transient() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// ListAPIError is a hard failure of the remote list endpoint.
type ListAPIError struct {
	Op  string
	Msg string
}

func (e *ListAPIError) Error() string { return fmt.Sprintf("list api %s: %s", e.Op, e.Msg) }

func IsListAPIError(err error) bool {
	var target *ListAPIError
	return errors.As(err, &target)
}
