package vimeo

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for remote API operations.
var (
	// ErrRateLimitExceeded indicates the retry budget was exhausted while
	// the API kept answering with quota-exhaustion responses.
	ErrRateLimitExceeded = errors.New("vimeo: API rate limit exceeded after multiple retries")

	// ErrMissingFilesScope indicates a video record came back without its
	// encoded-file list. The message carries the remediation, since this
	// is surfaced verbatim to the user.
	ErrMissingFilesScope = errors.New(`vimeo: missing video files. Ensure your token has the "video_files" scope and your Vimeo account is on a PRO plan or higher`)

	// ErrThumbnailTimeout indicates animated thumbnail generation did not
	// complete within the polling timeout.
	ErrThumbnailTimeout = errors.New("vimeo: animated thumbnail generation timed out")

	// ErrNoAccessToken indicates no bearer credential was supplied.
	ErrNoAccessToken = errors.New("vimeo: access token not set")
)

// RateLimitError reports an exhausted retry budget against quota-limited
// responses. It matches ErrRateLimitExceeded with errors.Is().
type RateLimitError struct {
	// Attempts is the total number of attempts made, including the first.
	Attempts int
	// RetryAfter is the last server-specified wait the client honored.
	RetryAfter time.Duration
}

// Error returns a string representation of the rate limit error.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("vimeo: rate limit exceeded after %d attempts (last retry-after %s)", e.Attempts, e.RetryAfter)
}

// Unwrap makes errors.Is(err, ErrRateLimitExceeded) succeed.
func (e *RateLimitError) Unwrap() error { return ErrRateLimitExceeded }

// APIError indicates a non-success response that is not a rate limit.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body is the raw response body, kept for error reporting.
	Body []byte
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	return fmt.Sprintf("vimeo: unexpected status %d", e.StatusCode)
}

// SyncError wraps sync-run failures with the stage that produced them.
// Use errors.As() to extract this error type and get the failing stage:
//
//	var syncErr *vimeo.SyncError
//	if errors.As(err, &syncErr) {
//		fmt.Printf("sync failed during %s: %v\n", syncErr.Stage, syncErr.Err)
//	}
type SyncError struct {
	// Stage is the pipeline stage that failed ("count", "list", "enrich",
	// "commit", "reconcile").
	Stage string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the sync error.
func (e *SyncError) Error() string {
	return fmt.Sprintf("vimeo: sync %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *SyncError) Unwrap() error { return e.Err }
