package vimeosync

import (
	"vimeosync/store"
	"vimeosync/vimeo"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, vimeosync.ErrMissingFilesScope) {
//		fmt.Println("token lacks the video_files scope")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var storeErr *vimeosync.StoreError
//	if errors.As(err, &storeErr) {
//		fmt.Printf("store %s failed for %s: %v\n", storeErr.Op, storeErr.ID, storeErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// RateLimitError reports an exhausted retry budget on quota-limited
	// responses.
	RateLimitError = vimeo.RateLimitError
	// APIError reports a non-success remote API response.
	APIError = vimeo.APIError
	// SyncError wraps sync-run failures with the failing stage.
	SyncError = vimeo.SyncError
	// StoreError wraps content-store failures with operation context.
	StoreError = store.StoreError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrRateLimitExceeded indicates the retry budget was exhausted.
	ErrRateLimitExceeded = vimeo.ErrRateLimitExceeded
	// ErrMissingFilesScope indicates a record came back without its
	// encoded-file list (missing scope or plan tier).
	ErrMissingFilesScope = vimeo.ErrMissingFilesScope
	// ErrThumbnailTimeout indicates thumbnail generation did not complete
	// within the polling timeout.
	ErrThumbnailTimeout = vimeo.ErrThumbnailTimeout
	// ErrNoAccessToken indicates no bearer credential was supplied.
	ErrNoAccessToken = vimeo.ErrNoAccessToken

	// Store errors
	// ErrNotFound indicates a document was not found in the store.
	ErrNotFound = store.ErrNotFound
	// ErrDocumentReferenced indicates a document is still referenced by
	// other documents and cannot be deleted.
	ErrDocumentReferenced = store.ErrDocumentReferenced
)
