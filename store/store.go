// Package store defines the content-store abstraction that synced video
// documents are written to, along with the document models themselves.
//
// The store is a transactional key-document database: documents are fetched
// by type, written through buffered transactions, and deleted individually.
// Implementations must be safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
)

// DocTypeVideo is the document type under which synced videos are stored.
const DocTypeVideo = "vimeoVideo"

// Sentinel errors for common store conditions.
var (
	// ErrNotFound indicates the requested document was not found.
	ErrNotFound = errors.New("store: document not found")
	// ErrDocumentReferenced indicates a document could not be deleted
	// because other documents still reference it. This is an expected
	// outcome during reconciliation, not a fault.
	ErrDocumentReferenced = errors.New("store: document is referenced by other documents")
	// ErrEmptyTransaction indicates Commit was called on a transaction
	// with no buffered mutations.
	ErrEmptyTransaction = errors.New("store: empty transaction")
	// ErrTransactionClosed indicates a transaction was committed twice.
	ErrTransactionClosed = errors.New("store: transaction already committed")
)

// StoreError wraps store errors with operation and document context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storeErr *store.StoreError
//	if errors.As(err, &storeErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storeErr.Op, storeErr.ID, storeErr.Err)
//	}
type StoreError struct {
	// Op is the operation that failed ("fetch", "commit", "delete").
	Op string
	// ID is the document ID if the operation targeted a single document.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the store error.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store: %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StoreError) Unwrap() error { return e.Err }

// Store is the narrow content-store interface consumed by the sync engine.
type Store interface {
	// FetchIDs returns the IDs of every document of the given type.
	FetchIDs(ctx context.Context, docType string) ([]string, error)

	// Transaction starts a new buffered transaction. Mutations take effect
	// only when Commit is called, and commit atomically.
	Transaction() Transaction

	// Delete removes a single document by ID. It returns
	// ErrDocumentReferenced (possibly wrapped) when the document cannot be
	// removed because other documents still point at it.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// Transaction buffers create-or-replace and delete mutations until Commit.
type Transaction interface {
	// CreateOrReplace buffers an upsert of the given document, keyed by
	// its ID. An existing document with the same ID is fully replaced.
	CreateOrReplace(doc *VideoDocument)

	// Delete buffers a deletion of the document with the given ID.
	Delete(id string)

	// Commit applies all buffered mutations atomically.
	Commit(ctx context.Context) error
}
