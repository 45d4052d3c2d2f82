package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation. It is used for dry runs
// and tests; reference constraints are simulated via MarkReferenced.
type MemoryStore struct {
	mu         sync.Mutex
	docs       map[string]*VideoDocument
	referenced map[string]bool
	commits    int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:       make(map[string]*VideoDocument),
		referenced: make(map[string]bool),
	}
}

// FetchIDs returns the IDs of all documents of the given type.
func (s *MemoryStore) FetchIDs(ctx context.Context, docType string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, doc := range s.docs {
		if doc.Type == docType {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Transaction starts a new buffered transaction.
func (s *MemoryStore) Transaction() Transaction {
	return &memoryTransaction{store: s}
}

// Delete removes a single document. Documents marked as referenced return
// ErrDocumentReferenced wrapped with delete context.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.referenced[id] {
		return &StoreError{Op: "delete", ID: id, Err: ErrDocumentReferenced}
	}
	if _, ok := s.docs[id]; !ok {
		return &StoreError{Op: "delete", ID: id, Err: ErrNotFound}
	}
	delete(s.docs, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// Get returns the stored document with the given ID, or nil.
func (s *MemoryStore) Get(id string) *VideoDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Commits returns the number of transactions committed so far.
func (s *MemoryStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Seed inserts a document directly, bypassing transactions.
func (s *MemoryStore) Seed(doc *VideoDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

// MarkReferenced flags a document so that deleting it fails with
// ErrDocumentReferenced, simulating a reference constraint.
func (s *MemoryStore) MarkReferenced(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referenced[id] = true
}

type memoryMutation struct {
	doc      *VideoDocument // nil for deletes
	deleteID string
}

type memoryTransaction struct {
	store     *MemoryStore
	mutations []memoryMutation
	committed bool
}

func (t *memoryTransaction) CreateOrReplace(doc *VideoDocument) {
	t.mutations = append(t.mutations, memoryMutation{doc: doc})
}

func (t *memoryTransaction) Delete(id string) {
	t.mutations = append(t.mutations, memoryMutation{deleteID: id})
}

// Commit applies all buffered mutations atomically. A delete of a referenced
// document fails the whole transaction and leaves the store untouched.
func (t *memoryTransaction) Commit(ctx context.Context) error {
	if len(t.mutations) == 0 {
		return ErrEmptyTransaction
	}
	if t.committed {
		return ErrTransactionClosed
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, m := range t.mutations {
		if m.deleteID != "" && t.store.referenced[m.deleteID] {
			return &StoreError{Op: "commit", ID: m.deleteID, Err: ErrDocumentReferenced}
		}
	}
	for _, m := range t.mutations {
		if m.doc != nil {
			t.store.docs[m.doc.ID] = m.doc
		} else {
			delete(t.store.docs, m.deleteID)
		}
	}
	t.store.commits++
	t.committed = true
	return nil
}
