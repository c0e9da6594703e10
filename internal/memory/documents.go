package memory

import (
	"context"
	gosync "sync"

	"github.com/archsync/archsync/pkg/document"
	"github.com/archsync/archsync/pkg/errors"
)

// DocumentStore is an in-memory Live-Document store.
type DocumentStore struct {
	mu   gosync.RWMutex
	docs map[string]*document.RemoteDocument // by space/name

	creates, updates int
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*document.RemoteDocument)}
}

// Seed inserts documents directly, bypassing the call counters.
func (s *DocumentStore) Seed(docs ...*document.RemoteDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.Identity()] = doc
	}
}

// Updates returns how many update calls the store served.
func (s *DocumentStore) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}

// GetDocument returns the document, or an error wrapping
// errors.ErrNotFound when it does not exist.
func (s *DocumentStore) GetDocument(ctx context.Context, space, name string) (*document.RemoteDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[space+"/"+name]
	if !ok {
		return nil, errors.NewRemoteError("get-document", space+"/"+name, errors.ErrNotFound)
	}
	copied := *doc
	copied.Sections = append([]document.Section(nil), doc.Sections...)
	return &copied, nil
}

// CreateDocument stores a new document.
func (s *DocumentStore) CreateDocument(ctx context.Context, doc *document.RemoteDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.Identity()]; exists {
		return errors.NewRemoteError("create-document", doc.Identity(),
			errors.New("document already exists"))
	}
	s.creates++
	s.docs[doc.Identity()] = doc
	return nil
}

// UpdateDocument replaces the stored section sequence.
func (s *DocumentStore) UpdateDocument(ctx context.Context, doc *document.RemoteDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.Identity()]; !exists {
		return errors.NewRemoteError("update-document", doc.Identity(), errors.ErrNotFound)
	}
	s.updates++
	s.docs[doc.Identity()] = doc
	return nil
}
