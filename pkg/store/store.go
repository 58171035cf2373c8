// Package store provides persistence for page records.
//
// The render service loads pages by id from a [Store]. Three backends are
// provided:
//   - [MemoryStore]: in-process map, for tests and single-node development
//   - [FileStore]: one JSON file per page, for the CLI
//   - [MongoStore]: MongoDB collection, for production deployments
//
// All backends return an error with code [errors.ErrCodePageNotFound] for an
// unknown id and reject ids that fail [errors.ValidateID].
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/page"
)

// Store persists page records.
type Store interface {
	// Get returns the page with the given id.
	Get(ctx context.Context, id string) (*page.Page, error)

	// Put inserts or replaces a page. A page without an id is given one.
	Put(ctx context.Context, p *page.Page) error

	// Delete removes a page. Deleting a missing page is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all page ids in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close(ctx context.Context) error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodePageNotFound, "page %q not found", id)
}

// prepare validates p for storage and returns its id.
func prepare(p *page.Page) (string, error) {
	if p == nil {
		return "", errors.New(errors.ErrCodeInvalidPage, "nil page")
	}
	id := p.EnsureID()
	if err := errors.ValidateID(id); err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// clonePage deep-copies the slices of p so stored records cannot be mutated
// through a returned pointer. Pointer fields on panels and bubbles are
// shared; callers treat records as read-only.
func clonePage(p *page.Page) *page.Page {
	c := *p
	c.Panels = slices.Clone(p.Panels)
	for i := range c.Panels {
		c.Panels[i].Bubbles = slices.Clone(c.Panels[i].Bubbles)
	}
	return &c
}

// =============================================================================
// MemoryStore
// =============================================================================

// MemoryStore keeps pages in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]*page.Page
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]*page.Page)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*page.Page, error) {
	if err := errors.ValidateID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, notFound(id)
	}
	return clonePage(p), nil
}

func (s *MemoryStore) Put(ctx context.Context, p *page.Page) error {
	id, err := prepare(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[id] = clonePage(p)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.pages))
	for id := range s.pages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
