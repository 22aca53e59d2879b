package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/pageblocks/domain/content"
	"github.com/artpar/pageblocks/domain/page"
	"github.com/artpar/pageblocks/ports"
)

// PageStore is an in-memory implementation of ports.PageStore.
type PageStore struct {
	mu     sync.RWMutex
	pages  map[string]page.Page // by ID
	bySlug map[string]string    // slug -> ID
}

// NewPageStore creates a new in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{
		pages:  make(map[string]page.Page),
		bySlug: make(map[string]string),
	}
}

// Get retrieves a page by ID.
func (s *PageStore) Get(ctx context.Context, id string) (page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[id]
	if !ok {
		return page.Page{}, ports.ErrNotFound
	}
	return clonePage(p), nil
}

// GetBySlug retrieves a page by slug.
func (s *PageStore) GetBySlug(ctx context.Context, slug string) (page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return page.Page{}, ports.ErrNotFound
	}
	return clonePage(s.pages[id]), nil
}

// List returns all pages ordered by slug.
func (s *PageStore) List(ctx context.Context) ([]page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]page.Page, 0, len(s.pages))
	for _, p := range s.pages {
		result = append(result, clonePage(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

// Create stores a new page.
func (s *PageStore) Create(ctx context.Context, p page.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pages[p.ID]; exists {
		return ports.ErrDuplicate
	}
	if _, exists := s.bySlug[p.Slug]; exists {
		return ports.ErrDuplicate
	}

	s.pages[p.ID] = clonePage(p)
	s.bySlug[p.Slug] = p.ID
	return nil
}

// Update replaces an existing page.
func (s *PageStore) Update(ctx context.Context, p page.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.pages[p.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if owner, taken := s.bySlug[p.Slug]; taken && owner != p.ID {
		return ports.ErrDuplicate
	}

	delete(s.bySlug, old.Slug)
	s.pages[p.ID] = clonePage(p)
	s.bySlug[p.Slug] = p.ID
	return nil
}

// Delete removes a page.
func (s *PageStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[id]
	if !ok {
		return ports.ErrNotFound
	}
	delete(s.bySlug, p.Slug)
	delete(s.pages, id)
	return nil
}

// clonePage isolates stored content from callers.
func clonePage(p page.Page) page.Page {
	p.Content = content.CloneData(p.Content)
	return p
}

// Ensure interface compliance.
var _ ports.PageStore = (*PageStore)(nil)
