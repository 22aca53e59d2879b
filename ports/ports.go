// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/pageblocks/domain/page"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by stores when a unique key is already taken.
var ErrDuplicate = errors.New("already exists")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// CacheStore is a process-wide key/value cache with expiry. It is shared by
// every registry in the process (and across processes for persistent stores).
type CacheStore interface {
	// Get returns the stored value, or nil when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key. A ttl <= 0 never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Forget removes key. Removing a missing key is not an error.
	Forget(ctx context.Context, key string) error
}

// MediaResolver turns stored media references into public URLs.
type MediaResolver interface {
	// URL returns the public URL for ref, or "" if ref is empty.
	URL(ref string) string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// PageStore persists page records. Content is stored as a normalized
// JSON document and is opaque to the store.
type PageStore interface {
	// Get retrieves a page by ID.
	Get(ctx context.Context, id string) (page.Page, error)

	// GetBySlug retrieves a page by slug.
	GetBySlug(ctx context.Context, slug string) (page.Page, error)

	// List returns all pages ordered by slug.
	List(ctx context.Context) ([]page.Page, error)

	// Create stores a new page.
	Create(ctx context.Context, p page.Page) error

	// Update replaces an existing page.
	Update(ctx context.Context, p page.Page) error

	// Delete removes a page.
	Delete(ctx context.Context, id string) error
}
