// Package idgen provides ports.IDGenerator implementations for page records.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/artpar/pageblocks/ports"
)

// PagePrefix marks page IDs so they are recognisable in logs and URLs.
const PagePrefix = "pg_"

// UUID generates prefixed, time-ordered UUIDv7 identifiers. Ordering by ID
// approximates ordering by creation time.
type UUID struct {
	Prefix string
}

// New returns a new identifier. It falls back to a random v4 UUID if the
// v7 generator fails.
func (g UUID) New() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return g.Prefix + id.String()
}

// Sequential generates predictable IDs for tests and fixtures.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns prefix followed by the next counter value, starting at 1.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
