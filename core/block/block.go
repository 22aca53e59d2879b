// Package block defines the contract a content block type implements and the
// optional capabilities the registry and info extractor look for.
package block

import (
	"errors"
	"fmt"

	"github.com/artpar/pageblocks/core/schema"
)

// DefaultOrder is the sort precedence of a block that does not declare one.
const DefaultOrder = 100

// ErrInvalidType is returned when a value offered to a registry does not
// satisfy the Block contract.
var ErrInvalidType = errors.New("invalid block type")

// Block is a pluggable content block type.
type Block interface {
	// Key returns the stable identifier stored in a section's "type".
	Key() string

	// Schema returns a prototype of the data payload, usually a struct value
	// with json tags. Nil means the block declares no fields.
	Schema() any

	// Transform turns raw stored data into its API-ready representation.
	// It must not retain or mutate data.
	Transform(data map[string]any) (map[string]any, error)
}

// Labeler exposes a human readable name.
type Labeler interface {
	Label() string
}

// Orderer overrides DefaultOrder.
type Orderer interface {
	Order() int
}

// Grouper places a block in a logical category.
type Grouper interface {
	Group() string
}

// Metadata is the richer, human-authored description of a block.
type Metadata struct {
	Description string         `json:"description,omitempty"`
	Fields      []schema.Field `json:"fields,omitempty"`
	Example     map[string]any `json:"example,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// MetadataProvider is implemented by blocks that describe themselves
// explicitly. Non-empty values override anything introspected.
type MetadataProvider interface {
	Metadata() Metadata
}

// Entry is a resolved registry entry.
type Entry struct {
	Key   string `json:"key"`
	Block Block  `json:"-"`
	Order int    `json:"order"`
	Group string `json:"group,omitempty"`
}

// NewEntry resolves order and group through the optional capabilities. A
// capability that panics leaves the default in place.
func NewEntry(key string, b Block) Entry {
	e := Entry{Key: key, Block: b, Order: DefaultOrder}
	if o, ok := b.(Orderer); ok {
		e.Order = orDefault(o.Order, DefaultOrder)
	}
	if g, ok := b.(Grouper); ok {
		e.Group = orDefault(g.Group, "")
	}
	return e
}

func orDefault[T any](fn func() T, def T) (v T) {
	defer func() {
		if recover() != nil {
			v = def
		}
	}()
	return fn()
}

// Definition is one row of a registration table: a stable name and a factory.
// The name is what gets cached, so it must not change between releases
// unless the cache is cleared.
type Definition struct {
	Name string
	New  func() (Block, error)
}

// Static wraps an already constructed block in a Definition.
func Static(name string, b Block) Definition {
	return Definition{Name: name, New: func() (Block, error) { return b, nil }}
}

// Probe asks a block for its key, converting a panic into ErrInvalidType.
func Probe(b Block) (key string, err error) {
	if b == nil {
		return "", fmt.Errorf("%w: nil block", ErrInvalidType)
	}

	defer func() {
		if r := recover(); r != nil {
			key = ""
			err = fmt.Errorf("%w: %T.Key panicked: %v", ErrInvalidType, b, r)
		}
	}()

	key = b.Key()
	if key == "" {
		return "", fmt.Errorf("%w: %T returned an empty key", ErrInvalidType, b)
	}
	return key, nil
}

// Func adapts plain values and functions to the Block interface. It is handy
// for host applications with small blocks and for tests.
type Func struct {
	Name      string
	Title     string
	Prototype any
	Fn        func(data map[string]any) (map[string]any, error)
}

// Key implements Block.
func (f Func) Key() string { return f.Name }

// Label implements Labeler.
func (f Func) Label() string { return f.Title }

// Schema implements Block.
func (f Func) Schema() any { return f.Prototype }

// Transform implements Block. A nil Fn returns the data unchanged.
func (f Func) Transform(data map[string]any) (map[string]any, error) {
	if f.Fn == nil {
		return data, nil
	}
	return f.Fn(data)
}
