// Package info builds read-only descriptors of block types for listing,
// documentation and agent introspection.
package info

import (
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"

	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/core/schema"
)

// Descriptor describes one block type.
type Descriptor struct {
	Key         string             `json:"key"`
	Description string             `json:"description"`
	Fields      []schema.Field     `json:"fields"`
	Order       int                `json:"order"`
	Group       string             `json:"group,omitempty"`
	Example     map[string]any     `json:"example,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	Schema      *jsonschema.Schema `json:"schema,omitempty"`
}

// Extractor derives descriptors and field lists. Field lists are memoized per
// key, so validation and listing share one derivation. Call Sync with the
// registry generation (or Reset) after the set of registered blocks changes.
type Extractor struct {
	mu     sync.RWMutex
	fields map[string][]schema.Field
	gen    uint64
	logger zerolog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{
		fields: make(map[string][]schema.Field),
		logger: logger,
	}
}

// Extract builds the descriptor for b registered under key.
func (e *Extractor) Extract(key string, b block.Block) Descriptor {
	entry := block.NewEntry(key, b)
	d := Descriptor{
		Key:         key,
		Description: key,
		Order:       entry.Order,
		Group:       entry.Group,
	}
	if label := e.label(key, b); label != "" {
		d.Description = label
	}

	if md, ok := e.metadata(key, b); ok {
		if md.Description != "" {
			d.Description = md.Description
		}
		d.Example = md.Example
		d.Metadata = md.Extra
	}

	d.Fields = e.Fields(key, b)
	d.Schema = schema.ToJSONSchema(d.Fields)
	return d
}

// Fields returns the field list of b: explicit metadata fields when the block
// provides them, otherwise the introspected data prototype. Introspection
// failures yield an empty list.
func (e *Extractor) Fields(key string, b block.Block) []schema.Field {
	e.mu.RLock()
	fields, ok := e.fields[key]
	e.mu.RUnlock()
	if ok {
		return fields
	}

	fields = e.derive(key, b)

	e.mu.Lock()
	e.fields[key] = fields
	e.mu.Unlock()
	return fields
}

// Reset drops every memoized field list.
func (e *Extractor) Reset() {
	e.mu.Lock()
	e.fields = make(map[string][]schema.Field)
	e.mu.Unlock()
}

// Sync drops the memoized field lists when gen differs from the generation
// seen last.
func (e *Extractor) Sync(gen uint64) {
	e.mu.RLock()
	same := e.gen == gen
	e.mu.RUnlock()
	if same {
		return
	}

	e.mu.Lock()
	if e.gen != gen {
		e.fields = make(map[string][]schema.Field)
		e.gen = gen
	}
	e.mu.Unlock()
}

func (e *Extractor) derive(key string, b block.Block) []schema.Field {
	if md, ok := e.metadata(key, b); ok && len(md.Fields) > 0 {
		return md.Fields
	}

	proto, err := prototype(b)
	if err == nil {
		var fields []schema.Field
		fields, err = schema.FromPrototype(proto)
		if err == nil && fields != nil {
			return fields
		}
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("field introspection failed")
	}
	return []schema.Field{}
}

func (e *Extractor) label(key string, b block.Block) (label string) {
	l, ok := b.(block.Labeler)
	if !ok {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Str("key", key).Interface("panic", r).Msg("block label panicked")
			label = ""
		}
	}()
	return l.Label()
}

func (e *Extractor) metadata(key string, b block.Block) (md block.Metadata, ok bool) {
	mp, ok := b.(block.MetadataProvider)
	if !ok {
		return block.Metadata{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Str("key", key).Interface("panic", r).Msg("block metadata panicked")
			md, ok = block.Metadata{}, false
		}
	}()
	return mp.Metadata(), true
}

func prototype(b block.Block) (proto any, err error) {
	defer func() {
		if r := recover(); r != nil {
			proto, err = nil, fmt.Errorf("%T.Schema panicked: %v", b, r)
		}
	}()
	return b.Schema(), nil
}
