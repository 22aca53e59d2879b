// Package builtin provides the block types shipped with pageblocks.
package builtin

import (
	"strings"

	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/ports"
)

// Definition names. They are stored in the discovery cache, so renaming one
// requires a cache clear.
const (
	DefHero     = "builtin.hero"
	DefRichText = "builtin.rich_text"
	DefGallery  = "builtin.gallery"
	DefQuote    = "builtin.quote"
)

// Definitions returns the built-in registration table. A nil media resolver
// leaves media references as they are stored.
func Definitions(media ports.MediaResolver) []block.Definition {
	if media == nil {
		media = passthroughMedia{}
	}
	return []block.Definition{
		{Name: DefHero, New: func() (block.Block, error) { return Hero{media: media}, nil }},
		{Name: DefRichText, New: func() (block.Block, error) { return NewRichText(), nil }},
		{Name: DefGallery, New: func() (block.Block, error) { return Gallery{media: media}, nil }},
		{Name: DefQuote, New: func() (block.Block, error) { return Quote{}, nil }},
	}
}

type passthroughMedia struct{}

func (passthroughMedia) URL(ref string) string { return ref }

func str(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

func integer(data map[string]any, key string) (int, bool) {
	switch n := data[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
