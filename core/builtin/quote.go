package builtin

import (
	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/core/schema"
)

// Quote is a pull quote with attribution. It describes its fields explicitly.
type Quote struct{}

func (Quote) Key() string { return "quote" }
func (Quote) Label() string { return "Quote" }
func (Quote) Order() int { return 40 }
func (Quote) Group() string { return "text" }
func (Quote) Schema() any { return nil }

func (Quote) Metadata() block.Metadata {
	return block.Metadata{
		Description: "Pull quote with optional attribution",
		Fields: []schema.Field{
			{Name: "text", Kind: schema.KindString, Required: true, Description: "Quoted text"},
			{Name: "author", Kind: schema.KindString},
			{Name: "source", Kind: schema.KindObject, Children: []schema.Field{
				{Name: "title", Kind: schema.KindString, Required: true},
				{Name: "url", Kind: schema.KindString},
			}},
		},
		Example: map[string]any{
			"text":   "Simplicity is prerequisite for reliability.",
			"author": "Edsger W. Dijkstra",
		},
	}
}

func (Quote) Transform(data map[string]any) (map[string]any, error) {
	out := map[string]any{
		"text":   str(data, "text"),
		"author": str(data, "author"),
	}
	if src, ok := data["source"].(map[string]any); ok {
		out["source"] = map[string]any{
			"title": str(src, "title"),
			"url":   str(src, "url"),
		}
	}
	return out, nil
}
