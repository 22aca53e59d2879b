package builtin

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// RichTextData is the stored shape of a rich text section.
type RichTextData struct {
	HTML string `json:"html" jsonschema:"description=Editor HTML"`
}

// RichText renders editor HTML. Output carries the sanitized HTML and a
// markdown rendition for plain-text consumers.
type RichText struct {
	policy *bluemonday.Policy
	md     *converter.Converter
}

// NewRichText creates the rich text block.
func NewRichText() RichText {
	return RichText{
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (RichText) Key() string { return "rich_text" }
func (RichText) Label() string { return "Rich text" }
func (RichText) Order() int { return 20 }
func (RichText) Group() string { return "text" }
func (RichText) Schema() any { return RichTextData{} }

func (r RichText) Transform(data map[string]any) (map[string]any, error) {
	clean := strings.TrimSpace(r.policy.Sanitize(str(data, "html")))
	if clean == "" {
		return map[string]any{"html": "", "markdown": ""}, nil
	}

	md, err := r.md.ConvertString(clean)
	if err != nil {
		return nil, fmt.Errorf("convert rich text to markdown: %w", err)
	}
	return map[string]any{
		"html":     clean,
		"markdown": strings.TrimSpace(md),
	}, nil
}
