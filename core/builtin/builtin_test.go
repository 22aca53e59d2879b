package builtin_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/pageblocks/core/builtin"
	"github.com/artpar/pageblocks/core/info"
	"github.com/artpar/pageblocks/core/registry"
	"github.com/artpar/pageblocks/core/schema"
	"github.com/artpar/pageblocks/core/validation"
)

type cdn struct{}

func (cdn) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return "https://cdn.test/" + ref
}

func newRegistry() *registry.Registry {
	return registry.New(registry.Options{Builtin: builtin.Definitions(cdn{})})
}

func TestDefinitions_Discovered(t *testing.T) {
	r := newRegistry()

	assert.Equal(t, []string{"gallery", "hero", "quote", "rich_text"}, r.Keys(context.Background()))

	entries := r.Entries(context.Background())
	require.Len(t, entries, 4)
	assert.Equal(t, "hero", entries[0].Key)
	assert.Equal(t, "layout", entries[0].Group)
	assert.Equal(t, "quote", entries[3].Key)
}

func TestDefinitions_NilMediaResolver(t *testing.T) {
	r := registry.New(registry.Options{Builtin: builtin.Definitions(nil)})
	b, ok := r.Get(context.Background(), "gallery")
	require.True(t, ok)

	out, err := b.Transform(map[string]any{
		"images": []any{map[string]any{"media_id": "a.jpg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", out["images"].([]any)[0].(map[string]any)["url"])
}

func TestHero_Transform(t *testing.T) {
	b, _ := newRegistry().Get(context.Background(), "hero")

	out, err := b.Transform(map[string]any{
		"title": " Welcome ",
		"image": "bg.png",
		"align": "diagonal",
		"cta":   map[string]any{"label": "Go", "url": "/start"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"title":    "Welcome",
		"subtitle": "",
		"image":    "https://cdn.test/bg.png",
		"align":    "center",
		"cta":      map[string]any{"label": "Go", "url": "/start"},
	}, out)

	out, err = b.Transform(map[string]any{"title": "x", "cta": map[string]any{"label": "no url"}})
	require.NoError(t, err)
	assert.NotContains(t, out, "cta")
	assert.Equal(t, "", out["image"])
}

func TestRichText_Transform(t *testing.T) {
	b, _ := newRegistry().Get(context.Background(), "rich_text")

	out, err := b.Transform(map[string]any{
		"html": `<p>Hello <strong>world</strong><script>alert(1)</script></p>`,
	})
	require.NoError(t, err)

	html := out["html"].(string)
	assert.NotContains(t, html, "script")
	assert.Contains(t, html, "<strong>world</strong>")
	assert.Equal(t, "Hello **world**", out["markdown"])

	out, err = b.Transform(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"html": "", "markdown": ""}, out)
}

func TestGallery_Transform(t *testing.T) {
	b, _ := newRegistry().Get(context.Background(), "gallery")

	out, err := b.Transform(map[string]any{
		"columns": float64(12),
		"images": []any{
			map[string]any{"media_id": "1.jpg", "caption": "One"},
			"junk",
			map[string]any{"caption": "no media"},
			map[string]any{"media_id": "2.jpg", "alt": "Two"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, builtin.MaxGalleryColumns, out["columns"])
	images := out["images"].([]any)
	require.Len(t, images, 2)
	assert.Equal(t, map[string]any{"url": "https://cdn.test/1.jpg", "caption": "One", "alt": ""}, images[0])
	assert.Equal(t, "https://cdn.test/2.jpg", images[1].(map[string]any)["url"])

	out, _ = b.Transform(map[string]any{})
	assert.Equal(t, builtin.DefaultGalleryColumns, out["columns"])
	assert.Empty(t, out["images"])
}

func TestQuote_Transform(t *testing.T) {
	b, _ := newRegistry().Get(context.Background(), "quote")

	out, err := b.Transform(map[string]any{
		"text":   "Less is more.",
		"source": map[string]any{"title": "Talk"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"text":   "Less is more.",
		"author": "",
		"source": map[string]any{"title": "Talk", "url": ""},
	}, out)
}

func TestBuiltinFields_Validate(t *testing.T) {
	r := newRegistry()
	ext := info.NewExtractor(zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		key     string
		payload map[string]any
		valid   bool
		code    validation.Code
	}{
		{"hero", map[string]any{"title": "Hi"}, true, ""},
		{"hero", map[string]any{}, false, validation.CodeRequired},
		{"hero", map[string]any{"title": "Hi", "cta": map[string]any{"label": "x"}}, false, validation.CodeRequired},
		{"gallery", map[string]any{"images": []any{map[string]any{"media_id": "a"}}}, true, ""},
		{"gallery", map[string]any{"images": []any{map[string]any{"caption": "a"}}}, false, validation.CodeRequired},
		{"quote", map[string]any{"text": "x", "extra": 1}, false, validation.CodeUnknownField},
		{"rich_text", map[string]any{"html": "<p>x</p>"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			b, ok := r.Get(ctx, tt.key)
			require.True(t, ok)

			res := validation.Validate(tt.payload, ext.Fields(tt.key, b), "data")
			assert.Equal(t, tt.valid, res.Valid, res.Message)
			assert.Equal(t, tt.code, res.Code)
		})
	}
}

func TestQuote_MetadataFields(t *testing.T) {
	b, _ := newRegistry().Get(context.Background(), "quote")
	d := info.NewExtractor(zerolog.Nop()).Extract("quote", b)

	assert.Equal(t, []string{"text", "author", "source"}, schema.Names(d.Fields))
	assert.True(t, strings.HasPrefix(d.Description, "Pull quote"))
	assert.NotEmpty(t, d.Example)
}
