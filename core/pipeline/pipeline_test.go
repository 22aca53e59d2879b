package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/core/pipeline"
	"github.com/artpar/pageblocks/core/registry"
	"github.com/artpar/pageblocks/domain/content"
)

type textData struct {
	Title string `json:"title" jsonschema:"required"`
	Body  string `json:"body,omitempty"`
}

func textBlock() block.Func {
	return block.Func{
		Name:      "text",
		Prototype: textData{},
		Fn: func(data map[string]any) (map[string]any, error) {
			title, _ := data["title"].(string)
			body, _ := data["body"].(string)
			return map[string]any{"type": "text", "title": title, "body": body}, nil
		},
	}
}

func newRegistry(t *testing.T, blocks ...block.Block) *registry.Registry {
	t.Helper()
	r := registry.New(registry.Options{})
	for _, b := range blocks {
		require.NoError(t, r.Register(b.Key(), b))
	}
	return r
}

func TestTransform_EndToEnd(t *testing.T) {
	p := pipeline.New(newRegistry(t, textBlock()))

	out := p.TransformRaw(context.Background(), []any{
		map[string]any{"type": "text", "data": map[string]any{"title": "Hi"}},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "text", out[0].Type)
	assert.Equal(t, map[string]any{"type": "text", "title": "Hi", "body": ""}, out[0].Data)
}

func TestTransform_Empty(t *testing.T) {
	p := pipeline.New(newRegistry(t))

	assert.Empty(t, p.Transform(context.Background(), nil))
	assert.NotNil(t, p.Transform(context.Background(), []content.Section{}))
	assert.Empty(t, p.TransformRaw(context.Background(), []any{}))
}

func TestTransformRaw_Malformed(t *testing.T) {
	p := pipeline.New(newRegistry(t, textBlock()))
	ctx := context.Background()

	for _, raw := range []any{nil, "sections", 42, map[string]any{"type": "text"}} {
		out := p.TransformRaw(ctx, raw)
		assert.NotNil(t, out)
		assert.Empty(t, out, "input %#v", raw)
	}
}

func TestTransformRaw_SkipsBadEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	p := pipeline.New(newRegistry(t, textBlock()), pipeline.WithLogger(logger))

	out := p.TransformRaw(context.Background(), []any{
		"not an object",
		map[string]any{"data": map[string]any{"title": "no type"}},
		map[string]any{"type": 7},
		map[string]any{"type": "", "data": map[string]any{"x": 1}},
		map[string]any{"type": "text", "data": map[string]any{"title": "kept"}},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Data["title"])
	assert.Contains(t, buf.String(), "skipping section without a type")
}

func TestTransform_MissingTypeSkipped(t *testing.T) {
	p := pipeline.New(newRegistry(t, textBlock()))

	out := p.Transform(context.Background(), []content.Section{
		{Type: "", Data: map[string]any{"title": "x"}},
		{Type: "text", Data: map[string]any{"title": "y"}},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "y", out[0].Data["title"])
}

func TestTransform_FailureFallsBackToRawData(t *testing.T) {
	tests := []struct {
		name string
		fn   func(map[string]any) (map[string]any, error)
	}{
		{"error", func(map[string]any) (map[string]any, error) { return nil, errors.New("bad data") }},
		{"panic", func(map[string]any) (map[string]any, error) { panic("bug") }},
		{"mutates then fails", func(d map[string]any) (map[string]any, error) {
			d["title"] = "mutated"
			return nil, errors.New("bad data")
		}},
		{"infinite number", func(map[string]any) (map[string]any, error) {
			return map[string]any{"v": math.Inf(1)}, nil
		}},
		{"func value", func(map[string]any) (map[string]any, error) {
			return map[string]any{"cb": func() {}}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			broken := block.Func{Name: "broken", Fn: tt.fn}
			p := pipeline.New(newRegistry(t, broken), pipeline.WithLogger(zerolog.New(&buf)))

			raw := map[string]any{"title": "original"}
			out := p.Transform(context.Background(), []content.Section{{Type: "broken", Data: raw}})

			require.Len(t, out, 1)
			assert.Equal(t, map[string]any{"title": "original"}, out[0].Data)
			assert.Contains(t, buf.String(), `"type":"broken"`)
			assert.Contains(t, buf.String(), `"index":0`)
		})
	}
}

func TestTransform_UnencodableOutputIsIsolated(t *testing.T) {
	bad := block.Func{Name: "bad", Fn: func(map[string]any) (map[string]any, error) {
		return map[string]any{"v": math.NaN()}, nil
	}}
	p := pipeline.New(newRegistry(t, textBlock(), bad))

	out := p.Transform(context.Background(), []content.Section{
		{Type: "text", Data: map[string]any{"title": "Hi"}},
		{Type: "bad", Data: map[string]any{"v": 1}},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "Hi", out[0].Data["title"])
	assert.Equal(t, map[string]any{"v": 1}, out[1].Data)

	_, err := json.Marshal(out)
	assert.NoError(t, err)
}

func TestTransform_UnknownTypePolicy(t *testing.T) {
	p := pipeline.New(newRegistry(t, textBlock()))
	ctx := context.Background()
	sections := []content.Section{
		{Type: "legacy", Data: map[string]any{"x": 1}},
		{Type: "text", Data: map[string]any{"title": "t"}},
	}

	out := p.Transform(ctx, sections)
	require.Len(t, out, 2)
	assert.Equal(t, "legacy", out[0].Type)
	assert.Equal(t, map[string]any{"x": 1}, out[0].Data)

	p.SetFilterMissing(true)
	assert.True(t, p.FilterMissing())

	out = p.Transform(ctx, sections)
	require.Len(t, out, 1)
	assert.Equal(t, "text", out[0].Type)
}

func TestTransform_DisabledTypeIsUnknown(t *testing.T) {
	r := registry.New(registry.Options{
		Builtin:  []block.Definition{block.Static("text", textBlock())},
		Disabled: []string{"text"},
	})
	p := pipeline.New(r, pipeline.WithFilterMissing(true))

	out := p.Transform(context.Background(), []content.Section{{Type: "text", Data: map[string]any{"title": "t"}}})
	assert.Empty(t, out)
}

func TestTransform_PreservesOrder(t *testing.T) {
	upper := block.Func{Name: "upper", Fn: func(d map[string]any) (map[string]any, error) {
		return map[string]any{"n": d["n"], "via": "upper"}, nil
	}}
	failing := block.Func{Name: "failing", Fn: func(map[string]any) (map[string]any, error) {
		return nil, errors.New("nope")
	}}
	p := pipeline.New(newRegistry(t, upper, failing, textBlock()))

	types := []string{"upper", "unknown", "failing", "text", "upper", "failing", "unknown"}
	in := make([]content.Section, len(types))
	for i, typ := range types {
		in[i] = content.Section{Type: typ, Data: map[string]any{"n": i}}
	}

	out := p.Transform(context.Background(), in)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Type, out[i].Type, "position %d", i)
	}
	assert.Equal(t, 4, out[4].Data["n"])
	assert.Equal(t, 5, out[5].Data["n"])
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	mutating := block.Func{Name: "m", Fn: func(d map[string]any) (map[string]any, error) {
		d["added"] = true
		nested := d["nested"].(map[string]any)
		nested["changed"] = true
		return d, nil
	}}
	p := pipeline.New(newRegistry(t, mutating))

	raw := map[string]any{"nested": map[string]any{}}
	out := p.Transform(context.Background(), []content.Section{{Type: "m", Data: raw}})

	require.Len(t, out, 1)
	assert.Equal(t, true, out[0].Data["added"])
	assert.Equal(t, map[string]any{"nested": map[string]any{}}, raw)
}
