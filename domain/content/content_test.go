package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         any
		wantVersion any
		wantLen     int
	}{
		{name: "nil", raw: nil, wantVersion: 1},
		{name: "not an object", raw: "nope", wantVersion: 1},
		{name: "empty object", raw: map[string]any{}, wantVersion: 1},
		{
			name:        "sections not a list",
			raw:         map[string]any{"sections": "x", "metadata": "y"},
			wantVersion: 1,
		},
		{
			name:        "nil metadata map",
			raw:         map[string]any{"sections": []any{}, "metadata": map[string]any(nil)},
			wantVersion: 1,
		},
		{
			name:        "zero version",
			raw:         map[string]any{"metadata": map[string]any{"schema_version": 0}},
			wantVersion: 1,
		},
		{
			name:        "fractional version",
			raw:         map[string]any{"metadata": map[string]any{"schema_version": 1.5}},
			wantVersion: 1,
		},
		{
			name: "valid document kept",
			raw: map[string]any{
				"sections": []any{map[string]any{"type": "text"}},
				"metadata": map[string]any{"schema_version": float64(3)},
			},
			wantVersion: float64(3),
			wantLen:     1,
		},
		{
			name: "typed section slice",
			raw: map[string]any{
				"sections": []map[string]any{{"type": "text"}, {"type": "hero"}},
			},
			wantVersion: 1,
			wantLen:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Normalize(tt.raw)

			sections, ok := doc[KeySections].([]any)
			require.True(t, ok, "sections must be a list")
			assert.Len(t, sections, tt.wantLen)

			meta, ok := doc[KeyMetadata].(map[string]any)
			require.True(t, ok, "metadata must be an object")
			assert.Equal(t, tt.wantVersion, meta[KeySchemaVersion])
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	meta := map[string]any{"author": "x"}
	raw := map[string]any{"metadata": meta, "title": "kept"}

	doc := Normalize(raw)

	assert.NotContains(t, meta, KeySchemaVersion)
	assert.Equal(t, "kept", doc["title"])
}

func TestDecode(t *testing.T) {
	var raw any
	require.NoError(t, json.Unmarshal([]byte(`{
		"sections": [
			{"type": "hero", "data": {"heading": "Hi"}},
			"garbage",
			{"data": {"x": 1}},
			{"type": "text", "data": "not an object"}
		],
		"metadata": {"schema_version": 2}
	}`), &raw))

	c := Decode(raw)

	require.Len(t, c.Sections, 3)
	assert.Equal(t, "hero", c.Sections[0].Type)
	assert.Equal(t, "Hi", c.Sections[0].Data["heading"])
	assert.Equal(t, "", c.Sections[1].Type)
	assert.Equal(t, map[string]any{}, c.Sections[2].Data)
	assert.Equal(t, 2, c.SchemaVersion())
}

func TestContent_Map(t *testing.T) {
	c := Content{Sections: []Section{{Type: "text"}}}

	doc := c.Map()

	sections := doc[KeySections].([]any)
	require.Len(t, sections, 1)
	assert.Equal(t, map[string]any{"type": "text", "data": map[string]any{}}, sections[0])
	assert.Equal(t, 1, doc[KeyMetadata].(map[string]any)[KeySchemaVersion])
}

func TestContent_MapDecodeRoundTrip(t *testing.T) {
	c := Content{
		Sections: []Section{
			{Type: "hero", Data: map[string]any{"heading": "A"}},
			{Type: "text", Data: map[string]any{"title": "B"}},
		},
		Metadata: map[string]any{KeySchemaVersion: 1},
	}

	assert.Equal(t, c, Decode(c.Map()))
}
