package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMerge(t *testing.T) {
	base := map[string]any{
		"title": "Old",
		"meta":  map[string]any{"count": 1, "tag": "a"},
		"items": []any{"x", "y"},
	}
	patch := map[string]any{
		"title": "New",
		"meta":  map[string]any{"count": 2},
		"items": []any{"z"},
	}

	got := DeepMerge(base, patch)

	assert.Equal(t, map[string]any{
		"title": "New",
		"meta":  map[string]any{"count": 2, "tag": "a"},
		"items": []any{"z"},
	}, got)

	// Inputs untouched.
	assert.Equal(t, "Old", base["title"])
	assert.Equal(t, 1, base["meta"].(map[string]any)["count"])
	assert.Equal(t, []any{"x", "y"}, base["items"])
}

func TestDeepMerge_MapReplacesScalar(t *testing.T) {
	got := DeepMerge(
		map[string]any{"meta": "flat"},
		map[string]any{"meta": map[string]any{"count": 1}},
	)
	assert.Equal(t, map[string]any{"meta": map[string]any{"count": 1}}, got)
}

func TestDeepMerge_EmptyPatchIsIdentity(t *testing.T) {
	base := map[string]any{"title": "x", "meta": map[string]any{"count": 1}}

	assert.Equal(t, base, DeepMerge(base, map[string]any{}))
	assert.Equal(t, base, DeepMerge(base, nil))
}

func TestDeepMerge_NilBase(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1}, DeepMerge(nil, map[string]any{"a": 1}))
}

func TestClone_Independent(t *testing.T) {
	orig := map[string]any{"list": []any{map[string]any{"a": 1}}}

	cp := CloneData(orig)
	cp["list"].([]any)[0].(map[string]any)["a"] = 2

	assert.Equal(t, 1, orig["list"].([]any)[0].(map[string]any)["a"])
}
