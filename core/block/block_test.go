package block_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/pageblocks/core/block"
)

type orderedBlock struct{ block.Func }

func (orderedBlock) Order() int    { return 5 }
func (orderedBlock) Group() string { return "layout" }

type panickyBlock struct{ block.Func }

func (panickyBlock) Key() string { panic("boom") }

func TestNewEntry_Defaults(t *testing.T) {
	e := block.NewEntry("text", block.Func{Name: "text"})

	assert.Equal(t, "text", e.Key)
	assert.Equal(t, block.DefaultOrder, e.Order)
	assert.Empty(t, e.Group)
}

func TestNewEntry_Capabilities(t *testing.T) {
	e := block.NewEntry("hero", orderedBlock{block.Func{Name: "hero"}})

	assert.Equal(t, 5, e.Order)
	assert.Equal(t, "layout", e.Group)
}

func TestProbe(t *testing.T) {
	key, err := block.Probe(block.Func{Name: "text"})
	require.NoError(t, err)
	assert.Equal(t, "text", key)

	_, err = block.Probe(nil)
	assert.True(t, errors.Is(err, block.ErrInvalidType))

	_, err = block.Probe(block.Func{})
	assert.True(t, errors.Is(err, block.ErrInvalidType), "empty key")

	_, err = block.Probe(panickyBlock{})
	assert.True(t, errors.Is(err, block.ErrInvalidType), "panicking key")
}

func TestStatic(t *testing.T) {
	b := block.Func{Name: "quote"}
	def := block.Static("app.quote", b)

	got, err := def.New()
	require.NoError(t, err)
	assert.Equal(t, "app.quote", def.Name)
	assert.Equal(t, "quote", got.Key())
}

func TestFunc_Transform(t *testing.T) {
	passthrough := block.Func{Name: "raw"}
	out, err := passthrough.Transform(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, out)

	upper := block.Func{Name: "x", Fn: func(data map[string]any) (map[string]any, error) {
		return map[string]any{"wrapped": data}, nil
	}}
	out, err = upper.Transform(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"wrapped": map[string]any{"a": 1}}, out)
}
