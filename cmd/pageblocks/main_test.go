package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PAGEBLOCKS_DATABASE_DSN", filepath.Join(dir, "cli.db"))
	t.Setenv("PAGEBLOCKS_LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "absent.yaml")}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), err
}

func TestBlocksList(t *testing.T) {
	out, err := run(t, "", "blocks", "list")
	require.NoError(t, err)

	for _, key := range []string{"hero", "rich_text", "gallery", "quote"} {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "KEY")
}

func TestBlocksList_JSON(t *testing.T) {
	out, err := run(t, "", "blocks", "list", "-o", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Contains(t, out, `"key": "hero"`)
}

func TestBlocksInfo(t *testing.T) {
	out, err := run(t, "", "blocks", "info", "quote")
	require.NoError(t, err)
	assert.Contains(t, out, "source.title")
	assert.Contains(t, out, "example:")

	_, err = run(t, "", "blocks", "info", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown block type")
}

func TestValidate(t *testing.T) {
	out, err := run(t, "", "validate", "quote", "--data", `{"text":"Hi"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "payload valid")

	out, err = run(t, `{"author":"Nobody"}`, "validate", "quote")
	assert.True(t, errors.Is(err, errInvalid))
	assert.Contains(t, out, "(required)")

	_, err = run(t, "", "validate", "quote", "--data", `[1,2]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")
}

func TestRender(t *testing.T) {
	out, err := run(t, `[{"type":"quote","data":{"text":" Hi "}},{"type":"ghost","data":{"x":1}}]`, "render")
	require.NoError(t, err)
	assert.Contains(t, out, `"text": "Hi"`)
	assert.Contains(t, out, `"type": "ghost"`)
}

func TestCacheClear(t *testing.T) {
	out, err := run(t, "", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "discovery cache cleared")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pageblocks dev")
}
