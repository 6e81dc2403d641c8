package main

import (
	"bytes"
	"testing"

	"github.com/signadot/graphstore/ir"
	"github.com/stretchr/testify/require"
)

func TestPlain(t *testing.T) {
	y, err := ir.Unmarshal([]byte(`{
  "name": "s",
  "n": 2,
  "img": {"__class__": "__extern__", "path": "a3"},
  "xs": [1.5, null, true],
  "__class__": "app.Scene"
}`))
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"name":      "s",
		"n":         int64(2),
		"img":       map[string]any{"__extern__": "a3"},
		"xs":        []any{1.5, nil, true},
		ir.ClassKey: "app.Scene",
	}, plain(y))
}

func TestLineDiff(t *testing.T) {
	var buf bytes.Buffer
	differs, err := lineDiff(&buf, "a\nb\nc\n", "a\nx\nc\n", false)
	require.NoError(t, err)
	require.True(t, differs)
	require.Equal(t, "  a\n- b\n+ x\n  c\n", buf.String())

	buf.Reset()
	differs, err = lineDiff(&buf, "a\n", "a\n", false)
	require.NoError(t, err)
	require.False(t, differs)
	require.Empty(t, buf.String())
}

func TestMergePatch(t *testing.T) {
	var buf bytes.Buffer
	differs, err := mergePatch(&buf, []byte(`{"a":1,"b":2}`), []byte(`{"a":1,"b":3}`))
	require.NoError(t, err)
	require.True(t, differs)
	require.JSONEq(t, `{"b":3}`, buf.String())

	buf.Reset()
	differs, err = mergePatch(&buf, []byte(`{"a":1}`), []byte(`{"a":1}`))
	require.NoError(t, err)
	require.False(t, differs)
}
