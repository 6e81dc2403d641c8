package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/signadot/graphstore"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, c *Config) *graphstore.Options {
	t.Helper()
	opts, err := c.Options()
	require.NoError(t, err)
	o := &graphstore.Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
threshold: 1000
private_prefix: "tmp_"
hide_private: false
cast: none
load_gc: false
umask: "027"
`))
	require.NoError(t, err)
	o := apply(t, c)
	require.Equal(t, 1000, o.Threshold)
	require.Equal(t, "tmp_", o.PrivatePrefix)
	require.False(t, o.HidePrivate)
	require.Equal(t, graphstore.CastNone, o.Cast)
	require.False(t, o.LoadGC)
	require.Equal(t, 027, o.Umask)
}

func TestPartial(t *testing.T) {
	c, err := Parse([]byte("hide_private: true\n"))
	require.NoError(t, err)
	opts, err := c.Options()
	require.NoError(t, err)
	require.Len(t, opts, 1)

	c, err = Parse(nil)
	require.NoError(t, err)
	opts, err = c.Options()
	require.NoError(t, err)
	require.Empty(t, opts)
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"threshold: -1\n",
		"cast: sometimes\n",
		"umask: \"9\"\n",
		"umask: \"1777\"\n",
		"thresold: 3\n",
		"threshold: [1]\n",
	} {
		_, err := Parse([]byte(in))
		require.Error(t, err, "input %q", in)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: 5\n"), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, *c.Threshold)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
