package autosave

import (
	"errors"
	"testing"
	"time"

	"github.com/signadot/graphstore"
	"github.com/stretchr/testify/require"
)

type countingSaver struct {
	n   int
	err error
}

func (c *countingSaver) Save(root any) (*graphstore.Report, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.n++
	return &graphstore.Report{}, nil
}

func TestDebounce(t *testing.T) {
	s := &countingSaver{}
	a := New(s, map[string]any{}, 2*time.Second)
	t0 := time.Unix(1000, 0)

	rep, err := a.Tick(t0)
	require.NoError(t, err)
	require.Nil(t, rep)

	a.Touch(t0)
	require.False(t, a.Due(t0.Add(time.Second)))
	a.Touch(t0.Add(time.Second))
	rep, err = a.Tick(t0.Add(2 * time.Second))
	require.NoError(t, err)
	require.Nil(t, rep)
	require.Zero(t, s.n)

	rep, err = a.Tick(t0.Add(3 * time.Second))
	require.NoError(t, err)
	require.NotNil(t, rep)
	require.Equal(t, 1, s.n)
	require.False(t, a.Dirty())

	_, err = a.Tick(t0.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, s.n)
}

func TestFlushAndRetry(t *testing.T) {
	s := &countingSaver{err: errors.New("disk full")}
	a := New(s, map[string]any{}, time.Minute)
	now := time.Unix(0, 0)

	rep, err := a.Flush()
	require.NoError(t, err)
	require.Nil(t, rep)

	a.Touch(now)
	_, err = a.Flush()
	require.Error(t, err)
	require.True(t, a.Dirty())

	s.err = nil
	_, err = a.Tick(now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, s.n)
	require.False(t, a.Dirty())
}

func TestLocation(t *testing.T) {
	loc, err := graphstore.Open(t.TempDir())
	require.NoError(t, err)
	root := map[string]any{"n": 1}
	a := New(loc, root, 0)
	now := time.Unix(0, 0)
	a.Touch(now)
	rep, err := a.Tick(now)
	require.NoError(t, err)
	require.False(t, rep.Unchanged)

	a.Touch(now)
	rep, err = a.Flush()
	require.NoError(t, err)
	require.True(t, rep.Unchanged)

	got := map[string]any{}
	_, err = graphstore.Load(got, loc.Dir())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"n": int64(1)}, got)
}
