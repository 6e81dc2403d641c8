package blob

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/signadot/graphstore/array"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "extern"), 022, nil)
	require.NoError(t, err)
	return s
}

func TestPutGet(t *testing.T) {
	s := openStore(t)
	a, err := array.FromSlice(array.Shape{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	s.Begin()
	id, err := s.Put(a)
	require.NoError(t, err)
	require.Equal(t, "a0", id)
	require.True(t, s.Marked(id))
	require.True(t, s.Owns(a))
	require.Equal(t, id, a.Binding().ID)
	require.FileExists(t, filepath.Join(s.Root(), "a0.blob"))

	b, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, array.Float32, b.DType())
	require.Equal(t, []int{2, 2}, []int(b.Shape()))
	require.Equal(t, []float32{1, 2, 3, 4}, array.Data[float32](b))

	// writes through the bound array reach the entry
	array.Data[float32](a)[3] = 40
	c, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, float32(40), array.Data[float32](c)[3])
}

func TestTouchRefreshesChecksum(t *testing.T) {
	s := openStore(t)
	a, _ := array.FromSlice(nil, []int64{1, 2, 3})
	id, err := s.Put(a)
	require.NoError(t, err)
	require.NoError(t, s.Verify(id))

	array.Data[int64](a)[0] = 100
	err = s.Verify(id)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, id, fe.ID)

	s.Begin()
	got, err := s.Touch(a)
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.True(t, s.Marked(id))
	require.NoError(t, s.Verify(id))
}

func TestTouchForeign(t *testing.T) {
	s := openStore(t)
	other := openStore(t)
	a, _ := array.FromSlice(nil, []uint8{1})
	_, err := s.Touch(a)
	require.ErrorIs(t, err, ErrForeignArray)
	_, err = other.Put(a)
	require.NoError(t, err)
	require.False(t, s.Owns(a))
	again, err := Open(other.Root(), 0, nil)
	require.NoError(t, err)
	require.True(t, again.Owns(a))
	_, err = s.Touch(a)
	require.ErrorIs(t, err, ErrForeignArray)
}

func TestTouchCollected(t *testing.T) {
	s := openStore(t)
	a, _ := array.FromSlice(nil, []float32{1, 2})
	id, err := s.Put(a)
	require.NoError(t, err)
	s.Begin()
	_, err = s.CollectGarbage()
	require.NoError(t, err)

	_, err = s.Touch(a)
	require.ErrorIs(t, err, ErrMissingBlob)
	// the mapping outlives the entry, so the content can be stored again
	nid, err := s.Put(a)
	require.NoError(t, err)
	require.NotEqual(t, id, nid)
	require.Equal(t, []float32{1, 2}, array.Data[float32](a))
}

func TestCollectGarbage(t *testing.T) {
	s := openStore(t)
	var ids []string
	for i := range 3 {
		a, _ := array.FromSlice(nil, []float64{float64(i)})
		id, err := s.Put(a)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	foreign := filepath.Join(s.Root(), "notes.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0644))
	stale := filepath.Join(s.Root(), ".leftover.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))

	s.Begin()
	s.Mark(ids[1])
	removed, err := s.CollectGarbage()
	require.NoError(t, err)
	require.Equal(t, []string{ids[0], ids[2]}, removed)
	require.FileExists(t, foreign)
	require.NoFileExists(t, stale)

	left, err := s.IDs()
	require.NoError(t, err)
	require.Equal(t, []string{ids[1]}, left)

	removed, err = s.CollectGarbage()
	require.NoError(t, err)
	require.Empty(t, removed)
}

func TestCounterReseed(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "extern")
	s, err := Open(dir, 0, nil)
	require.NoError(t, err)
	for range 2 {
		a, _ := array.FromSlice(nil, []int32{7})
		_, err := s.Put(a)
		require.NoError(t, err)
	}

	s, err = Open(dir, 0, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), s.Counter())
	s.SetCounter(1)
	require.Equal(t, int64(2), s.Counter())
	s.SetCounter(10)
	a, _ := array.FromSlice(nil, []int32{7})
	id, err := s.Put(a)
	require.NoError(t, err)
	require.Equal(t, "aa", id)
}

func TestGetErrors(t *testing.T) {
	s := openStore(t)
	_, err := s.Get("a3")
	require.ErrorIs(t, err, ErrMissingBlob)
	_, err = s.Get("../x")
	require.ErrorIs(t, err, ErrMissingBlob)

	bad := make([]byte, 128)
	copy(bad, "NOPE")
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "a5.blob"), bad, 0644))
	_, err = s.Get("a5")
	require.ErrorIs(t, err, ErrInvalidMagic)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
}

func TestEmptyAndScalarEntries(t *testing.T) {
	s := openStore(t)
	empty, err := array.New(array.Int16, array.Shape{0, 3})
	require.NoError(t, err)
	scalar, err := array.FromSlice(array.Shape{}, []float64{2.5})
	require.NoError(t, err)

	eid, err := s.Put(empty)
	require.NoError(t, err)
	sid, err := s.Put(scalar)
	require.NoError(t, err)

	e, err := s.Get(eid)
	require.NoError(t, err)
	require.Equal(t, 0, e.Len())
	require.Equal(t, []int{0, 3}, []int(e.Shape()))

	sc, err := s.Get(sid)
	require.NoError(t, err)
	require.Empty(t, sc.Shape())
	require.Equal(t, 2.5, sc.Value(0))
}

func TestList(t *testing.T) {
	s := openStore(t)
	a, _ := array.FromSlice(array.Shape{3, 2}, []uint16{1, 2, 3, 4, 5, 6})
	_, err := s.Put(a)
	require.NoError(t, err)

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	info := infos[0]
	require.Equal(t, "a0", info.ID)
	require.Equal(t, array.Uint16, info.DType)
	require.Equal(t, []int{3, 2}, []int(info.Shape))
	require.Equal(t, int64(12), info.Data)
	require.Equal(t, align(info.Size-info.Data), info.Size-info.Data)
}
