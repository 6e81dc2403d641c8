package graphstore

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/signadot/graphstore/array"
	"github.com/signadot/graphstore/blob"
	"github.com/signadot/graphstore/ir"
	"github.com/signadot/graphstore/registry"
)

type point struct {
	X, Y float64
}

type layer struct {
	Name    string
	Visible bool
	Opacity float64
	Count   int
	Origin  *point
	Image   *array.Dense
	Tags    []string
	Cache   map[string]any `graph:"_cache"`
	OnDraw  func()
}

type scene struct {
	Title  string
	Layers []*layer
	Extra  any
	Meta   map[string]any
	Small  *array.Dense
	Big    *array.Dense
}

type widget struct {
	Label string
}

func ramp(n int) *array.Dense {
	vs := make([]float32, n)
	for i := range vs {
		vs[i] = float32(i) / 2
	}
	a, err := array.FromSlice(nil, vs)
	if err != nil {
		panic(err)
	}
	return a
}

func check(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func readRoot(t *testing.T, dir string) *ir.Node {
	t.Helper()
	return mustSnapshot(t, dir).Root
}

func mustSnapshot(t *testing.T, dir string) *Snapshot {
	t.Helper()
	s, err := ReadSnapshot(dir)
	check(t, err)
	return s
}

func collect(ws *[]*Warning) Option {
	return WithOnWarning(func(w *Warning) { *ws = append(*ws, w) })
}

func noWarnings(t *testing.T, rep *Report) {
	t.Helper()
	for _, w := range rep.Warnings {
		t.Errorf("unexpected warning: %v", w)
	}
}

// oneWarning checks that rep holds a single warning matching target at
// path. An empty path is not checked.
func oneWarning(t *testing.T, rep *Report, target error, path string) {
	t.Helper()
	if len(rep.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(rep.Warnings), rep.Warnings)
	}
	w := rep.Warnings[0]
	if !errors.Is(w, target) {
		t.Errorf("warning %v is not %v", w, target)
	}
	if path != "" && w.Path != path {
		t.Errorf("warning at %s, want %s", w.Path, path)
	}
}

func blobBacked(a *array.Dense) bool {
	return a.Binding() != nil
}

func checkArray[T array.Elem](t *testing.T, name string, a *array.Dense, shape []int, want []T) {
	t.Helper()
	if a == nil {
		t.Fatalf("%s: nil array", name)
	}
	if dt := array.DTypeOf[T](); a.DType() != dt {
		t.Fatalf("%s: dtype %s, want %s", name, a.DType(), dt)
	}
	if diff := cmp.Diff(shape, []int(a.Shape()), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("%s shape (-want +got):\n%s", name, diff)
	}
	if diff := cmp.Diff(want, array.Data[T](a)); diff != "" {
		t.Errorf("%s data (-want +got):\n%s", name, diff)
	}
}

func TestRoundTripInline(t *testing.T) {
	dir := t.TempDir()
	small, _ := array.FromSlice(array.Shape{2, 3}, []int16{1, -2, 3, -4, 5, -6})
	src := &scene{
		Title: "demo",
		Layers: []*layer{
			{Name: "bg", Visible: true, Opacity: 0.5, Count: 3, Origin: &point{X: 1, Y: -2.25}, Tags: []string{"a", "b"}},
			{Name: "fg", Opacity: 1},
		},
		Meta:  map[string]any{"k": 1, "n": []any{"a", 2.5, nil, true}},
		Small: small,
	}
	rep, err := Save(src, dir)
	check(t, err)
	noWarnings(t, rep)
	if rep.Written != 0 {
		t.Errorf("wrote %d blobs, want none", rep.Written)
	}

	dst := &scene{}
	rep, err = Load(dst, dir)
	check(t, err)
	noWarnings(t, rep)

	if dst.Title != "demo" {
		t.Errorf("Title = %q", dst.Title)
	}
	want := []*layer{
		{Name: "bg", Visible: true, Opacity: 0.5, Count: 3, Origin: &point{X: 1, Y: -2.25}, Tags: []string{"a", "b"}},
		{Name: "fg", Opacity: 1},
	}
	if diff := cmp.Diff(want, dst.Layers, cmpopts.IgnoreFields(layer{}, "Image", "OnDraw")); diff != "" {
		t.Errorf("layers (-want +got):\n%s", diff)
	}
	wantMeta := map[string]any{"k": int64(1), "n": []any{"a", 2.5, nil, true}}
	if diff := cmp.Diff(wantMeta, dst.Meta); diff != "" {
		t.Errorf("meta (-want +got):\n%s", diff)
	}
	checkArray(t, "Small", dst.Small, []int{2, 3}, []int16{1, -2, 3, -4, 5, -6})
}

func TestMergePreservesIdentity(t *testing.T) {
	dir := t.TempDir()
	origin := &point{X: 4}
	l0 := &layer{Name: "a", Origin: origin}
	small := ramp(10)
	a := &scene{Layers: []*layer{l0}, Small: small, Big: ramp(200)}
	_, err := Save(a, dir)
	check(t, err)
	big := a.Big

	origin.X = 100
	rep, err := Load(a, dir)
	check(t, err)
	noWarnings(t, rep)
	if a.Layers[0] != l0 {
		t.Error("layer replaced")
	}
	if a.Layers[0].Origin != origin {
		t.Error("origin replaced")
	}
	if origin.X != 4 {
		t.Errorf("origin.X = %v, want 4", origin.X)
	}
	if a.Small != small {
		t.Error("inline array replaced")
	}
	if a.Big != big {
		t.Error("blob backed array replaced")
	}
	if rep.Reused != 1 {
		t.Errorf("reused %d blobs, want 1", rep.Reused)
	}
}

func TestSchemaDrift(t *testing.T) {
	type v1 struct {
		P int
		Q string
	}
	type v2 struct {
		P int
		R string
	}
	dir := t.TempDir()
	_, err := Save(&v1{P: 3, Q: "q"}, dir)
	check(t, err)

	live := &v2{R: "default"}
	rep, err := Load(live, dir)
	check(t, err)
	noWarnings(t, rep)
	if diff := cmp.Diff(v2{P: 3, R: "default"}, *live); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestArrayThreshold(t *testing.T) {
	dir := t.TempDir()
	square, _ := array.FromSlice(array.Shape{11, 11}, make([]uint8, 121))
	array.Data[uint8](square)[120] = 7
	src := &scene{Small: ramp(DefaultThreshold), Big: ramp(DefaultThreshold + 1), Extra: square}
	rep, err := Save(src, dir)
	check(t, err)
	if rep.Written != 2 {
		t.Errorf("wrote %d blobs, want 2", rep.Written)
	}
	if !blobBacked(src.Big) || blobBacked(src.Small) {
		t.Errorf("bindings: Big %v, Small %v", src.Big.Binding(), src.Small.Binding())
	}

	root := readRoot(t, dir)
	for field, want := range map[string]ir.Type{
		"Small": ir.InlineArrayType,
		"Big":   ir.ExternType,
		"Extra": ir.ExternType,
	} {
		if got := ir.Get(root, field).Type; got != want {
			t.Errorf("%s stored as %s, want %s", field, got, want)
		}
	}

	dst := &scene{}
	_, err = Load(dst, dir)
	check(t, err)
	checkArray(t, "Small", dst.Small, []int{DefaultThreshold}, array.Data[float32](src.Small))
	checkArray(t, "Big", dst.Big, []int{DefaultThreshold + 1}, array.Data[float32](src.Big))
	sq, ok := dst.Extra.(*array.Dense)
	if !ok {
		t.Fatalf("Extra loaded as %T", dst.Extra)
	}
	checkArray(t, "Extra", sq, []int{11, 11}, array.Data[uint8](square))
}

func TestGCSafety(t *testing.T) {
	dir := t.TempDir()
	loc, err := Open(dir)
	check(t, err)
	g := &scene{Big: ramp(150), Extra: ramp(300)}
	_, err = loc.Save(g)
	check(t, err)
	b1 := g.Big.Binding().ID
	b2 := g.Extra.(*array.Dense).Binding().ID

	g.Extra = nil
	rep, err := loc.Save(g)
	check(t, err)
	if diff := cmp.Diff([]string{b2}, rep.Collected); diff != "" {
		t.Errorf("collected (-want +got):\n%s", diff)
	}

	if _, err := loc.Store().Get(b1); err != nil {
		t.Errorf("reachable blob %s: %v", b1, err)
	}
	if _, err := loc.Store().Get(b2); !errors.Is(err, blob.ErrMissingBlob) {
		t.Errorf("dropped blob %s: got %v, want ErrMissingBlob", b2, err)
	}

	// collecting again leaves reachable entries alone
	removed, err := loc.Store().CollectGarbage()
	check(t, err)
	if len(removed) != 0 {
		t.Errorf("second collection removed %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, ExternDir, b1+".blob")); err != nil {
		t.Error(err)
	}
}

func TestBlobIDsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	first := &scene{Big: ramp(150), Extra: ramp(150)}
	_, err := Save(first, dir)
	check(t, err)
	used := map[string]bool{
		first.Big.Binding().ID:                  true,
		first.Extra.(*array.Dense).Binding().ID: true,
	}
	if n := mustSnapshot(t, dir).Counter; n != 2 {
		t.Errorf("counter = %d, want 2", n)
	}

	// drop every blob, so only the persisted counter remembers them
	_, err = Save(&scene{Title: "empty"}, dir)
	check(t, err)
	ents, err := os.ReadDir(filepath.Join(dir, ExternDir))
	check(t, err)
	if len(ents) != 0 {
		t.Fatalf("blob dir not empty: %v", ents)
	}

	loc, err := Open(dir)
	check(t, err)
	fresh := &scene{}
	_, err = loc.Load(fresh)
	check(t, err)
	fresh.Big = ramp(150)
	_, err = loc.Save(fresh)
	check(t, err)
	id := fresh.Big.Binding().ID
	if used[id] {
		t.Errorf("id %s reused", id)
	}
	n, err := blob.ParseID(id)
	check(t, err)
	if n < 2 {
		t.Errorf("id %s encodes %d, want at least 2", id, n)
	}
}

func TestUnresolvableType(t *testing.T) {
	dir := t.TempDir()
	src := &scene{
		Title:  "kept",
		Extra:  &widget{Label: "w"},
		Layers: []*layer{{Name: "l"}},
	}
	_, err := Save(src, dir)
	check(t, err)

	var ws []*Warning
	dst := &scene{}
	rep, err := Load(dst, dir, collect(&ws))
	check(t, err)
	if dst.Title != "kept" || len(dst.Layers) != 1 {
		t.Errorf("rest of the graph not merged: %+v", dst)
	}
	if dst.Extra != nil {
		t.Errorf("Extra = %v, want nil", dst.Extra)
	}
	oneWarning(t, rep, ErrUnresolvableType, "$.Extra")
	if len(ws) != 1 || ws[0] != rep.Warnings[0] {
		t.Errorf("callback got %v", ws)
	}

	reg := registry.New()
	check(t, registry.RegisterType[widget](reg))
	dst = &scene{}
	rep, err = Load(dst, dir, WithRegistry(reg))
	check(t, err)
	noWarnings(t, rep)
	if diff := cmp.Diff(&widget{Label: "w"}, dst.Extra); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestPrivateAndCallable(t *testing.T) {
	dir := t.TempDir()
	src := &scene{Layers: []*layer{{
		Name:   "x",
		Cache:  map[string]any{"tmp": 1},
		OnDraw: func() {},
	}}}
	_, err := Save(src, dir)
	check(t, err)
	l0 := ir.Get(readRoot(t, dir), "Layers").Values[0]
	if ir.Get(l0, "_cache") != nil || ir.Get(l0, "OnDraw") != nil {
		t.Errorf("private or callable field stored: %v", l0.Fields)
	}
	if ir.Get(l0, "Name") == nil {
		t.Error("Name not stored")
	}

	_, err = Save(src, dir, WithHidePrivate(false))
	check(t, err)
	l0 = ir.Get(readRoot(t, dir), "Layers").Values[0]
	if ir.Get(l0, "_cache") == nil {
		t.Error("_cache not stored with private fields shown")
	}
}

func TestMissingBlob(t *testing.T) {
	dir := t.TempDir()
	src := &scene{Title: "t", Big: ramp(500)}
	_, err := Save(src, dir)
	check(t, err)
	id := src.Big.Binding().ID
	check(t, os.Remove(filepath.Join(dir, ExternDir, id+".blob")))

	dst := &scene{}
	rep, err := Load(dst, dir)
	check(t, err)
	if dst.Big != nil {
		t.Errorf("Big = %v, want nil", dst.Big)
	}
	if dst.Title != "t" {
		t.Errorf("Title = %q", dst.Title)
	}
	oneWarning(t, rep, ErrMissingBlob, "$.Big")
}

func TestCastPolicy(t *testing.T) {
	type stored struct {
		Count any
		Ratio any
		Name  any
		Flag  any
	}
	type wanted struct {
		Count int
		Ratio float32
		Name  string
		Flag  bool
	}
	dir := t.TempDir()
	_, err := Save(&stored{Count: "7", Ratio: 2, Name: 1.5, Flag: "x"}, dir)
	check(t, err)

	w := &wanted{Count: 1, Ratio: 0.25, Name: "n", Flag: true}
	rep, err := Load(w, dir)
	check(t, err)
	if diff := cmp.Diff(wanted{Count: 7, Ratio: 2, Name: "1.5", Flag: true}, *w); diff != "" {
		t.Errorf("safe casts (-want +got):\n%s", diff)
	}
	oneWarning(t, rep, ErrIncompatibleMerge, "$.Flag")

	w = &wanted{Count: 1, Ratio: 0.25, Name: "n", Flag: true}
	rep, err = Load(w, dir, WithCastPolicy(CastNone))
	check(t, err)
	if diff := cmp.Diff(wanted{Count: 1, Ratio: 0.25, Name: "n", Flag: true}, *w); diff != "" {
		t.Errorf("no casts (-want +got):\n%s", diff)
	}
	if len(rep.Warnings) != 4 {
		t.Errorf("got %d warnings, want 4", len(rep.Warnings))
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		cur    any
		val    *ir.Node
		policy CastPolicy
		want   any
		err    bool
	}{
		{int8(0), ir.FromInt(127), CastNone, int8(127), false},
		{int8(0), ir.FromInt(128), CastSafe, nil, true},
		{uint(0), ir.FromInt(-1), CastSafe, nil, true},
		{0, ir.FromFloat(3), CastSafe, 3, false},
		{0, ir.FromFloat(3.5), CastSafe, nil, true},
		{0, ir.FromFloat(3), CastNone, nil, true},
		{0.0, ir.FromInt(2), CastSafe, 2.0, false},
		{float32(0), ir.FromFloat(1e300), CastSafe, nil, true},
		{"", ir.FromInt(42), CastSafe, "42", false},
		{"", ir.FromBool(true), CastSafe, "true", false},
		{false, ir.FromString("true"), CastSafe, true, false},
		{uint16(0), ir.FromString("65535"), CastSafe, uint16(65535), false},
		{0, ir.FromString("x"), CastSafe, nil, true},
		{0, ir.Null(), CastSafe, nil, true},
		{uint64(0), ir.FromUint(math.MaxUint64), CastNone, uint64(math.MaxUint64), false},
		{uint(0), ir.FromUint(1<<63 + 1), CastNone, uint(1<<63 + 1), false},
		{uint32(0), ir.FromUint(math.MaxUint64), CastSafe, nil, true},
		{int64(0), ir.FromUint(math.MaxUint64), CastSafe, nil, true},
		{"", ir.FromUint(math.MaxUint64), CastSafe, "18446744073709551615", false},
		{uint64(0), ir.FromString("18446744073709551615"), CastSafe, uint64(math.MaxUint64), false},
		{int64(0), ir.FromString("18446744073709551615"), CastSafe, nil, true},
	}
	for _, tt := range tests {
		got, err := convert(tt.cur, tt.val, tt.policy)
		if tt.err {
			if err == nil {
				t.Errorf("convert(%T, %s) = %v, expected error", tt.cur, tt.val.Type, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("convert(%T, %s): %v", tt.cur, tt.val.Type, err)
			continue
		}
		if got != tt.want {
			t.Errorf("convert(%T, %s) = %v (%T) want %v", tt.cur, tt.val.Type, got, got, tt.want)
		}
	}
}

type unsigned struct {
	U     uint64
	Small uint32
	Vals  *array.Dense
	Any   any
}

func TestUnsignedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vals, _ := array.FromSlice(nil, []uint64{math.MaxUint64, 1<<63 + 1, 7})
	src := &unsigned{U: math.MaxUint64, Small: 5, Vals: vals, Any: uint64(1<<63 + 1)}
	rep, err := Save(src, dir)
	check(t, err)
	noWarnings(t, rep)
	d, err := os.ReadFile(filepath.Join(dir, StateFile))
	check(t, err)
	if !strings.Contains(string(d), "18446744073709551615") {
		t.Errorf("uint64 not written exactly:\n%s", d)
	}

	dst := &unsigned{}
	rep, err = Load(dst, dir)
	check(t, err)
	noWarnings(t, rep)
	if dst.U != math.MaxUint64 || dst.Small != 5 {
		t.Errorf("got U %d Small %d", dst.U, dst.Small)
	}
	if dst.Any != uint64(1<<63+1) {
		t.Errorf("Any = %v (%T)", dst.Any, dst.Any)
	}
	checkArray(t, "Vals", dst.Vals, []int{3}, []uint64{math.MaxUint64, 1<<63 + 1, 7})

	// values that do not fit keep the live value
	type signed struct {
		U int64
	}
	s := &signed{U: -3}
	rep, err = Load(s, dir)
	check(t, err)
	if s.U != -3 {
		t.Errorf("U = %d, want -3", s.U)
	}
	oneWarning(t, rep, ErrIncompatibleMerge, "$.U")
}

func TestMalformedInlineArray(t *testing.T) {
	tests := []struct {
		name  string
		small string
	}{
		{"huge dimension", `{"__class__": "ndarray", "dtype": "float32", "shape": [1125899906842624], "data": []}`},
		{"overflowing shape", `{"__class__": "ndarray", "dtype": "float32", "shape": [4611686018427387904, 4], "data": []}`},
		{"short data", `{"__class__": "ndarray", "dtype": "int8", "shape": [2, 2], "data": [[1, 2], [3]]}`},
		{"ragged data", `{"__class__": "ndarray", "dtype": "int8", "shape": [2, 2], "data": [[1, 2], 3]}`},
		{"out of range", `{"__class__": "ndarray", "dtype": "uint8", "shape": [2], "data": [1, 300]}`},
		{"bad dtype", `{"__class__": "ndarray", "dtype": "complex64", "shape": [1], "data": [1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			state := `{"Title": "t", "Small": ` + tt.small + `, "__class__": "app.Scene"}`
			check(t, os.WriteFile(filepath.Join(dir, StateFile), []byte(state), 0644))
			keep := ramp(3)
			s := &scene{Small: keep}
			rep, err := Load(s, dir)
			check(t, err)
			if s.Title != "t" {
				t.Errorf("Title = %q", s.Title)
			}
			if s.Small != keep {
				t.Error("live array replaced")
			}
			oneWarning(t, rep, ErrIncompatibleMerge, "$.Small")
		})
	}
}

func TestLoadMissingLocation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nowhere")
	s := &scene{Title: "x"}
	rep, err := Load(s, dir)
	check(t, err)
	oneWarning(t, rep, ErrMissingStorageLocation, "")
	if s.Title != "x" {
		t.Errorf("Title = %q", s.Title)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("load created %s: %v", dir, err)
	}
}

func TestInPlaceMutationPersists(t *testing.T) {
	dir := t.TempDir()
	loc, err := Open(dir)
	check(t, err)
	s := &scene{Big: ramp(128)}
	rep, err := loc.Save(s)
	check(t, err)
	if rep.Unchanged || rep.Written != 1 {
		t.Errorf("first save: %+v", rep)
	}

	array.Data[float32](s.Big)[5] = -1
	rep, err = loc.Save(s)
	check(t, err)
	if !rep.Unchanged || rep.Reused != 1 || rep.Written != 0 {
		t.Errorf("second save: %+v", rep)
	}
	check(t, loc.Store().Verify(s.Big.Binding().ID))

	dst := &scene{}
	_, err = Load(dst, dir)
	check(t, err)
	if got := array.Data[float32](dst.Big)[5]; got != -1 {
		t.Errorf("Big[5] = %v, want -1", got)
	}
}

func TestSequenceMerge(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(&layer{Tags: []string{"x"}}, dir)
	check(t, err)
	l := &layer{Tags: []string{"a", "b", "c"}}
	_, err = Load(l, dir)
	check(t, err)
	if diff := cmp.Diff([]string{"x", "b", "c"}, l.Tags); diff != "" {
		t.Errorf("shorter snapshot (-want +got):\n%s", diff)
	}

	_, err = Save(&layer{Tags: []string{"1", "2", "3"}}, dir)
	check(t, err)
	l = &layer{Tags: []string{"a"}}
	_, err = Load(l, dir)
	check(t, err)
	if diff := cmp.Diff([]string{"1", "2", "3"}, l.Tags); diff != "" {
		t.Errorf("longer snapshot (-want +got):\n%s", diff)
	}
}

func TestMapRoot(t *testing.T) {
	dir := t.TempDir()
	inner := map[string]any{"z": 1}
	_, err := Save(map[string]any{"a": 1, "b": []any{1, "two"}, "m": inner}, dir)
	check(t, err)
	if tag := readRoot(t, dir).Tag; tag != "map" {
		t.Errorf("root tag %q, want map", tag)
	}

	keep := map[string]any{"q": 1}
	root := map[string]any{"a": 0, "m": keep}
	_, err = Load(root, dir)
	check(t, err)
	if root["a"] != 1 {
		t.Errorf("a = %v (%T), want int 1", root["a"], root["a"])
	}
	if diff := cmp.Diff([]any{int64(1), "two"}, root["b"]); diff != "" {
		t.Errorf("b (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"q": 1, "z": int64(1)}, keep); diff != "" {
		t.Errorf("m (-want +got):\n%s", diff)
	}
}

type counter struct {
	n int
}

func (c *counter) GraphState() any { return map[string]any{"n": c.n} }

func (c *counter) SetGraphState(state any) error {
	m, ok := state.(map[string]any)
	if !ok {
		return errors.New("bad state")
	}
	n, ok := m["n"].(int64)
	if !ok {
		return errors.New("bad count")
	}
	c.n = int(n)
	return nil
}

func TestStateful(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(&scene{Extra: &counter{n: 5}}, dir)
	check(t, err)
	if tag := ir.Get(readRoot(t, dir), "Extra").Tag; tag != "github.com/signadot/graphstore.counter" {
		t.Errorf("Extra tagged %q", tag)
	}

	c := &counter{}
	dst := &scene{Extra: c}
	rep, err := Load(dst, dir)
	check(t, err)
	noWarnings(t, rep)
	if dst.Extra != c {
		t.Errorf("Extra replaced by %v", dst.Extra)
	}
	if c.n != 5 {
		t.Errorf("n = %d, want 5", c.n)
	}
}

func TestUnserializable(t *testing.T) {
	dir := t.TempDir()
	var ws []*Warning
	rep, err := Save(&scene{Title: "t", Extra: make(chan int)}, dir, collect(&ws))
	check(t, err)
	oneWarning(t, rep, ErrUnserializableValue, "$.Extra")
	if len(ws) != 1 || ws[0] != rep.Warnings[0] {
		t.Errorf("callback got %v", ws)
	}
	if ir.Get(readRoot(t, dir), "Extra") != nil {
		t.Error("Extra stored")
	}
}

func TestLegacySnapshot(t *testing.T) {
	dir := t.TempDir()
	legacy := `{
  "Title": "old",
  "Small": {"__class__": "numpy.ndarray", "dtype": "float64", "data": [[1.0, 2.0], [3.0, 4.0]]},
  "Meta": {"x": 1, "__class__": "dict"},
  "__class__": "app.Scene"
}`
	check(t, os.WriteFile(filepath.Join(dir, StateFile), []byte(legacy), 0644))
	s := &scene{}
	rep, err := Load(s, dir)
	check(t, err)
	noWarnings(t, rep)
	if s.Title != "old" {
		t.Errorf("Title = %q", s.Title)
	}
	checkArray(t, "Small", s.Small, []int{2, 2}, []float64{1, 2, 3, 4})
	if diff := cmp.Diff(map[string]any{"x": int64(1)}, s.Meta); diff != "" {
		t.Errorf("meta (-want +got):\n%s", diff)
	}
}

func TestInlineIntoBoundArray(t *testing.T) {
	dir := t.TempDir()
	loc, err := Open(dir, WithThreshold(4))
	check(t, err)
	s := &scene{Small: ramp(8)}
	_, err = loc.Save(s)
	check(t, err)
	bound := s.Small
	if !blobBacked(bound) {
		t.Fatal("array not stored as a blob")
	}

	// a snapshot where Small is inline again
	other := t.TempDir()
	_, err = Save(&scene{Small: ramp(8)}, other)
	check(t, err)
	check(t, os.Rename(filepath.Join(other, StateFile), filepath.Join(dir, StateFile)))

	rep, err := loc.Load(s)
	check(t, err)
	if s.Small != bound {
		t.Error("bound array replaced")
	}
	if blobBacked(s.Small) {
		t.Error("array still bound after inline load")
	}
	if len(rep.Collected) != 1 {
		t.Errorf("collected %v, want one blob", rep.Collected)
	}
}
