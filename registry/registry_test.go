package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/graphstore/live"
)

type widget struct {
	Name string
}

func TestRegisterResolve(t *testing.T) {
	r := New()
	if err := RegisterType[widget](r, "legacy.Widget"); err != nil {
		t.Fatal(err)
	}
	name := live.TypeName(&widget{})
	if name != "github.com/signadot/graphstore/registry.widget" {
		t.Fatalf("type name %q", name)
	}
	for _, n := range []string{name, "legacy.Widget"} {
		f, ok := r.Resolve(n)
		if !ok {
			t.Fatalf("%q not resolved", n)
		}
		w, ok := f().(*widget)
		if !ok || w == nil {
			t.Fatalf("%q: got %T", n, f())
		}
	}
	if _, ok := r.Resolve("nope.Type"); ok {
		t.Error("resolved unknown type")
	}
}

func TestRegisterErrors(t *testing.T) {
	r := New()
	if err := r.Register("", func() any { return nil }); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register("x", nil); err == nil {
		t.Error("expected error for nil factory")
	}
	r.MustRegister("x", func() any { return 1 })
	if err := r.Register("x", func() any { return 2 }); err == nil {
		t.Error("expected duplicate error")
	}
	defer func() {
		if recover() == nil {
			t.Error("MustRegister did not panic on duplicate")
		}
	}()
	r.MustRegister("x", func() any { return 3 })
}

func TestBuiltinsAndClone(t *testing.T) {
	r := New()
	for _, n := range []string{live.MapType, "dict"} {
		f, ok := r.Resolve(n)
		if !ok {
			t.Fatalf("builtin %q missing", n)
		}
		if _, ok := f().(live.Map); !ok {
			t.Errorf("%q: got %T", n, f())
		}
	}
	c := r.Clone()
	c.MustRegister("extra", func() any { return nil })
	if _, ok := r.Resolve("extra"); ok {
		t.Error("clone shares storage with original")
	}
	if diff := cmp.Diff([]string{"dict", "extra", "map"}, c.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
	var nilReg *Registry
	if _, ok := nilReg.Resolve("map"); ok {
		t.Error("nil registry resolved")
	}
}
