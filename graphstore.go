package graphstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signadot/graphstore/blob"
)

// Report summarizes a save or load.
type Report struct {
	PassID string
	// Written counts arrays stored as new blobs.
	Written int
	// Reused counts blob references kept without rewriting the blob.
	Reused int
	// Collected lists the blobs removed by garbage collection.
	Collected []string
	// Unchanged is set when a save found the structural file up to date.
	Unchanged bool
	Warnings  []*Warning
}

// Location is a storage location opened for repeated saves and loads.
//
// A Location is not safe for concurrent use, and at most one Location
// per directory may be in use at a time.
type Location struct {
	dir   string
	opts  *Options
	store *blob.Store

	saved       bool
	lastHash    uint64
	lastCounter int64
}

// Open opens the storage location dir, creating it if needed.
func Open(dir string, opts ...Option) (*Location, error) {
	o := newOptions(opts...)
	if err := os.MkdirAll(dir, 0755&^os.FileMode(o.Umask)); err != nil {
		return nil, err
	}
	store, err := blob.Open(filepath.Join(dir, ExternDir), o.Umask, o.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening blob store: %w", err)
	}
	return &Location{dir: dir, opts: o, store: store}, nil
}

func (l *Location) Dir() string { return l.dir }

// Store returns the blob store of l.
func (l *Location) Store() *blob.Store { return l.store }

// Save stores root, then removes the blobs root no longer references.
func (l *Location) Save(root any) (*Report, error) {
	p := newPass("save", l.opts, l.store)
	l.store.Begin()
	s := &serializer{pass: p}
	tree, ok, err := s.serialize(root, "", "$")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("cannot store root of type %T", root)
	}
	rep := p.report()
	snap := &Snapshot{Counter: l.store.Counter(), Root: tree}
	h := tree.Hash()
	statePath := filepath.Join(l.dir, StateFile)
	if _, err := os.Stat(statePath); err == nil && l.saved && h == l.lastHash && snap.Counter == l.lastCounter {
		rep.Unchanged = true
	} else {
		if err := writeSnapshot(l.dir, snap, l.opts.Umask); err != nil {
			return nil, err
		}
		l.saved, l.lastHash, l.lastCounter = true, h, snap.Counter
	}
	rep.Collected, err = l.store.CollectGarbage()
	if err != nil {
		return rep, fmt.Errorf("collecting blobs: %w", err)
	}
	p.log.Debug("saved", "dir", l.dir, "written", rep.Written, "reused", rep.Reused,
		"collected", len(rep.Collected), "unchanged", rep.Unchanged, "warnings", len(rep.Warnings))
	return rep, nil
}

// Load merges the stored snapshot into root, which must be a pointer or
// a map. Without a snapshot Load does nothing and reports
// ErrMissingStorageLocation as a warning.
func (l *Location) Load(root any) (*Report, error) {
	p := newPass("load", l.opts, l.store)
	snap, err := ReadSnapshot(l.dir)
	if errors.Is(err, ErrMissingStorageLocation) {
		p.warn("$", err)
		return p.report(), nil
	}
	if err != nil {
		return nil, err
	}
	l.store.SetCounter(snap.Counter)
	l.store.Begin()
	ld := &loader{pass: p}
	if _, _, err := ld.load(root, snap.Root, nil, ""); err != nil {
		return nil, err
	}
	rep := p.report()
	if l.opts.LoadGC {
		rep.Collected, err = l.store.CollectGarbage()
		if err != nil {
			return rep, fmt.Errorf("collecting blobs: %w", err)
		}
	}
	l.saved = false
	p.log.Debug("loaded", "dir", l.dir, "reused", rep.Reused,
		"collected", len(rep.Collected), "warnings", len(rep.Warnings))
	return rep, nil
}

// Save stores root at location dir.
func Save(root any, dir string, opts ...Option) (*Report, error) {
	l, err := Open(dir, opts...)
	if err != nil {
		return nil, err
	}
	return l.Save(root)
}

// Load merges the snapshot stored at location dir into root. A missing
// location is left uncreated.
func Load(root any, dir string, opts ...Option) (*Report, error) {
	if _, err := os.Stat(filepath.Join(dir, StateFile)); errors.Is(err, os.ErrNotExist) {
		o := newOptions(opts...)
		p := newPass("load", o, nil)
		p.warn("$", fmt.Errorf("%w: %s", ErrMissingStorageLocation, dir))
		return p.report(), nil
	}
	l, err := Open(dir, opts...)
	if err != nil {
		return nil, err
	}
	return l.Load(root)
}
