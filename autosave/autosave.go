// Package autosave debounces saves of a live graph.
//
// The caller reports mutations with Touch and polls Tick from its own
// loop. A save happens once the graph has been left alone for the
// configured delay. Nothing runs in the background.
package autosave

import (
	"time"

	"github.com/signadot/graphstore"
)

// Saver stores a root. *graphstore.Location is a Saver.
type Saver interface {
	Save(root any) (*graphstore.Report, error)
}

type Autosave struct {
	saver Saver
	root  any
	delay time.Duration

	dirty   bool
	touched time.Time
}

func New(s Saver, root any, delay time.Duration) *Autosave {
	return &Autosave{saver: s, root: root, delay: delay}
}

// Touch records a mutation of the graph at now.
func (a *Autosave) Touch(now time.Time) {
	a.dirty = true
	a.touched = now
}

// Dirty reports whether there are mutations not yet saved.
func (a *Autosave) Dirty() bool { return a.dirty }

// Due reports whether a save is pending and the delay since the last
// mutation has passed.
func (a *Autosave) Due(now time.Time) bool {
	return a.dirty && now.Sub(a.touched) >= a.delay
}

// Tick saves if Due. It returns a nil report when nothing was saved.
func (a *Autosave) Tick(now time.Time) (*graphstore.Report, error) {
	if !a.Due(now) {
		return nil, nil
	}
	return a.save()
}

// Flush saves now if there are pending mutations.
func (a *Autosave) Flush() (*graphstore.Report, error) {
	if !a.dirty {
		return nil, nil
	}
	return a.save()
}

func (a *Autosave) save() (*graphstore.Report, error) {
	rep, err := a.saver.Save(a.root)
	if err != nil {
		// stays dirty, the next Tick retries
		return nil, err
	}
	a.dirty = false
	return rep, nil
}
