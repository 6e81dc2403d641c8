package graphstore

import (
	"errors"
	"fmt"

	"github.com/signadot/graphstore/blob"
)

// Recovered conditions. None of them aborts a save or load; each is
// reported as a Warning wrapping one of these.
var (
	// ErrUnserializableValue: a node with no fields, no index and no
	// primitive value was dropped.
	ErrUnserializableValue = errors.New("unserializable value")
	// ErrUnresolvableType: a record's type tag could not be constructed
	// and the record was dropped.
	ErrUnresolvableType = errors.New("unresolvable type")
	// ErrMissingBlob: a referenced blob is absent and the value was
	// treated as absent.
	ErrMissingBlob = blob.ErrMissingBlob
	// ErrIncompatibleMerge: a stored value could not be merged into the
	// live value, which was kept.
	ErrIncompatibleMerge = errors.New("incompatible merge")
	// ErrMissingStorageLocation: there is no snapshot to load.
	ErrMissingStorageLocation = errors.New("missing storage location")
)

// Warning is a recovered error at a graph path.
type Warning struct {
	Path string
	Err  error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

func (w *Warning) Unwrap() error {
	return w.Err
}
