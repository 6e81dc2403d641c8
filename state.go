package graphstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/signadot/graphstore/ir"
)

const (
	// StateFile is the structural snapshot inside a location.
	StateFile = "state.json"
	// ExternDir is the blob store directory inside a location.
	ExternDir = "extern"

	formatKey   = "__format__"
	counterKey  = "__counter__"
	rootKey     = "root"
	stateFormat = 1
)

// Snapshot is the content of a structural file.
type Snapshot struct {
	// Counter is the next blob id counter value.
	Counter int64
	Root    *ir.Node
}

// ReadSnapshot reads the structural file of location dir. It fails with
// ErrMissingStorageLocation if there is none.
func ReadSnapshot(dir string) (*Snapshot, error) {
	path := filepath.Join(dir, StateFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingStorageLocation, path)
		}
		return nil, err
	}
	defer f.Close()
	y, err := ir.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return fromEnvelope(y)
}

func fromEnvelope(y *ir.Node) (*Snapshot, error) {
	format := ir.Get(y, formatKey)
	if y.Type != ir.ObjectType || y.Tag != "" || format == nil {
		// bare root
		return &Snapshot{Root: y}, nil
	}
	if format.Type != ir.NumberType || format.Int64 == nil || *format.Int64 != stateFormat {
		return nil, fmt.Errorf("%w: unsupported snapshot format", ir.ErrBadFormat)
	}
	s := &Snapshot{}
	if c := ir.Get(y, counterKey); c != nil {
		if c.Type != ir.NumberType || c.Int64 == nil || *c.Int64 < 0 {
			return nil, fmt.Errorf("%w: invalid blob counter", ir.ErrBadFormat)
		}
		s.Counter = *c.Int64
	}
	s.Root = ir.Get(y, rootKey)
	if s.Root == nil {
		return nil, fmt.Errorf("%w: snapshot without root", ir.ErrBadFormat)
	}
	s.Root.Parent = nil
	return s, nil
}

// Encode returns the structural file content of s.
func (s *Snapshot) Encode() ([]byte, error) {
	env := ir.FromFields("", []ir.KeyVal{
		{Key: formatKey, Val: ir.FromInt(stateFormat)},
		{Key: counterKey, Val: ir.FromInt(s.Counter)},
		{Key: rootKey, Val: s.Root},
	})
	defer func() { s.Root.Parent = nil }()
	var buf bytes.Buffer
	if err := ir.Encode(env, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSnapshot replaces the structural file of location dir.
func writeSnapshot(dir string, s *Snapshot, umask int) error {
	d, err := s.Encode()
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+StateFile+"-"+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644&^os.FileMode(umask))
	if err != nil {
		return err
	}
	_, err = f.Write(d)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, filepath.Join(dir, StateFile))
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", StateFile, err)
	}
	return nil
}
