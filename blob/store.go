package blob

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/signadot/graphstore/array"
)

// Store is a directory of numeric array entries addressed by id.
//
// Each save pass begins with Begin, marks every entry it references
// (Put, Touch and Mark all mark) and ends with CollectGarbage, which
// removes the entries left unmarked.
//
// A Store is not safe for concurrent use.
type Store struct {
	root   string
	umask  int
	next   int64
	marked map[string]bool
	logger *slog.Logger
}

// entry is the Handle of a binding created by a Store.
type entry struct {
	m      mapping
	layout *entryLayout
}

// Info describes a stored entry.
type Info struct {
	ID    string
	DType array.DType
	Shape array.Shape
	Size  int64 // file size
	Data  int64 // data size
}

// Open opens or creates the store rooted at root. umask is applied to
// the permissions of created files and directories. If logger is nil,
// slog.Default() is used.
func Open(root string, umask int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	s := &Store{
		root:   abs,
		umask:  umask,
		marked: map[string]bool{},
		logger: logger,
	}
	if err := os.MkdirAll(abs, 0755&^os.FileMode(umask)); err != nil {
		return nil, err
	}
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}
	if len(ids) != 0 {
		n, _ := ParseID(ids[len(ids)-1])
		s.next = n + 1
	}
	return s, nil
}

// Root returns the absolute directory of the store.
func (s *Store) Root() string { return s.root }

// Counter returns the value the next allocated id will encode.
func (s *Store) Counter() int64 { return s.next }

// SetCounter raises the id counter to n. Lower values are ignored so
// that ids already on disk are never reissued.
func (s *Store) SetCounter(n int64) {
	if n > s.next {
		s.next = n
	}
}

// Begin clears all marks.
func (s *Store) Begin() {
	clear(s.marked)
}

// Mark records id as reachable in the current pass.
func (s *Store) Mark(id string) {
	s.marked[id] = true
}

// Marked reports whether id was marked in the current pass.
func (s *Store) Marked(id string) bool {
	return s.marked[id]
}

// Owns reports whether a is bound to an entry of the directory of s,
// through s or another Store opened on the same directory.
func (s *Store) Owns(a *array.Dense) bool {
	b := a.Binding()
	if b == nil {
		return false
	}
	_, ok := b.Handle.(*entry)
	return ok && b.Root == s.root
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, id+entryExt)
}

// Put writes a's content to a new entry, rebinds a to it and marks it.
// Writes through a afterwards modify the entry in place.
func (s *Store) Put(a *array.Dense) (string, error) {
	id := FormatID(s.next)
	prefix, err := encodePrefix(a)
	if err != nil {
		return "", err
	}
	path := s.path(id)
	if err := s.writeFile(path, prefix, a.Bytes()); err != nil {
		return "", fmt.Errorf("writing blob %s: %w", id, err)
	}
	s.next++
	e, err := s.open(id)
	if err != nil {
		return "", err
	}
	if err := a.Bind(&array.Binding{Root: s.root, ID: id, Handle: e}, e.layout.data(e.m.Bytes())); err != nil {
		e.m.Close()
		return "", err
	}
	runtime.AddCleanup(a, func(m mapping) { m.Close() }, e.m)
	s.Mark(id)
	s.logger.Debug("put blob", "id", id, "dtype", a.DType(), "shape", []int(a.Shape()))
	return id, nil
}

// writeFile writes an entry to a temporary file and renames it into
// place.
func (s *Store) writeFile(path string, prefix, data []byte) error {
	tmp := filepath.Join(s.root, "."+uuid.NewString()+tmpExt)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644&^os.FileMode(s.umask))
	if err != nil {
		return err
	}
	_, err = f.Write(prefix)
	if err == nil {
		_, err = f.Write(data)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) open(id string) (*entry, error) {
	m, err := openMapping(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingBlob, id)
		}
		return nil, err
	}
	layout, err := parseLayout(id, m.Bytes(), int64(len(m.Bytes())))
	if err != nil {
		m.Close()
		return nil, err
	}
	return &entry{m: m, layout: layout}, nil
}

// Get returns an array bound to entry id. The entry is not marked.
func (s *Store) Get(id string) (*array.Dense, error) {
	if _, err := ParseID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingBlob, err)
	}
	e, err := s.open(id)
	if err != nil {
		return nil, err
	}
	data := e.layout.data(e.m.Bytes())
	a, err := array.FromBytes(e.layout.dtype(), array.Shape(e.layout.header.Shape), data)
	if err != nil {
		e.m.Close()
		return nil, &FormatError{ID: id, Details: "invalid entry", Err: err}
	}
	if err := a.Bind(&array.Binding{Root: s.root, ID: id, Handle: e}, data); err != nil {
		e.m.Close()
		return nil, err
	}
	runtime.AddCleanup(a, func(m mapping) { m.Close() }, e.m)
	return a, nil
}

// Touch marks the entry a is bound to, refreshes its checksum and flushes
// in-place writes to disk. If the entry was removed since a was bound,
// Touch fails with ErrMissingBlob and a can be stored again with Put.
func (s *Store) Touch(a *array.Dense) (string, error) {
	if !s.Owns(a) {
		return "", ErrForeignArray
	}
	b := a.Binding()
	if _, err := os.Stat(s.path(b.ID)); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrMissingBlob, b.ID)
	}
	e := b.Handle.(*entry)
	buf := e.m.Bytes()
	if buf == nil {
		return "", fmt.Errorf("blob %s: mapping closed", b.ID)
	}
	sum := sha256.Sum256(a.Bytes())
	if !bytes.Equal(sum[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize]) {
		copy(buf[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])
		e.layout.checksum = sum
	}
	if err := e.m.Sync(); err != nil {
		return "", fmt.Errorf("syncing blob %s: %w", b.ID, err)
	}
	s.Mark(b.ID)
	return b.ID, nil
}

// CollectGarbage removes every entry not marked since the last Begin,
// along with stale temporary files. It returns the removed ids in order.
// Files in the directory that are not entries are left alone.
func (s *Store) CollectGarbage() ([]string, error) {
	dents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var removed []string
	var errs []error
	for _, d := range dents {
		name := d.Name()
		if d.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".") && strings.HasSuffix(name, tmpExt) {
			if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		id, ok := strings.CutSuffix(name, entryExt)
		if !ok {
			continue
		}
		if _, err := ParseID(id); err != nil {
			s.logger.Warn("skipping foreign file in blob store", "name", name)
			continue
		}
		if s.marked[id] {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, name)); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		s.logger.Debug("collected blob", "id", id)
		removed = append(removed, id)
	}
	slices.Sort(removed)
	return removed, errors.Join(errs...)
}

// IDs returns the ids of all entries on disk in counter order.
func (s *Store) IDs() ([]string, error) {
	dents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, d := range dents {
		id, ok := strings.CutSuffix(d.Name(), entryExt)
		if !ok || d.IsDir() {
			continue
		}
		if _, err := ParseID(id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Stat reads the header of entry id.
func (s *Store) Stat(id string) (*Info, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingBlob, id)
		}
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	var fixed [FixedHeaderSize]byte
	if _, err := io.ReadFull(f, fixed[:]); err != nil {
		return nil, &FormatError{ID: id, Details: "short entry", Err: err}
	}
	hdrLen := binary.LittleEndian.Uint64(fixed[8:16])
	if hdrLen > MaxHeaderSize {
		return nil, &FormatError{ID: id, Details: "header too large"}
	}
	buf := make([]byte, FixedHeaderSize+int(hdrLen))
	copy(buf, fixed[:])
	if _, err := io.ReadFull(f, buf[FixedHeaderSize:]); err != nil {
		return nil, &FormatError{ID: id, Details: "short header", Err: err}
	}
	l, err := parseLayout(id, buf, fi.Size())
	if err != nil {
		return nil, err
	}
	return &Info{
		ID:    id,
		DType: l.dtype(),
		Shape: array.Shape(l.header.Shape),
		Size:  fi.Size(),
		Data:  l.dataSize,
	}, nil
}

// List returns the Info of every entry.
func (s *Store) List() ([]*Info, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}
	res := make([]*Info, 0, len(ids))
	for _, id := range ids {
		info, err := s.Stat(id)
		if err != nil {
			return nil, err
		}
		res = append(res, info)
	}
	return res, nil
}

// Verify checks the stored checksum of entry id against its data. The
// checksum reflects the content as of the last Put or Touch.
func (s *Store) Verify(id string) error {
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingBlob, id)
		}
		return err
	}
	l, err := parseLayout(id, b, int64(len(b)))
	if err != nil {
		return err
	}
	if sha256.Sum256(l.data(b)) != l.checksum {
		return &FormatError{ID: id, Details: "verify", Err: ErrChecksumMismatch}
	}
	return nil
}
