//go:build !unix

package blob

import (
	"io"
	"os"
)

// bufMapping holds the entry in process memory and writes it back on Sync.
type bufMapping struct {
	path string
	data []byte
}

func mapFile(f *os.File, size int64) (mapping, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return &bufMapping{path: f.Name(), data: data}, nil
}

func (m *bufMapping) Bytes() []byte { return m.data }

func (m *bufMapping) Sync() error {
	if m.data == nil {
		return nil
	}
	f, err := os.OpenFile(m.path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt(m.data, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *bufMapping) Close() error {
	m.data = nil
	return nil
}
