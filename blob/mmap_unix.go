//go:build unix

package blob

import (
	"os"

	"golang.org/x/sys/unix"
)

type mmapping struct {
	data []byte
}

// mapFile maps f shared and writable, so writes to the returned memory
// reach the file. The mapping survives closing f.
func mapFile(f *os.File, size int64) (mapping, error) {
	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, err
	}
	return &mmapping{data: data}, nil
}

func (m *mmapping) Bytes() []byte { return m.data }

func (m *mmapping) Sync() error {
	if m.data == nil {
		return nil
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

func (m *mmapping) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
