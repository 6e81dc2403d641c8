package blob

import (
	"fmt"
	"os"
)

// mapping is the memory backing an opened entry.
type mapping interface {
	Bytes() []byte
	// Sync flushes writes to the entry file.
	Sync() error
	Close() error
}

func openMapping(path string) (mapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < FixedHeaderSize {
		return nil, fmt.Errorf("%s: entry too small (%d bytes)", path, info.Size())
	}
	return mapFile(f, info.Size())
}
