package blob

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBlob        = errors.New("missing blob")
	ErrChecksumMismatch   = errors.New("checksum mismatch: entry may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported entry version")
	ErrForeignArray       = errors.New("array is not bound to this store")
)

// FormatError describes a malformed entry.
type FormatError struct {
	ID      string
	Details string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("blob %s: %s: %v", e.ID, e.Details, e.Err)
	}
	return fmt.Sprintf("blob %s: %s", e.ID, e.Details)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
