package ir

import (
	"errors"
	"fmt"
)

var (
	ErrParse     = errors.New("parse error")
	ErrBadFormat = errors.New("bad format")
)

// DecodeError reports a malformed structural document.
type DecodeError struct {
	Offset int64 // input offset at which the problem was detected
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("decode error at offset %d: %s", e.Offset, e.Msg)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}
