package object

import "errors"

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrCorruptObject  = errors.New("corrupt object")
	ErrTypeMismatch   = errors.New("object type mismatch")

	// ErrIOFailure wraps underlying filesystem errors.
	ErrIOFailure = errors.New("i/o failure")
)
