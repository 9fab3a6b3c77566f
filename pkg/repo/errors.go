package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/knyt/pkg/object"
)

var (
	ErrBranchNotFound      = errors.New("branch not found")
	ErrBranchExists        = errors.New("branch already exists")
	ErrDetachedHead        = errors.New("HEAD is detached")
	ErrNoCommitsYet        = errors.New("no commits yet")
	ErrMissingMessage      = errors.New("missing commit message")
	ErrUnresolvedConflicts = errors.New("unresolved conflicts")
	ErrIndexMissing        = errors.New("index missing")
	ErrMergeInProgress     = errors.New("merge in progress")
	ErrNoMergeInProgress   = errors.New("no merge in progress")
	ErrTreeTooDeep         = errors.New("tree too deep")
	ErrRefCASMismatch      = errors.New("ref compare-and-swap mismatch")
	ErrPathConflict        = errors.New("file and directory at the same path")

	ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")

	// ErrIOFailure wraps every underlying filesystem error.
	ErrIOFailure = object.ErrIOFailure
)

// UnresolvedConflictsError lists the files that still contain conflict
// markers.
type UnresolvedConflictsError struct {
	Paths []string
}

func (e *UnresolvedConflictsError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s in %s", ErrUnresolvedConflicts, strings.Join(e.Paths, ", "))
}

func (e *UnresolvedConflictsError) Is(target error) bool {
	return target == ErrUnresolvedConflicts
}

// PathConflictError reports a merge where one side keeps a file at Path
// and the other has Nested inside a directory of the same name.
type PathConflictError struct {
	Path   string
	Nested string
}

func (e *PathConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s is a file but %s needs it as a directory", ErrPathConflict, e.Path, e.Nested)
}

func (e *PathConflictError) Is(target error) bool {
	return target == ErrPathConflict
}

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: %s (old=%s new=%s): %v",
		e.Ref,
		ErrRefUpdatedButReflogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}

func ioErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIOFailure, err)
}
