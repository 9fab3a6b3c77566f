package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/knyt/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// refLock owns <ref>.lock while a ref is rewritten. The new value is
// written into the lock file and renamed over the ref, so readers see the
// old or the new hash and never a partial write.
type refLock struct {
	refPath string
	file    *os.File
	done    bool
}

func lockRef(refPath string) (*refLock, error) {
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(refPath+".lock", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		switch {
		case err == nil:
			return &refLock{refPath: refPath, file: f}, nil
		case !errors.Is(err, fs.ErrExist):
			return nil, err
		case time.Now().After(deadline):
			return nil, fmt.Errorf("%s is held by another writer", filepath.Base(refPath)+".lock")
		}
		time.Sleep(refLockRetryDelay)
	}
}

// current returns the hash the ref holds, or "" if it does not exist yet.
func (l *refLock) current() (object.Hash, error) {
	data, err := os.ReadFile(l.refPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}

func (l *refLock) commit(h object.Hash) error {
	f := l.file
	l.file = nil
	if _, err := f.WriteString(string(h) + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(l.refPath+".lock", l.refPath); err != nil {
		return err
	}
	l.done = true
	return nil
}

// release drops the lock; after a successful commit it is a no-op.
func (l *refLock) release() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if !l.done {
		os.Remove(l.refPath + ".lock")
	}
}

// UpdateRefCAS points ref name (e.g. "refs/heads/main") at h under the ref
// lock and records the transition in the reflog. With one expectedOld the
// write only happens if the ref currently holds that hash, "" meaning the
// ref must not exist; a mismatch returns ErrRefCASMismatch. Without
// expectedOld the write is unconditional.
//
// The ref stays updated if the reflog append fails; the returned
// *RefUpdateReflogError reports it.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, reason ReflogReason, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	lock, err := lockRef(filepath.Join(r.KnytDir, filepath.FromSlash(name)))
	if err != nil {
		return ioErr(fmt.Sprintf("update ref %q: lock", name), err)
	}
	defer lock.release()

	old, err := lock.current()
	if err != nil {
		return ioErr(fmt.Sprintf("update ref %q: read", name), err)
	}
	if len(expectedOld) == 1 && old != expectedOld[0] {
		return fmt.Errorf("update ref %q: %w (expected %q, found %q)", name, ErrRefCASMismatch, expectedOld[0], old)
	}
	if err := lock.commit(h); err != nil {
		return ioErr(fmt.Sprintf("update ref %q: write", name), err)
	}
	r.log().Debug("ref updated", "ref", name, "old", old.Short(), "new", h.Short(), "reason", reason.String())

	entry := ReflogEntry{Ref: name, OldHash: old, NewHash: h, Time: now().UTC(), Reason: reason}
	if err := r.appendReflog(entry); err != nil {
		return &RefUpdateReflogError{Ref: name, OldHash: old, NewHash: h, Err: err}
	}
	return nil
}

// ListRefs lists references under .knyt/refs.
// Names are returned relative to refs root, e.g. "heads/main", "tags/v1".
// In-flight lock files are skipped.
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	root := filepath.Join(r.KnytDir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(prefix))
	}

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		refs[name] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w: %w", ErrIOFailure, err)
	}
	return refs, nil
}
