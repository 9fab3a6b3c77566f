package repo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CreateBranch creates refs/heads/<name> at the current commit. It fails
// with ErrDetachedHead when HEAD is not symbolic, ErrNoCommitsYet when the
// current branch has no commit, and ErrBranchExists when the branch is
// already present; an existing branch is never moved.
func (r *Repo) CreateBranch(name string) error {
	name = strings.TrimSpace(name)
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if !strings.HasPrefix(head, "refs/heads/") {
		return fmt.Errorf("create branch %q: %w", name, ErrDetachedHead)
	}
	current, err := r.CurrentCommit()
	if err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if current == "" {
		return fmt.Errorf("create branch %q: %w", name, ErrNoCommitsYet)
	}

	reason := ReflogReason{Action: ReflogBranch, Detail: "created from " + strings.TrimPrefix(head, "refs/heads/")}
	if err := r.UpdateRefCAS("refs/heads/"+name, current, reason, ""); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create branch %q: %w", name, ErrBranchExists)
		}
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// ListBranches returns the branch names under refs/heads/ sorted
// alphabetically. Nested names use forward slashes.
func (r *Repo) ListBranches() ([]string, error) {
	refs, err := r.ListRefs("heads")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	names := make([]string, 0, len(refs))
	for full := range refs {
		names = append(names, strings.TrimPrefix(full, "heads/"))
	}
	sort.Strings(names)
	return names, nil
}

// CurrentBranch reads HEAD and returns the branch name if HEAD is a symbolic
// ref (e.g. "ref: refs/heads/main" → "main"). The boolean is false when HEAD
// is detached.
func (r *Repo) CurrentBranch() (string, bool, error) {
	head, err := r.Head()
	if err != nil {
		return "", false, fmt.Errorf("current branch: %w", err)
	}

	const prefix = "refs/heads/"
	if strings.HasPrefix(head, prefix) {
		return strings.TrimPrefix(head, prefix), true, nil
	}
	return "", false, nil
}

// validateRefName rejects names that cannot live safely under refs/.
func validateRefName(name string) error {
	if name == "" {
		return fmt.Errorf("ref name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.HasPrefix(name, "-") || strings.HasSuffix(name, ".lock") ||
		strings.HasSuffix(name, ".") {
		return fmt.Errorf("invalid ref name %q", name)
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") || strings.Contains(name, "@{") {
		return fmt.Errorf("invalid ref name %q", name)
	}
	if strings.ContainsAny(name, " \t\n\r~^:?*[\\\x7f") {
		return fmt.Errorf("invalid ref name %q", name)
	}
	for _, c := range name {
		if c < 0x20 {
			return fmt.Errorf("invalid ref name %q", name)
		}
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return fmt.Errorf("invalid ref name %q", name)
		}
	}
	return nil
}
