package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/knyt/pkg/object"
)

// now is swapped in tests.
var now = time.Now

// CommitTree writes a commit for tree with the given parents, moves the ref
// HEAD resolves to (or HEAD itself when detached) to it, and assigns the
// next sequential tag. Author and committer are the configured identity at
// the current UTC time.
func (r *Repo) CommitTree(tree object.Hash, message string, parents []object.Hash) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit tree: %w", ErrMissingMessage)
	}
	if _, err := object.ParseHash(string(tree)); err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	for _, p := range parents {
		if _, err := object.ParseHash(string(p)); err != nil {
			return "", fmt.Errorf("commit tree: parent: %w", err)
		}
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	refName := head
	if !strings.HasPrefix(head, "refs/") {
		refName = "HEAD"
	}
	oldHash, err := r.CurrentCommit()
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}

	cfg := r.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sig := cfg.signature(now().UTC().Unix())
	commitObj := &object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   message,
	}
	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit tree: write commit: %w", err)
	}

	reason := ReflogReason{Action: ReflogCommit, Detail: firstLine(message)}
	if len(parents) > 1 {
		reason.Action = ReflogMerge
	}
	if err := r.UpdateRefCAS(refName, commitHash, reason, oldHash); err != nil {
		return "", fmt.Errorf("commit tree: update ref %q: %w", refName, err)
	}

	tag, err := r.assignNextTag(commitHash)
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	r.log().Info("commit created", "commit", commitHash.Short(), "ref", refName, "tag", tag)
	return commitHash, nil
}

// Commit creates a commit from the index on top of the current commit.
// It fails with ErrMissingMessage on an empty message, with an
// *UnresolvedConflictsError when a tracked file in the working directory
// still holds conflict markers, and with ErrIndexMissing when nothing was
// ever staged. The index is left as is after committing.
func (r *Repo) Commit(message string) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit: %w", ErrMissingMessage)
	}

	entries, indexErr := r.ReadIndex()
	if indexErr != nil && !errors.Is(indexErr, ErrIndexMissing) {
		return "", fmt.Errorf("commit: %w", indexErr)
	}

	parent, err := r.CurrentCommit()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	tracked, err := r.trackedPaths(entries, parent)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	conflicted, err := r.filesWithConflictMarkers(tracked)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(conflicted) > 0 {
		return "", fmt.Errorf("commit: %w", &UnresolvedConflictsError{Paths: conflicted})
	}

	if indexErr != nil {
		return "", fmt.Errorf("commit: %w", indexErr)
	}

	treeHash, err := r.BuildTree(entries)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	if parent != "" {
		parents = append(parents, parent)
	}
	return r.CommitTree(treeHash, message, parents)
}

// trackedPaths returns the union of index paths and the paths in commit's
// tree.
func (r *Repo) trackedPaths(entries []IndexEntry, commit object.Hash) ([]string, error) {
	seen := make(map[string]struct{}, len(entries))
	var paths []string
	for _, e := range entries {
		if _, ok := seen[e.Path]; !ok {
			seen[e.Path] = struct{}{}
			paths = append(paths, e.Path)
		}
	}
	if commit == "" {
		return paths, nil
	}
	tree, err := r.commitTreeHash(commit)
	if err != nil {
		return nil, err
	}
	files, err := r.FlattenTree(tree)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, ok := seen[f.Path]; !ok {
			seen[f.Path] = struct{}{}
			paths = append(paths, f.Path)
		}
	}
	return paths, nil
}

// LogEntry summarizes one commit in first-parent history.
type LogEntry struct {
	Hash    object.Hash
	Tree    object.Hash
	Parent  object.Hash // first parent, "" for a root commit
	Author  object.Signature
	When    time.Time
	Message string // first line of the message
}

// Log walks first-parent history from the current commit, newest first.
// Merge commits appear as a single linear step.
func (r *Repo) Log() ([]LogEntry, error) {
	current, err := r.CurrentCommit()
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	if current == "" {
		return nil, fmt.Errorf("log: %w", ErrNoCommitsYet)
	}

	var out []LogEntry
	seen := make(map[object.Hash]struct{})
	for current != "" {
		if _, ok := seen[current]; ok {
			return nil, fmt.Errorf("log: commit graph cycle at %s", current)
		}
		seen[current] = struct{}{}

		c, err := r.commits().read(r, current)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		entry := LogEntry{
			Hash:    current,
			Tree:    c.TreeHash,
			Author:  c.Author,
			When:    time.Unix(c.Author.When, 0).UTC(),
			Message: firstLine(c.Message),
		}
		if len(c.Parents) > 0 {
			entry.Parent = c.Parents[0]
		}
		out = append(out, entry)
		current = entry.Parent
	}
	return out, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
