package repo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/knyt/pkg/object"
)

const (
	conflictMarkerCurrent = "<<<<<<< CURRENT\n"
	conflictMarkerSep     = "\n=======\n"
	conflictMarkerMerging = "\n>>>>>>> MERGING\n"

	mergeHeadFile        = "MERGE_HEAD"
	mergeResolvedMessage = "Merge resolved"
)

// MergeState is the repository's merge state.
type MergeState int

const (
	MergeClean           MergeState = iota // No merge pending.
	MergeConflictPending                   // MERGE_HEAD present, awaiting resolution.
)

func (s MergeState) String() string {
	switch s {
	case MergeClean:
		return "clean"
	case MergeConflictPending:
		return "conflict-pending"
	default:
		return "unknown"
	}
}

// PathResolution records how a single path was resolved by a merge.
type PathResolution struct {
	Path   string
	Status string // "current", "target", "unchanged", "conflict"
}

// MergeResult is the outcome of MergeBranch. Commit is set for a clean
// merge; Conflicts is non-empty when the merge stopped for resolution.
type MergeResult struct {
	Base       object.Hash
	MergedTree object.Hash
	Commit     object.Hash
	Conflicts  []string
	Paths      []PathResolution
}

// HasConflicts reports whether the merge stopped with conflicts.
func (m *MergeResult) HasConflicts() bool {
	return len(m.Conflicts) > 0
}

// PendingMerge is the content of MERGE_HEAD.
type PendingMerge struct {
	MergedTree   object.Hash
	Target       object.Hash
	TargetBranch string
}

func (r *Repo) mergeHeadPath() string {
	return filepath.Join(r.KnytDir, mergeHeadFile)
}

// MergeState reports whether a conflicted merge is awaiting resolution.
func (r *Repo) MergeState() (MergeState, error) {
	_, err := os.Stat(r.mergeHeadPath())
	if err == nil {
		return MergeConflictPending, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return MergeClean, nil
	}
	return MergeClean, ioErr("merge state", err)
}

// ReadPendingMerge reads MERGE_HEAD. Its first line is the merged tree;
// optional "target <commit>" and "branch <name>" lines follow. A missing
// marker yields ErrNoMergeInProgress.
func (r *Repo) ReadPendingMerge() (*PendingMerge, error) {
	data, err := os.ReadFile(r.mergeHeadPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoMergeInProgress
		}
		return nil, ioErr("read MERGE_HEAD", err)
	}

	pm := &PendingMerge{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			h, err := object.ParseHash(line)
			if err != nil {
				return nil, fmt.Errorf("read MERGE_HEAD: merged tree: %w", err)
			}
			pm.MergedTree = h
			continue
		}
		key, val, _ := strings.Cut(line, " ")
		switch key {
		case "target":
			h, err := object.ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("read MERGE_HEAD: target: %w", err)
			}
			pm.Target = h
		case "branch":
			pm.TargetBranch = strings.TrimSpace(val)
		}
	}
	if first {
		return nil, fmt.Errorf("read MERGE_HEAD: empty marker")
	}
	return pm, nil
}

func (r *Repo) writePendingMerge(pm *PendingMerge) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", pm.MergedTree)
	if pm.Target != "" {
		fmt.Fprintf(&b, "target %s\n", pm.Target)
	}
	if pm.TargetBranch != "" {
		fmt.Fprintf(&b, "branch %s\n", pm.TargetBranch)
	}
	if err := writeFileAtomic(r.mergeHeadPath(), []byte(b.String())); err != nil {
		return fmt.Errorf("write MERGE_HEAD: %w", err)
	}
	return nil
}

// MergeBranch merges branch target into the current branch.
//
// A clean merge always records a commit with parents [current, target] and
// restores its tree; there is no fast-forward. On conflict, conflicted
// files get marker content, MERGE_HEAD is written, the merged tree is
// restored into the working directory and no commit is made.
func (r *Repo) MergeBranch(target string) (*MergeResult, error) {
	state, err := r.MergeState()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if state == MergeConflictPending {
		return nil, fmt.Errorf("merge: %w", ErrMergeInProgress)
	}

	current, attached, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if !attached {
		return nil, fmt.Errorf("merge: %w", ErrDetachedHead)
	}
	currentCommit, err := r.CurrentCommit()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if currentCommit == "" {
		return nil, fmt.Errorf("merge: %w", ErrNoCommitsYet)
	}
	targetCommit, err := r.resolveBranch(target)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	currentTree, err := r.commitTreeHash(currentCommit)
	if err != nil {
		return nil, fmt.Errorf("merge: current: %w", err)
	}
	targetTree, err := r.commitTreeHash(targetCommit)
	if err != nil {
		return nil, fmt.Errorf("merge: target: %w", err)
	}

	base, err := r.FindMergeBase(currentCommit, targetCommit)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	var baseTree object.Hash
	if base != "" {
		baseTree, err = r.commitTreeHash(base)
		if err != nil {
			return nil, fmt.Errorf("merge: base: %w", err)
		}
	}
	r.log().Debug("merge base", "current", currentCommit.Short(), "target", targetCommit.Short(), "base", base.Short())

	merged, err := r.mergeTrees(currentTree, targetTree, baseTree)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	mergedTree, err := r.writeTreeFiles(merged.files)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	result := &MergeResult{
		Base:       base,
		MergedTree: mergedTree,
		Conflicts:  merged.conflicts,
		Paths:      merged.resolutions,
	}

	if result.HasConflicts() {
		pm := &PendingMerge{MergedTree: mergedTree, Target: targetCommit, TargetBranch: target}
		if err := r.writePendingMerge(pm); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		if err := r.RestoreTree(mergedTree); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		r.log().Info("merge stopped with conflicts", "branch", target, "conflicts", len(result.Conflicts))
		return result, nil
	}

	message := fmt.Sprintf("Merge branch '%s' into '%s'", target, current)
	commit, err := r.CommitTree(mergedTree, message, []object.Hash{currentCommit, targetCommit})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	result.Commit = commit
	if err := r.RestoreTree(mergedTree); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return result, nil
}

type treeMerge struct {
	files       []TreeFileEntry
	conflicts   []string
	resolutions []PathResolution
}

// mergeTrees performs the whole-file three-way merge over the union of the
// current and target paths. baseTree may be "" when the histories share no
// ancestor. A path deleted on one side keeps the other side's version.
func (r *Repo) mergeTrees(currentTree, targetTree, baseTree object.Hash) (*treeMerge, error) {
	currentFiles, err := r.flattenTreeMap(currentTree)
	if err != nil {
		return nil, fmt.Errorf("flatten current tree: %w", err)
	}
	targetFiles, err := r.flattenTreeMap(targetTree)
	if err != nil {
		return nil, fmt.Errorf("flatten target tree: %w", err)
	}
	baseFiles, err := r.flattenTreeMap(baseTree)
	if err != nil {
		return nil, fmt.Errorf("flatten base tree: %w", err)
	}

	out := &treeMerge{}
	for _, p := range unionPaths(currentFiles, targetFiles) {
		cur, inCurrent := currentFiles[p]
		tgt, inTarget := targetFiles[p]
		base, inBase := baseFiles[p]

		var (
			entry  TreeFileEntry
			status string
		)
		switch {
		case !inTarget:
			entry, status = cur, "current"
		case !inCurrent:
			entry, status = tgt, "target"
		case cur.Hash == tgt.Hash:
			entry, status = cur, "unchanged"
		case inBase && cur.Hash == base.Hash:
			entry, status = tgt, "target"
		case inBase && tgt.Hash == base.Hash:
			entry, status = cur, "current"
		default:
			h, err := r.writeConflictBlob(cur.Hash, tgt.Hash)
			if err != nil {
				return nil, fmt.Errorf("conflict %q: %w", p, err)
			}
			entry = TreeFileEntry{Path: p, Mode: cur.Mode, Hash: h}
			status = "conflict"
			out.conflicts = append(out.conflicts, p)
		}
		r.log().Debug("merge path", "path", p, "resolution", status)
		out.files = append(out.files, entry)
		out.resolutions = append(out.resolutions, PathResolution{Path: p, Status: status})
	}
	if err := checkFileDirClash(out.files); err != nil {
		return nil, err
	}
	return out, nil
}

// checkFileDirClash rejects a merged file list in which some path is both
// a file and the parent directory of another file.
func checkFileDirClash(files []TreeFileEntry) error {
	isFile := make(map[string]bool, len(files))
	for _, f := range files {
		isFile[f.Path] = true
	}
	for _, f := range files {
		for dir := path.Dir(f.Path); dir != "."; dir = path.Dir(dir) {
			if isFile[dir] {
				return &PathConflictError{Path: dir, Nested: f.Path}
			}
		}
	}
	return nil
}

// writeConflictBlob stores the marker-delimited union of two blobs. Both
// sides are decoded to UTF-8 text first.
func (r *Repo) writeConflictBlob(current, target object.Hash) (object.Hash, error) {
	curBlob, err := r.Store.ReadBlob(current)
	if err != nil {
		return "", err
	}
	tgtBlob, err := r.Store.ReadBlob(target)
	if err != nil {
		return "", err
	}
	content := conflictContent(decodeText(curBlob.Data), decodeText(tgtBlob.Data))
	return r.Store.WriteBlob(&object.Blob{Data: []byte(content)})
}

func conflictContent(current, target string) string {
	return conflictMarkerCurrent + current + conflictMarkerSep + target + conflictMarkerMerging
}

func unionPaths(a, b map[string]TreeFileEntry) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for p := range a {
		seen[p] = struct{}{}
	}
	for p := range b {
		seen[p] = struct{}{}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// MergeContinue completes a conflicted merge. Every working file except
// the metadata directory and the ignore file is scanned for conflict
// markers; if none remain, the whole working directory is staged and
// committed as "Merge resolved" with parents [current, target], and
// MERGE_HEAD is removed.
func (r *Repo) MergeContinue() (object.Hash, error) {
	pm, err := r.ReadPendingMerge()
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}

	files, err := r.workingFiles()
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}
	conflicted, err := r.filesWithConflictMarkers(files)
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}
	if len(conflicted) > 0 {
		return "", fmt.Errorf("merge continue: %w", &UnresolvedConflictsError{Paths: conflicted})
	}

	ignore, err := r.LoadIgnoreList()
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}
	if _, err := r.StageAdd(".", ignore); err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}
	entries, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}
	tree, err := r.BuildTree(entries)
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}

	current, err := r.CurrentCommit()
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}
	var parents []object.Hash
	for _, p := range []object.Hash{current, pm.Target} {
		if p != "" {
			parents = append(parents, p)
		}
	}
	commit, err := r.CommitTree(tree, mergeResolvedMessage, parents)
	if err != nil {
		return "", fmt.Errorf("merge continue: %w", err)
	}

	if err := os.Remove(r.mergeHeadPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", ioErr("merge continue: remove MERGE_HEAD", err)
	}
	r.log().Info("merge resolved", "commit", commit.Short())
	return commit, nil
}
