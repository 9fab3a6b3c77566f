package repo

import (
	"fmt"
	"sort"

	"github.com/odvcencio/knyt/pkg/diff"
	"github.com/odvcencio/knyt/pkg/object"
)

// DiffBranches compares the trees at the tips of branches a and b. Paths
// are reported in sorted order; modified files carry line hunks computed
// over their decoded text.
func (r *Repo) DiffBranches(a, b string) ([]diff.FileChange, error) {
	aCommit, err := r.resolveBranch(a)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	bCommit, err := r.resolveBranch(b)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	aTree, err := r.commitTreeHash(aCommit)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	bTree, err := r.commitTreeHash(bCommit)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	return r.diffTrees(aTree, bTree)
}

func (r *Repo) diffTrees(aTree, bTree object.Hash) ([]diff.FileChange, error) {
	aFiles, err := r.flattenTreeMap(aTree)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	bFiles, err := r.flattenTreeMap(bTree)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	paths := make([]string, 0, len(aFiles)+len(bFiles))
	for p := range aFiles {
		paths = append(paths, p)
	}
	for p := range bFiles {
		if _, ok := aFiles[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var changes []diff.FileChange
	for _, p := range paths {
		ae, inA := aFiles[p]
		be, inB := bFiles[p]
		switch {
		case !inA:
			changes = append(changes, diff.FileChange{Path: p, Status: diff.Added})
		case !inB:
			changes = append(changes, diff.FileChange{Path: p, Status: diff.Removed})
		case ae.Hash != be.Hash:
			hunks, err := r.blobHunks(ae.Hash, be.Hash)
			if err != nil {
				return nil, fmt.Errorf("diff %q: %w", p, err)
			}
			changes = append(changes, diff.FileChange{Path: p, Status: diff.Modified, Hunks: hunks})
		}
	}
	return changes, nil
}

func (r *Repo) blobHunks(a, b object.Hash) ([]diff.Hunk, error) {
	aBlob, err := r.Store.ReadBlob(a)
	if err != nil {
		return nil, err
	}
	bBlob, err := r.Store.ReadBlob(b)
	if err != nil {
		return nil, err
	}
	return diff.Hunks([]byte(decodeText(aBlob.Data)), []byte(decodeText(bBlob.Data)), diff.DefaultContext), nil
}
