package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/knyt/pkg/object"
)

// HashFile computes the blob digest of a working file after content
// normalization. When write is true the blob is also stored.
func (r *Repo) HashFile(path string, write bool) (object.Hash, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.RootDir, filepath.FromSlash(path))
		if _, err := os.Stat(abs); err != nil && errors.Is(err, fs.ErrNotExist) {
			abs = path
		}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", ioErr(fmt.Sprintf("hash %q", path), err)
	}
	data = normalizeContent(data)
	if !write {
		return object.HashObject(object.TypeBlob, data), nil
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}
	r.log().Debug("wrote blob", "path", path, "hash", h)
	return h, nil
}

// VerifyReport summarizes an object-graph check.
type VerifyReport struct {
	Roots     map[string]object.Hash // ref name -> commit the walk started from
	Reachable int                    // readable objects reached from the roots
	Missing   []object.Hash          // referenced but absent
	Corrupt   []object.Hash          // present but undecodable, reachable or not
	Dangling  []object.Hash          // readable but unreachable from any root
}

// OK reports whether no missing or corrupt objects were found. Dangling
// objects are expected after aborted merges and are not an error.
func (r *VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Corrupt) == 0
}

// Verify walks every object reachable from refs, HEAD and a pending merge,
// then checks the remaining objects in the store decode cleanly.
func (r *Repo) Verify() (*VerifyReport, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	roots := make(map[string]object.Hash, len(refs)+2)
	for name, h := range refs {
		roots["refs/"+name] = h
	}
	head, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if !strings.HasPrefix(head, "refs/") {
		if h, err := object.ParseHash(head); err == nil {
			roots["HEAD"] = h
		}
	}
	if pm, err := r.ReadPendingMerge(); err == nil {
		roots["MERGE_HEAD"] = pm.MergedTree
	} else if !errors.Is(err, ErrNoMergeInProgress) {
		return nil, fmt.Errorf("verify: %w", err)
	}

	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)
	start := make([]object.Hash, 0, len(names))
	for _, name := range names {
		start = append(start, roots[name])
	}

	reach, err := r.Store.ReachableSet(start)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report := &VerifyReport{
		Roots:     roots,
		Reachable: len(reach.Objects),
		Missing:   reach.Missing,
	}

	corrupt := make(map[object.Hash]bool, len(reach.Corrupt))
	for _, h := range reach.Corrupt {
		corrupt[h] = true
	}
	all, err := r.Store.List()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, h := range all {
		if _, ok := reach.Objects[h]; ok || corrupt[h] {
			continue
		}
		if _, _, err := r.Store.Read(h); err != nil {
			if errors.Is(err, object.ErrCorruptObject) {
				corrupt[h] = true
				continue
			}
			return nil, fmt.Errorf("verify: %w", err)
		}
		report.Dangling = append(report.Dangling, h)
	}
	for h := range corrupt {
		report.Corrupt = append(report.Corrupt, h)
	}
	sort.Slice(report.Corrupt, func(i, j int) bool { return report.Corrupt[i] < report.Corrupt[j] })

	if !report.OK() {
		r.log().Warn("verify found problems", "missing", len(report.Missing), "corrupt", len(report.Corrupt))
	}
	return report, nil
}
