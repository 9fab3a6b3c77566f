package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/knyt/pkg/object"
)

// StatusReport classifies working-directory files against the index.
// All lists are sorted repository-relative slash paths.
type StatusReport struct {
	Staged    []string // working content matches the staged digest
	Modified  []string // staged, but working content differs
	Deleted   []string // staged, but missing from the working directory
	Untracked []string // present on disk, absent from the index, not ignored
}

// Clean reports whether nothing is modified, deleted or untracked.
func (s *StatusReport) Clean() bool {
	return len(s.Modified) == 0 && len(s.Deleted) == 0 && len(s.Untracked) == 0
}

// Status compares the working directory with the index. Working content is
// normalized the same way StageAdd normalizes it before hashing, so a
// freshly staged UTF-16 file reports as staged.
func (r *Repo) Status() (*StatusReport, error) {
	entries, err := r.readIndexOrEmpty()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	ignore, err := r.LoadIgnoreList()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	files, err := r.workingFiles()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	staged := make(map[string]object.Hash, len(entries))
	for _, e := range entries {
		staged[e.Path] = e.Digest
	}

	report := &StatusReport{}
	seen := make(map[string]bool, len(files))
	for _, p := range files {
		seen[p] = true
		digest, ok := staged[p]
		if !ok {
			if !ignore.Matches(p) {
				report.Untracked = append(report.Untracked, p)
			}
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(p)))
		if err != nil {
			return nil, ioErr(fmt.Sprintf("status %q", p), err)
		}
		if object.HashObject(object.TypeBlob, normalizeContent(data)) == digest {
			report.Staged = append(report.Staged, p)
		} else {
			report.Modified = append(report.Modified, p)
		}
	}
	for p := range staged {
		if !seen[p] {
			report.Deleted = append(report.Deleted, p)
		}
	}
	sort.Strings(report.Deleted)
	return report, nil
}
