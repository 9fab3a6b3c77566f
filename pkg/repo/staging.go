package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/knyt/pkg/object"
)

// IndexEntry records the staged blob for a single path.
type IndexEntry struct {
	Path   string      `json:"path"`
	Digest object.Hash `json:"digest"`
}

// indexPath returns the filesystem path to the staging index file.
func (r *Repo) indexPath() string {
	return filepath.Join(r.KnytDir, "index")
}

// ReadIndex loads .knyt/index. A missing file yields ErrIndexMissing.
func (r *Repo) ReadIndex() ([]IndexEntry, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read index: %w", ErrIndexMissing)
		}
		return nil, ioErr("read index", err)
	}

	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("read index: unmarshal: %w", err)
	}
	for i, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("read index: entry %d: empty path", i)
		}
		if _, err := object.ParseHash(string(e.Digest)); err != nil {
			return nil, fmt.Errorf("read index: entry %q: %w", e.Path, err)
		}
	}
	return entries, nil
}

// WriteIndex atomically writes the entries to .knyt/index.
func (r *Repo) WriteIndex(entries []IndexEntry) error {
	if entries == nil {
		entries = []IndexEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("write index: marshal: %w", err)
	}
	if err := writeFileAtomic(r.indexPath(), data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// readIndexOrEmpty is ReadIndex with a missing index treated as empty.
func (r *Repo) readIndexOrEmpty() ([]IndexEntry, error) {
	entries, err := r.ReadIndex()
	if errors.Is(err, ErrIndexMissing) {
		return nil, nil
	}
	return entries, err
}

// StageAdd stages the file or directory at path, resolved relative to the
// repository root. Paths matching an ignore prefix are skipped silently;
// the metadata directory, the ignore file and symlinks resolving into the
// metadata directory are always skipped. Directories are walked in name
// order. Each regular file is normalized, written as a blob and upserted
// into the index, which is written once at the end. It returns the staged
// paths.
func (r *Repo) StageAdd(path string, ignore IgnoreList) ([]string, error) {
	relPath, err := r.repoRelPath(path)
	if err != nil {
		return nil, fmt.Errorf("stage add: resolve path %q: %w", path, err)
	}

	entries, err := r.readIndexOrEmpty()
	if err != nil {
		return nil, fmt.Errorf("stage add: %w", err)
	}
	pos := make(map[string]int, len(entries))
	for i, e := range entries {
		pos[e.Path] = i
	}

	st := &stager{repo: r, ignore: ignore, entries: entries, pos: pos}
	if err := st.add(relPath, 0); err != nil {
		return nil, fmt.Errorf("stage add: %w", err)
	}

	if len(st.staged) > 0 || entries == nil {
		if err := r.WriteIndex(st.entries); err != nil {
			return nil, fmt.Errorf("stage add: %w", err)
		}
	}
	return st.staged, nil
}

type stager struct {
	repo    *Repo
	ignore  IgnoreList
	entries []IndexEntry
	pos     map[string]int
	staged  []string
}

func (s *stager) add(relPath string, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("%q: %w", relPath, ErrTreeTooDeep)
	}
	if relPath != "." {
		if s.repo.isMetadataPath(relPath) {
			s.repo.log().Debug("skipping metadata path", "path", relPath)
			return nil
		}
		if s.ignore.Matches(relPath) {
			s.repo.log().Debug("skipping ignored path", "path", relPath)
			return nil
		}
	}

	absPath := filepath.Join(s.repo.RootDir, filepath.FromSlash(relPath))
	info, err := os.Lstat(absPath)
	if err != nil {
		return ioErr(fmt.Sprintf("stat %q", relPath), err)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(absPath)
		if err != nil {
			return ioErr(fmt.Sprintf("resolve symlink %q", relPath), err)
		}
		if s.repo.insideMetadata(target) {
			s.repo.log().Warn("skipping symlink into repository metadata", "path", relPath)
			return nil
		}
		info, err = os.Stat(target)
		if err != nil {
			return ioErr(fmt.Sprintf("stat %q", relPath), err)
		}
		if info.IsDir() {
			s.repo.log().Warn("skipping symlinked directory", "path", relPath)
			return nil
		}
	}

	switch {
	case info.IsDir():
		children, err := os.ReadDir(absPath)
		if err != nil {
			return ioErr(fmt.Sprintf("read dir %q", relPath), err)
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
		for _, c := range children {
			child := c.Name()
			if relPath != "." {
				child = relPath + "/" + child
			}
			if err := s.add(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	case info.Mode().IsRegular():
		return s.addFile(relPath, absPath)
	default:
		s.repo.log().Warn("skipping non-regular file", "path", relPath, "mode", info.Mode().String())
		return nil
	}
}

func (s *stager) addFile(relPath, absPath string) error {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return ioErr(fmt.Sprintf("read %q", relPath), err)
	}
	h, err := s.repo.Store.WriteBlob(&object.Blob{Data: normalizeContent(content)})
	if err != nil {
		return fmt.Errorf("write blob %q: %w", relPath, err)
	}

	if i, ok := s.pos[relPath]; ok {
		s.entries[i].Digest = h
	} else {
		s.pos[relPath] = len(s.entries)
		s.entries = append(s.entries, IndexEntry{Path: relPath, Digest: h})
	}
	s.staged = append(s.staged, relPath)
	s.repo.log().Debug("staged", "path", relPath, "blob", h.Short())
	return nil
}

// insideMetadata reports whether an absolute, symlink-free path lies in the
// metadata directory.
func (r *Repo) insideMetadata(abs string) bool {
	meta := r.KnytDir
	if resolved, err := filepath.EvalSymlinks(meta); err == nil {
		meta = resolved
	}
	rel, err := filepath.Rel(meta, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Unstage removes path from the index, or clears the index when path is
// ".". It returns the number of removed entries; zero is a no-op that logs
// a warning. A missing index yields ErrIndexMissing.
func (r *Repo) Unstage(path string) (int, error) {
	entries, err := r.ReadIndex()
	if err != nil {
		return 0, fmt.Errorf("unstage: %w", err)
	}

	var kept []IndexEntry
	if path != "." {
		relPath, err := r.repoRelPath(path)
		if err != nil {
			return 0, fmt.Errorf("unstage: resolve path %q: %w", path, err)
		}
		kept = make([]IndexEntry, 0, len(entries))
		for _, e := range entries {
			if e.Path != relPath {
				kept = append(kept, e)
			}
		}
	}

	removed := len(entries) - len(kept)
	if removed == 0 {
		if path == "." {
			r.log().Warn("no files are staged")
		} else {
			r.log().Warn("path is not staged", "path", path)
		}
		return 0, nil
	}
	if err := r.WriteIndex(kept); err != nil {
		return 0, fmt.Errorf("unstage: %w", err)
	}
	return removed, nil
}

// repoRelPath converts a path (absolute, or relative to CWD) into a path
// relative to the repository root. If the path is already relative and does
// not resolve inside the repo root from CWD, it is assumed to already be
// repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%q is outside repository %q", p, r.RootDir)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	// Outside the repo from CWD: treat p as already repo-relative.
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		clean := filepath.ToSlash(filepath.Clean(p))
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return "", fmt.Errorf("%q is outside repository %q", p, r.RootDir)
		}
		return clean, nil
	}

	return filepath.ToSlash(rel), nil
}
