package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

var conflictMarkers = [][]byte{
	[]byte("<<<<<<<"),
	[]byte("======="),
	[]byte(">>>>>>>"),
}

func hasConflictMarkers(data []byte) bool {
	for _, m := range conflictMarkers {
		if bytes.Contains(data, m) {
			return true
		}
	}
	return false
}

// filesWithConflictMarkers returns, sorted, the repository-relative paths
// whose working-directory content contains a conflict marker. Paths that
// no longer exist or are not regular files are skipped. Content is decoded
// first so UTF-16 files are scanned as text.
func (r *Repo) filesWithConflictMarkers(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		abs := filepath.Join(r.RootDir, filepath.FromSlash(p))
		info, err := os.Stat(abs)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, ioErr(fmt.Sprintf("scan %q", p), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, ioErr(fmt.Sprintf("scan %q", p), err)
		}
		if hasConflictMarkers([]byte(decodeText(data))) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// workingFiles lists every regular file in the working directory as a
// repository-relative slash path, skipping the metadata directory and the
// ignore file. Symlinks are not followed.
func (r *Repo) workingFiles() ([]string, error) {
	var out []string
	err := filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if r.isMetadataPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, ioErr("walk working directory", err)
	}
	sort.Strings(out)
	return out, nil
}
