package repo

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreList is a set of repository-relative path prefixes. A path is
// ignored when it starts with any prefix.
type IgnoreList []string

// ParseIgnoreList reads one prefix per line, skipping blank lines and lines
// starting with '#'. Surrounding whitespace is trimmed and a leading "./" is
// dropped.
func ParseIgnoreList(data []byte) IgnoreList {
	var list IgnoreList
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(filepath.ToSlash(line), "./")
		if line == "" {
			continue
		}
		list = append(list, line)
	}
	return list
}

// LoadIgnoreList reads the ignore file at root/name. A missing file yields
// an empty list.
func LoadIgnoreList(root, name string) (IgnoreList, error) {
	data, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ioErr("load ignore list", err)
	}
	return ParseIgnoreList(data), nil
}

// LoadIgnoreList reads the repository's configured ignore file.
func (r *Repo) LoadIgnoreList() (IgnoreList, error) {
	return LoadIgnoreList(r.RootDir, r.ignoreFileName())
}

// Matches reports whether the repository-relative path starts with any
// prefix in the list.
func (l IgnoreList) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, p := range l {
		if strings.HasPrefix(relPath, p) {
			return true
		}
	}
	return false
}

func (r *Repo) ignoreFileName() string {
	if r.Config == nil || r.Config.Core.IgnoreFile == "" {
		return DefaultConfig().Core.IgnoreFile
	}
	return filepath.ToSlash(r.Config.Core.IgnoreFile)
}

// isMetadataPath reports whether a repository-relative path is the metadata
// directory, something inside it, or the ignore file itself.
func (r *Repo) isMetadataPath(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if relPath == MetaDirName || strings.HasPrefix(relPath, MetaDirName+"/") {
		return true
	}
	return relPath == r.ignoreFileName()
}
