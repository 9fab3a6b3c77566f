package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/knyt/pkg/object"
)

// Init creates a new knyt repository at path. It creates the .knyt/
// directory structure (objects/, refs/heads/, refs/tags/), a symbolic HEAD
// pointing at the default branch, a default config.toml, and an empty
// ignore file if none exists. The index is created by the first add.
// Returns an error if a .knyt/ directory already exists.
func Init(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	knytDir := filepath.Join(abs, MetaDirName)

	if _, err := os.Stat(knytDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", knytDir)
	}

	dirs := []string{
		filepath.Join(knytDir, "objects"),
		filepath.Join(knytDir, "refs", "heads"),
		filepath.Join(knytDir, "refs", "tags"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, ioErr("init: mkdir "+d, err)
		}
	}

	cfg := DefaultConfig()
	if err := writeConfigFile(knytDir, cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	head := "ref: refs/heads/" + cfg.Core.DefaultBranch + "\n"
	if err := os.WriteFile(filepath.Join(knytDir, "HEAD"), []byte(head), 0o644); err != nil {
		return nil, ioErr("init: write HEAD", err)
	}

	ignorePath := filepath.Join(abs, cfg.Core.IgnoreFile)
	if _, err := os.Stat(ignorePath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(ignorePath, nil, 0o644); err != nil {
			return nil, ioErr("init: write ignore file", err)
		}
	}

	return newRepo(abs, knytDir, cfg), nil
}

// Open searches upward from path for a .knyt/ directory and opens the
// repository. Returns an error if no .knyt/ directory is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		knytDir := filepath.Join(cur, MetaDirName)
		info, err := os.Stat(knytDir)
		if err == nil && info.IsDir() {
			cfg, err := readConfig(knytDir)
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			return newRepo(cur, knytDir, cfg), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a knyt repository (or any parent up to /)")
		}
		cur = parent
	}
}

// Head reads .knyt/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.KnytDir, "HEAD"))
	if err != nil {
		return "", ioErr("head", err)
	}
	content := strings.TrimSpace(string(data))

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimSpace(strings.TrimPrefix(content, "ref: ")), nil
	}
	return content, nil
}

// setHeadSymbolic points HEAD at refs/heads/<branch>.
func (r *Repo) setHeadSymbolic(branch string) error {
	content := "ref: refs/heads/" + branch + "\n"
	if err := writeFileAtomic(filepath.Join(r.KnytDir, "HEAD"), []byte(content)); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target ref.
//  2. If name starts with "refs/", read .knyt/<name>.
//  3. Otherwise, try "refs/heads/<name>".
//
// A missing ref file yields an error wrapping fs.ErrNotExist.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		h, err := object.ParseHash(head)
		if err != nil {
			return "", fmt.Errorf("resolve ref HEAD: %w: %w", object.ErrCorruptObject, err)
		}
		return h, nil
	}

	var refPath string
	if strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.KnytDir, filepath.FromSlash(name))
	} else {
		refPath = filepath.Join(r.KnytDir, "refs", "heads", filepath.FromSlash(name))
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		return "", ioErr(fmt.Sprintf("resolve ref %q", name), err)
	}
	h, err := object.ParseHash(string(data))
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w: %w", name, object.ErrCorruptObject, err)
	}
	return h, nil
}

// resolveBranch resolves refs/heads/<name>, mapping a missing ref to
// ErrBranchNotFound.
func (r *Repo) resolveBranch(name string) (object.Hash, error) {
	if err := validateRefName(name); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrBranchNotFound, name, err)
	}
	h, err := r.ResolveRef("refs/heads/" + name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrBranchNotFound, name)
		}
		return "", err
	}
	return h, nil
}

// CurrentCommit returns the commit HEAD resolves to, or "" when the current
// branch has no commits yet.
func (r *Repo) CurrentCommit() (object.Hash, error) {
	h, err := r.ResolveRef("HEAD")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return h, nil
}
