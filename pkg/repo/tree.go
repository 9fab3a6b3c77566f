package repo

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/knyt/pkg/object"
)

// maxTreeDepth bounds directory nesting when building, flattening and
// staging trees.
const maxTreeDepth = 512

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode string
	Hash object.Hash
}

// treeNode is either a *fileNode or a *dirNode.
type treeNode interface {
	isTreeNode()
}

type fileNode struct {
	mode string
	hash object.Hash
}

type dirNode struct {
	children map[string]treeNode
}

func (*fileNode) isTreeNode() {}
func (*dirNode) isTreeNode()  {}

func newDirNode() *dirNode {
	return &dirNode{children: make(map[string]treeNode)}
}

// insert places a file at the slash-separated path p.
func (d *dirNode) insert(p string, f *fileNode) error {
	segs := strings.Split(p, "/")
	if len(segs) > maxTreeDepth {
		return fmt.Errorf("insert %q: %w (%d levels)", p, ErrTreeTooDeep, len(segs))
	}
	for _, s := range segs {
		if s == "" || s == "." || s == ".." {
			return fmt.Errorf("insert %q: invalid path segment %q", p, s)
		}
	}

	cur := d
	for i, s := range segs[:len(segs)-1] {
		switch child := cur.children[s].(type) {
		case nil:
			next := newDirNode()
			cur.children[s] = next
			cur = next
		case *dirNode:
			cur = child
		case *fileNode:
			return fmt.Errorf("insert %q: %q is a file", p, strings.Join(segs[:i+1], "/"))
		}
	}

	name := segs[len(segs)-1]
	if _, isDir := cur.children[name].(*dirNode); isDir {
		return fmt.Errorf("insert %q: path is a directory", p)
	}
	cur.children[name] = f
	return nil
}

// BuildTree converts the flat index entries into a hierarchical tree,
// writing tree objects bottom-up and returning the root hash. Entries are
// written sorted by name, so the result depends only on the set of
// entries.
func (r *Repo) BuildTree(entries []IndexEntry) (object.Hash, error) {
	files := make([]TreeFileEntry, len(entries))
	for i, e := range entries {
		files[i] = TreeFileEntry{Path: e.Path, Mode: object.TreeModeFile, Hash: e.Digest}
	}
	return r.writeTreeFiles(files)
}

// writeTreeFiles builds and writes a nested tree from flattened entries.
func (r *Repo) writeTreeFiles(files []TreeFileEntry) (object.Hash, error) {
	root := newDirNode()
	for _, f := range files {
		mode := f.Mode
		if mode == "" {
			mode = object.TreeModeFile
		}
		if err := root.insert(f.Path, &fileNode{mode: mode, hash: f.Hash}); err != nil {
			return "", fmt.Errorf("build tree: %w", err)
		}
	}
	return r.writeDirNode(root, "")
}

func (r *Repo) writeDirNode(d *dirNode, prefix string) (object.Hash, error) {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		switch child := d.children[name].(type) {
		case *fileNode:
			entries = append(entries, object.TreeEntry{Mode: child.mode, Name: name, Hash: child.hash})
		case *dirNode:
			childPrefix := path.Join(prefix, name)
			subHash, err := r.writeDirNode(child, childPrefix)
			if err != nil {
				return "", err
			}
			entries = append(entries, object.TreeEntry{Mode: object.TreeModeDir, Name: name, Hash: subHash})
		}
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes) in tree order.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "", 1)
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string, depth int) ([]TreeFileEntry, error) {
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("flatten tree %q: %w", prefix, ErrTreeTooDeep)
	}
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		if entry.Name == "" || entry.Name == "." || entry.Name == ".." || strings.ContainsRune(entry.Name, '/') {
			return nil, fmt.Errorf("flatten tree %s: %w: entry name %q", h, object.ErrCorruptObject, entry.Name)
		}
		fullPath := entry.Name
		if prefix != "" {
			fullPath = prefix + "/" + entry.Name
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath, depth+1)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{Path: fullPath, Mode: entry.Mode, Hash: entry.Hash})
		}
	}
	return result, nil
}

// flattenTreeMap is FlattenTree keyed by path. An empty hash yields an
// empty map.
func (r *Repo) flattenTreeMap(h object.Hash) (map[string]TreeFileEntry, error) {
	out := make(map[string]TreeFileEntry)
	if h == "" {
		return out, nil
	}
	files, err := r.FlattenTree(h)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		out[f.Path] = f
	}
	return out, nil
}

// RestoreTree writes every file of the tree into the working directory,
// creating parent directories and overwriting existing files. Files absent
// from the tree are left in place.
func (r *Repo) RestoreTree(h object.Hash) error {
	files, err := r.FlattenTree(h)
	if err != nil {
		return fmt.Errorf("restore tree: %w", err)
	}
	for _, f := range files {
		if f.Path == MetaDirName || strings.HasPrefix(f.Path, MetaDirName+"/") {
			r.log().Warn("restore tree: skipping metadata path", "path", f.Path)
			continue
		}
		blob, err := r.Store.ReadBlob(f.Hash)
		if err != nil {
			return fmt.Errorf("restore tree: %q: %w", f.Path, err)
		}
		abs := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return ioErr(fmt.Sprintf("restore tree: mkdir for %q", f.Path), err)
		}
		if err := os.WriteFile(abs, blob.Data, 0o644); err != nil {
			return ioErr(fmt.Sprintf("restore tree: write %q", f.Path), err)
		}
	}
	r.log().Debug("tree restored", "tree", h.Short(), "files", len(files))
	return nil
}

// commitTreeHash reads a commit and returns its tree hash.
func (r *Repo) commitTreeHash(commit object.Hash) (object.Hash, error) {
	c, err := r.commits().read(r, commit)
	if err != nil {
		return "", err
	}
	return c.TreeHash, nil
}
