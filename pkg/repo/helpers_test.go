package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/knyt/pkg/object"
)

// initTestRepo creates a repository in a fresh temp dir.
func initTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

// fixClock pins commit timestamps for the duration of the test.
func fixClock(t *testing.T, unix int64) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Unix(unix, 0) }
	t.Cleanup(func() { now = prev })
}

func writeWorkFile(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	abs := filepath.Join(r.RootDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func readWorkFile(t *testing.T, r *Repo, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// commitFiles writes files, stages each one and commits.
func commitFiles(t *testing.T, r *Repo, message string, files map[string]string) object.Hash {
	t.Helper()
	for rel, content := range files {
		writeWorkFile(t, r, rel, content)
		if _, err := r.StageAdd(rel, nil); err != nil {
			t.Fatalf("StageAdd(%s): %v", rel, err)
		}
	}
	h, err := r.Commit(message)
	if err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
	return h
}

func mustResolve(t *testing.T, r *Repo, name string) object.Hash {
	t.Helper()
	h, err := r.ResolveRef(name)
	if err != nil {
		t.Fatalf("ResolveRef(%s): %v", name, err)
	}
	return h
}

func mustCheckout(t *testing.T, r *Repo, name string) {
	t.Helper()
	if err := r.Checkout(name); err != nil {
		t.Fatalf("Checkout(%s): %v", name, err)
	}
}

func mustCreateBranch(t *testing.T, r *Repo, name string) {
	t.Helper()
	if err := r.CreateBranch(name); err != nil {
		t.Fatalf("CreateBranch(%s): %v", name, err)
	}
}

// treeFiles returns the flattened content of a commit's tree, by path.
func treeFiles(t *testing.T, r *Repo, commit object.Hash) map[string]string {
	t.Helper()
	tree, err := r.commitTreeHash(commit)
	if err != nil {
		t.Fatalf("commitTreeHash: %v", err)
	}
	files, err := r.FlattenTree(tree)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		blob, err := r.Store.ReadBlob(f.Hash)
		if err != nil {
			t.Fatalf("ReadBlob(%s): %v", f.Path, err)
		}
		out[f.Path] = string(blob.Data)
	}
	return out
}
