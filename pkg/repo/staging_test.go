package repo

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/odvcencio/knyt/pkg/object"
)

func TestStageAdd_SingleFile(t *testing.T) {
	r := initTestRepo(t)
	writeWorkFile(t, r, "a.txt", "hello")

	staged, err := r.StageAdd("a.txt", nil)
	if err != nil {
		t.Fatalf("StageAdd: %v", err)
	}
	if !reflect.DeepEqual(staged, []string{"a.txt"}) {
		t.Errorf("staged = %v", staged)
	}

	entries, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	want := []IndexEntry{{Path: "a.txt", Digest: "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0"}}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("index = %+v, want %+v", entries, want)
	}
	if !r.Store.Has(want[0].Digest) {
		t.Error("blob not written to the store")
	}
}

func TestStageAdd_IndexJSONLayout(t *testing.T) {
	r := initTestRepo(t)
	writeWorkFile(t, r, "a.txt", "hello")
	if _, err := r.StageAdd("a.txt", nil); err != nil {
		t.Fatalf("StageAdd: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(r.KnytDir, "index"))
	if err != nil {
		t.Fatal(err)
	}
	var generic []map[string]string
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("index is not a JSON array of objects: %v\n%s", err, raw)
	}
	if len(generic) != 1 || generic[0]["path"] != "a.txt" || generic[0]["digest"] == "" {
		t.Errorf("index JSON = %s", raw)
	}
}

func TestStageAdd_DirectoryRecursesInOrder(t *testing.T) {
	r := initTestRepo(t)
	writeWorkFile(t, r, "src/b.go", "b")
	writeWorkFile(t, r, "src/a.go", "a")
	writeWorkFile(t, r, "src/nested/c.go", "c")
	writeWorkFile(t, r, "top.txt", "t")

	staged, err := r.StageAdd(".", nil)
	if err != nil {
		t.Fatalf("StageAdd: %v", err)
	}
	want := []string{"src/a.go", "src/b.go", "src/nested/c.go", "top.txt"}
	if !reflect.DeepEqual(staged, want) {
		t.Errorf("staged = %v, want %v", staged, want)
	}
}

func TestStageAdd_RestageReplacesDigest(t *testing.T) {
	r := initTestRepo(t)
	writeWorkFile(t, r, "a.txt", "one")
	writeWorkFile(t, r, "b.txt", "b")
	if _, err := r.StageAdd(".", nil); err != nil {
		t.Fatalf("StageAdd: %v", err)
	}
	writeWorkFile(t, r, "a.txt", "two")
	if _, err := r.StageAdd("a.txt", nil); err != nil {
		t.Fatalf("StageAdd: %v", err)
	}

	entries, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("index has %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Path != "a.txt" || entries[0].Digest != object.HashObject(object.TypeBlob, []byte("two")) {
		t.Errorf("a.txt entry = %+v", entries[0])
	}
}

func TestStageAdd_SkipsMetadataAndIgnored(t *testing.T) {
	r := initTestRepo(t)
	writeWorkFile(t, r, "keep.txt", "k")
	writeWorkFile(t, r, "build/out.bin", "o")
	writeWorkFile(t, r, "notes.log", "n")

	ignore := ParseIgnoreList([]byte("build/\nnotes\n"))
	staged, err := r.StageAdd(".", ignore)
	if err != nil {
		t.Fatalf("StageAdd: %v", err)
	}
	if !reflect.DeepEqual(staged, []string{"keep.txt"}) {
		t.Errorf("staged = %v, want [keep.txt]", staged)
	}

	staged, err = r.StageAdd(".knyt/HEAD", nil)
	if err != nil {
		t.Fatalf("StageAdd(.knyt/HEAD): %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("metadata staged: %v", staged)
	}
}

func TestStageAdd_SymlinkIntoMetadataSkipped(t *testing.T) {
	r := initTestRepo(t)
	link := filepath.Join(r.RootDir, "head-link")
	if err := os.Symlink(filepath.Join(r.KnytDir, "HEAD"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	staged, err := r.StageAdd("head-link", nil)
	if err != nil {
		t.Fatalf("StageAdd: %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("symlink into metadata staged: %v", staged)
	}
}

func TestStageAdd_MissingPath(t *testing.T) {
	r := initTestRepo(t)
	_, err := r.StageAdd("nope.txt", nil)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("StageAdd(missing): got %v, want fs.ErrNotExist", err)
	}
	if !errors.Is(err, ErrIOFailure) {
		t.Errorf("error should wrap ErrIOFailure: %v", err)
	}
}

func TestStageAdd_RejectsPathOutsideRepo(t *testing.T) {
	r := initTestRepo(t)
	if _, err := r.StageAdd("../escape.txt", nil); err == nil {
		t.Fatal("expected error for path outside repository")
	}
}

func TestStageAdd_NormalizesUTF16(t *testing.T) {
	r := initTestRepo(t)
	utf16 := []byte{0xFF, 0xFE, 'h', 0, 'i', 0, '\n', 0}
	if err := os.WriteFile(filepath.Join(r.RootDir, "u.txt"), utf16, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.StageAdd("u.txt", nil); err != nil {
		t.Fatalf("StageAdd: %v", err)
	}
	entries, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	blob, err := r.Store.ReadBlob(entries[0].Digest)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "hi\n" {
		t.Errorf("blob = %q, want UTF-8 %q", blob.Data, "hi\n")
	}
}

func TestReadIndex_Missing(t *testing.T) {
	r := initTestRepo(t)
	if _, err := r.ReadIndex(); !errors.Is(err, ErrIndexMissing) {
		t.Fatalf("ReadIndex: got %v, want ErrIndexMissing", err)
	}
}

func TestReadIndex_RejectsBadDigest(t *testing.T) {
	r := initTestRepo(t)
	body := `[{"path":"a.txt","digest":"xyz"}]`
	if err := os.WriteFile(filepath.Join(r.KnytDir, "index"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadIndex(); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestUnstage(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantRemoved int
		wantPaths   []string
	}{
		{"single path", "a.txt", 1, []string{"b.txt"}},
		{"dot clears", ".", 2, nil},
		{"not staged is a no-op", "c.txt", 0, []string{"a.txt", "b.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := initTestRepo(t)
			writeWorkFile(t, r, "a.txt", "a")
			writeWorkFile(t, r, "b.txt", "b")
			if _, err := r.StageAdd(".", nil); err != nil {
				t.Fatalf("StageAdd: %v", err)
			}

			removed, err := r.Unstage(tt.path)
			if err != nil {
				t.Fatalf("Unstage(%q): %v", tt.path, err)
			}
			if removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}
			entries, err := r.ReadIndex()
			if err != nil {
				t.Fatalf("ReadIndex: %v", err)
			}
			var paths []string
			for _, e := range entries {
				paths = append(paths, e.Path)
			}
			if !reflect.DeepEqual(paths, tt.wantPaths) {
				t.Errorf("index paths = %v, want %v", paths, tt.wantPaths)
			}
		})
	}
}

func TestUnstage_NoIndex(t *testing.T) {
	r := initTestRepo(t)
	if _, err := r.Unstage("a.txt"); !errors.Is(err, ErrIndexMissing) {
		t.Fatalf("Unstage: got %v, want ErrIndexMissing", err)
	}
}
