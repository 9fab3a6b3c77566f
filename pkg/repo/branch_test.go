package repo

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestBranch_CreateList(t *testing.T) {
	r := initTestRepo(t)
	head := commitFiles(t, r, "one", map[string]string{"a": "1"})

	mustCreateBranch(t, r, "feature")
	mustCreateBranch(t, r, "team/topic")

	if got := mustResolve(t, r, "feature"); got != head {
		t.Errorf("feature = %s, want %s", got, head)
	}
	branches, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	if want := []string{"feature", "main", "team/topic"}; !reflect.DeepEqual(branches, want) {
		t.Errorf("branches = %v, want %v", branches, want)
	}

	name, attached, err := r.CurrentBranch()
	if err != nil || !attached || name != "main" {
		t.Errorf("CurrentBranch = %q, %v, %v; want main", name, attached, err)
	}
}

func TestBranch_CreateErrors(t *testing.T) {
	t.Run("no commits", func(t *testing.T) {
		r := initTestRepo(t)
		if err := r.CreateBranch("feature"); !errors.Is(err, ErrNoCommitsYet) {
			t.Errorf("got %v, want ErrNoCommitsYet", err)
		}
	})
	t.Run("exists", func(t *testing.T) {
		r := initTestRepo(t)
		first := commitFiles(t, r, "one", map[string]string{"a": "1"})
		mustCreateBranch(t, r, "feature")
		commitFiles(t, r, "two", map[string]string{"a": "2"})
		if err := r.CreateBranch("feature"); !errors.Is(err, ErrBranchExists) {
			t.Errorf("got %v, want ErrBranchExists", err)
		}
		if got := mustResolve(t, r, "feature"); got != first {
			t.Errorf("existing branch moved to %s", got)
		}
	})
	t.Run("detached", func(t *testing.T) {
		r := initTestRepo(t)
		h := commitFiles(t, r, "one", map[string]string{"a": "1"})
		if err := os.WriteFile(filepath.Join(r.KnytDir, "HEAD"), []byte(string(h)+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := r.CreateBranch("feature"); !errors.Is(err, ErrDetachedHead) {
			t.Errorf("got %v, want ErrDetachedHead", err)
		}
	})
	t.Run("invalid names", func(t *testing.T) {
		r := initTestRepo(t)
		commitFiles(t, r, "one", map[string]string{"a": "1"})
		for _, name := range []string{"", "../x", "a..b", "-x", "x.lock", "a b", "a:b", "/x", "x/", ".hidden", "a/.b"} {
			if err := r.CreateBranch(name); err == nil {
				t.Errorf("CreateBranch(%q) succeeded", name)
			}
		}
	})
}

func TestBranch_ConcurrentCreateSingleWinner(t *testing.T) {
	r := initTestRepo(t)
	head := commitFiles(t, r, "one", map[string]string{"a": "1"})

	const workers = 12
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			errCh <- r.CreateBranch("feature")
		}()
	}
	wg.Wait()
	close(errCh)

	successes, duplicates := 0, 0
	for err := range errCh {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrBranchExists):
			duplicates++
		default:
			t.Fatalf("unexpected CreateBranch error: %v", err)
		}
	}
	if successes != 1 || duplicates != workers-1 {
		t.Fatalf("successes = %d, duplicates = %d", successes, duplicates)
	}
	if got := mustResolve(t, r, "feature"); got != head {
		t.Fatalf("feature = %s, want %s", got, head)
	}
}

func TestBranch_ListEmpty(t *testing.T) {
	r := initTestRepo(t)
	branches, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	if len(branches) != 0 {
		t.Errorf("branches = %v, want none before the first commit", branches)
	}
}
