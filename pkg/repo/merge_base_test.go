package repo

import (
	"fmt"
	"testing"

	"github.com/odvcencio/knyt/pkg/object"
)

var commitSeq int

// writeRawCommit stores a commit over the empty tree without touching refs.
func writeRawCommit(t *testing.T, r *Repo, parents ...object.Hash) object.Hash {
	t.Helper()
	tree, err := r.BuildTree(nil)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	commitSeq++
	sig := object.Signature{Name: "t", Email: "t@example.com", When: 1, Offset: "+0000"}
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   fmt.Sprintf("c%d", commitSeq),
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	return h
}

func TestFindMergeBase_Linear(t *testing.T) {
	r := initTestRepo(t)
	c1 := writeRawCommit(t, r)
	c2 := writeRawCommit(t, r, c1)
	c3 := writeRawCommit(t, r, c2)

	for _, tt := range []struct {
		a, b, want object.Hash
	}{
		{c3, c1, c1},
		{c1, c3, c1},
		{c2, c2, c2},
		{c3, "", ""},
	} {
		got, err := r.FindMergeBase(tt.a, tt.b)
		if err != nil {
			t.Fatalf("FindMergeBase: %v", err)
		}
		if got != tt.want {
			t.Errorf("FindMergeBase(%s, %s) = %s, want %s", tt.a.Short(), tt.b.Short(), got.Short(), tt.want.Short())
		}
	}
}

func TestFindMergeBase_Diverged(t *testing.T) {
	r := initTestRepo(t)
	root := writeRawCommit(t, r)
	fork := writeRawCommit(t, r, root)
	left := writeRawCommit(t, r, writeRawCommit(t, r, fork))
	right := writeRawCommit(t, r, fork)

	got, err := r.FindMergeBase(left, right)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if got != fork {
		t.Errorf("base = %s, want fork %s", got.Short(), fork.Short())
	}
}

func TestFindMergeBase_Unrelated(t *testing.T) {
	r := initTestRepo(t)
	a := writeRawCommit(t, r)
	b := writeRawCommit(t, r)
	got, err := r.FindMergeBase(a, b)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if got != "" {
		t.Errorf("base = %s, want none", got)
	}
}

func TestFindMergeBase_FirstParentWins(t *testing.T) {
	r := initTestRepo(t)
	root := writeRawCommit(t, r)
	x1 := writeRawCommit(t, r, root)
	x2 := writeRawCommit(t, r, root)
	a := writeRawCommit(t, r, x1, x2)

	for _, tt := range []struct {
		parents []object.Hash
		want    object.Hash
	}{
		{[]object.Hash{x1, x2}, x1},
		{[]object.Hash{x2, x1}, x2},
	} {
		b := writeRawCommit(t, r, tt.parents...)
		got, err := r.FindMergeBase(a, b)
		if err != nil {
			t.Fatalf("FindMergeBase: %v", err)
		}
		if got != tt.want {
			t.Errorf("base = %s, want %s", got.Short(), tt.want.Short())
		}
	}
}

func TestFindMergeBase_StepLimit(t *testing.T) {
	prev := mergeBaseStepsLimit
	mergeBaseStepsLimit = 3
	t.Cleanup(func() { mergeBaseStepsLimit = prev })

	r := initTestRepo(t)
	tip := writeRawCommit(t, r)
	for i := 0; i < 5; i++ {
		tip = writeRawCommit(t, r, tip)
	}
	other := writeRawCommit(t, r)
	if _, err := r.FindMergeBase(tip, other); err == nil {
		t.Fatal("expected traversal limit error")
	}
}

func TestFindMergeBase_MissingCommit(t *testing.T) {
	r := initTestRepo(t)
	a := writeRawCommit(t, r, hexHash(9))
	if _, err := r.FindMergeBase(a, writeRawCommit(t, r)); err == nil {
		t.Fatal("expected error for missing parent commit")
	}
}
