package repo

import (
	"reflect"
	"testing"
)

func TestTags_SequentialPerCommit(t *testing.T) {
	r := initTestRepo(t)
	c1 := commitFiles(t, r, "one", map[string]string{"a": "1"})
	c2 := commitFiles(t, r, "two", map[string]string{"a": "2"})
	c3 := commitFiles(t, r, "three", map[string]string{"a": "3"})

	tags, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	want := []Tag{
		{Name: "v1", Number: 1, Hash: c1},
		{Name: "v2", Number: 2, Hash: c2},
		{Name: "v3", Number: 3, Hash: c3},
	}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %+v, want %+v", tags, want)
	}
	names, err := r.TagsFor(c2)
	if err != nil {
		t.Fatalf("TagsFor: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"v2"}) {
		t.Errorf("TagsFor = %v", names)
	}
	if h, err := r.ResolveTag("v3"); err != nil || h != c3 {
		t.Errorf("ResolveTag(v3) = %s, %v", h, err)
	}
}

func TestTags_NumberContinuesFromHighest(t *testing.T) {
	r := initTestRepo(t)
	setRef(t, r, "refs/tags/v7", hexHash(7))
	setRef(t, r, "refs/tags/release", hexHash(8))
	h := commitFiles(t, r, "one", map[string]string{"a": "1"})
	if got := mustResolve(t, r, "refs/tags/v8"); got != h {
		t.Errorf("v8 = %s, want %s", got, h)
	}

	tags, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	var order []string
	for _, tg := range tags {
		order = append(order, tg.Name)
	}
	if !reflect.DeepEqual(order, []string{"release", "v7", "v8"}) {
		t.Errorf("tag order = %v", order)
	}
}

func TestTags_AcrossBranchesShareSequence(t *testing.T) {
	r := initTestRepo(t)
	commitFiles(t, r, "one", map[string]string{"a": "1"})
	mustCreateBranch(t, r, "feature")
	mustCheckout(t, r, "feature")
	h := commitFiles(t, r, "two", map[string]string{"a": "2"})
	if got := mustResolve(t, r, "refs/tags/v2"); got != h {
		t.Errorf("v2 = %s, want %s", got, h)
	}
}

func TestParseSequenceTag(t *testing.T) {
	tests := []struct {
		name string
		n    int
		ok   bool
	}{
		{"v1", 1, true},
		{"v42", 42, true},
		{"v0", 0, false},
		{"v", 0, false},
		{"v1.2", 0, false},
		{"x3", 0, false},
		{"v-1", 0, false},
		{"release", 0, false},
	}
	for _, tt := range tests {
		n, ok := parseSequenceTag(tt.name)
		if n != tt.n || ok != tt.ok {
			t.Errorf("parseSequenceTag(%q) = %d, %v; want %d, %v", tt.name, n, ok, tt.n, tt.ok)
		}
	}
}
