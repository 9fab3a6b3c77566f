package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUpdateRefCAS_WritesReflog(t *testing.T) {
	r := initTestRepo(t)
	h1, h2 := hexHash(1), hexHash(2)

	if err := r.UpdateRefCAS("refs/heads/main", h1, updateReason("first")); err != nil {
		t.Fatalf("UpdateRefCAS(h1): %v", err)
	}
	if err := r.UpdateRefCAS("refs/heads/main", h2, updateReason("second  move\nwith newline")); err != nil {
		t.Fatalf("UpdateRefCAS(h2): %v", err)
	}

	entries, err := r.ReadReflog("main", 10)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("reflog entries = %d, want 2", len(entries))
	}
	if entries[0].OldHash != h1 || entries[0].NewHash != h2 {
		t.Errorf("latest entry = %+v", entries[0])
	}
	if got := entries[0].Reason; got != updateReason("second move with newline") {
		t.Errorf("reason = %+v, want whitespace collapsed", got)
	}
	if entries[1].OldHash != "" || entries[1].NewHash != h1 {
		t.Errorf("first entry = %+v", entries[1])
	}
	if entries[0].Ref != "refs/heads/main" {
		t.Errorf("Ref = %q", entries[0].Ref)
	}
	assertFile(t, filepath.Join(r.KnytDir, "logs", "refs", "heads", "main"))
}

func TestReadReflog_RespectsLimit(t *testing.T) {
	r := initTestRepo(t)
	for i := 0; i < 5; i++ {
		setRef(t, r, "refs/heads/main", hexHash(i+1))
	}
	entries, err := r.ReadReflog("", 2)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 || entries[0].NewHash != hexHash(5) {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestReadReflog_MissingLogIsEmpty(t *testing.T) {
	r := initTestRepo(t)
	entries, err := r.ReadReflog("nope", 0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("ReadReflog = %v, %v; want empty", entries, err)
	}
}

func TestReadReflog_SkipsMalformedLines(t *testing.T) {
	r := initTestRepo(t)
	logPath := filepath.Join(r.KnytDir, "logs", "refs", "heads", "main")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatal(err)
	}
	body := strings.Join([]string{
		"garbage",
		string(hexHash(0)) + " " + string(hexHash(1)) + " notanumber reason",
		string(hexHash(1)) + " " + string(hexHash(2)) + " 42 commit: ok",
		"",
	}, "\n")
	if err := os.WriteFile(logPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := r.ReadReflog("main", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 1 || entries[0].Time.Unix() != 42 ||
		entries[0].Reason != (ReflogReason{Action: ReflogCommit, Detail: "ok"}) {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestCommit_RecordsReflogReason(t *testing.T) {
	r := initTestRepo(t)
	h := commitFiles(t, r, "add readme\n\nbody text", map[string]string{"README": "hi"})

	entries, err := r.ReadReflog("HEAD", 1)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 1 || entries[0].NewHash != h || entries[0].Reason.String() != "commit: add readme" {
		t.Fatalf("entries = %+v", entries)
	}

	tagLog, err := r.ReadReflog("refs/tags/v1", 0)
	if err != nil {
		t.Fatalf("ReadReflog(tag): %v", err)
	}
	if len(tagLog) != 1 || tagLog[0].Reason != (ReflogReason{Action: ReflogTag, Detail: "v1"}) {
		t.Fatalf("tag reflog = %+v", tagLog)
	}
}

func TestMerge_RecordsMergeAction(t *testing.T) {
	r := initTestRepo(t)
	commitFiles(t, r, "base", map[string]string{"a.txt": "a\n"})
	mustCreateBranch(t, r, "feature")
	mustCheckout(t, r, "feature")
	commitFiles(t, r, "feature work", map[string]string{"b.txt": "b\n"})
	mustCheckout(t, r, "main")
	commitFiles(t, r, "main work", map[string]string{"c.txt": "c\n"})

	if _, err := r.MergeBranch("feature"); err != nil {
		t.Fatalf("MergeBranch: %v", err)
	}
	entries, err := r.ReadReflog("main", 1)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 1 || entries[0].Reason.Action != ReflogMerge {
		t.Fatalf("entries = %+v, want a merge action", entries)
	}
}

func TestReflogReason_RoundTrip(t *testing.T) {
	cases := []struct {
		reason ReflogReason
		want   string
	}{
		{ReflogReason{Action: ReflogCommit, Detail: "add readme"}, "commit: add readme"},
		{ReflogReason{Action: ReflogBranch, Detail: "created from main"}, "branch: created from main"},
		{ReflogReason{Action: ReflogTag}, "tag"},
		{ReflogReason{Detail: "manual"}, "update: manual"},
	}
	for _, tc := range cases {
		got := tc.reason.String()
		if got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
		back := parseReflogReason(got)
		if back.String() != tc.want {
			t.Errorf("parseReflogReason(%q) = %+v", got, back)
		}
	}
}
