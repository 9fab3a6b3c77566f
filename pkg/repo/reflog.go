package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/knyt/pkg/object"
)

// ReflogAction names the operation that moved a ref.
type ReflogAction string

const (
	ReflogCommit ReflogAction = "commit"
	ReflogMerge  ReflogAction = "merge"
	ReflogBranch ReflogAction = "branch"
	ReflogTag    ReflogAction = "tag"
	ReflogUpdate ReflogAction = "update" // direct ref writes
)

// ReflogReason is stored as "<action>: <detail>", or just the action when
// there is no detail.
type ReflogReason struct {
	Action ReflogAction
	Detail string
}

func (r ReflogReason) String() string {
	action := r.Action
	if action == "" {
		action = ReflogUpdate
	}
	detail := strings.Join(strings.Fields(r.Detail), " ")
	if detail == "" {
		return string(action)
	}
	return string(action) + ": " + detail
}

func parseReflogReason(s string) ReflogReason {
	action, detail, ok := strings.Cut(s, ": ")
	if !ok {
		return ReflogReason{Action: ReflogAction(s)}
	}
	return ReflogReason{Action: ReflogAction(action), Detail: detail}
}

// ReflogEntry is one ref transition. OldHash is "" when the ref was
// created and NewHash is "" when it was removed.
type ReflogEntry struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Time    time.Time
	Reason  ReflogReason
}

// nullHash stands in for an absent side of a transition on disk.
var nullHash = strings.Repeat("0", object.HashHexLen)

func (e ReflogEntry) line() string {
	side := func(h object.Hash) string {
		if h == "" {
			return nullHash
		}
		return string(h)
	}
	return fmt.Sprintf("%s %s %d %s\n", side(e.OldHash), side(e.NewHash), e.Time.Unix(), e.Reason)
}

// parseReflogLine decodes "old new unix reason". Malformed lines report
// false and are skipped by readers.
func parseReflogLine(ref, line string) (ReflogEntry, bool) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 4)
	if len(fields) != 4 {
		return ReflogEntry{}, false
	}
	unix, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return ReflogEntry{}, false
	}
	side := func(s string) (object.Hash, bool) {
		if s == nullHash {
			return "", true
		}
		h, err := object.ParseHash(s)
		return h, err == nil
	}
	oldHash, ok := side(fields[0])
	if !ok {
		return ReflogEntry{}, false
	}
	newHash, ok := side(fields[1])
	if !ok {
		return ReflogEntry{}, false
	}
	return ReflogEntry{
		Ref:     ref,
		OldHash: oldHash,
		NewHash: newHash,
		Time:    time.Unix(unix, 0).UTC(),
		Reason:  parseReflogReason(fields[3]),
	}, true
}

func (r *Repo) reflogPath(ref string) string {
	return filepath.Join(r.KnytDir, "logs", filepath.FromSlash(ref))
}

func (r *Repo) appendReflog(e ReflogEntry) error {
	path := r.reflogPath(e.Ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioErr("reflog "+e.Ref, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return ioErr("reflog "+e.Ref, err)
	}
	if _, err := f.WriteString(e.line()); err != nil {
		f.Close()
		return ioErr("reflog "+e.Ref, err)
	}
	if err := f.Close(); err != nil {
		return ioErr("reflog "+e.Ref, err)
	}
	return nil
}

// ReadReflog returns the reflog of ref, newest first. An empty ref or
// "HEAD" means the branch HEAD points at (or HEAD itself when detached); a
// bare name means refs/heads/<name>. A limit of zero or less returns every
// entry.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName, err := r.reflogRefName(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.reflogPath(refName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioErr("read reflog "+refName, err)
	}

	lines := strings.Split(string(data), "\n")
	var entries []ReflogEntry
	for i := len(lines) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) == limit {
			break
		}
		if e, ok := parseReflogLine(refName, lines[i]); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (r *Repo) reflogRefName(ref string) (string, error) {
	switch ref = strings.TrimSpace(ref); {
	case ref == "" || ref == "HEAD":
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return head, nil
		}
		return "HEAD", nil
	case strings.HasPrefix(ref, "refs/"):
		return ref, nil
	default:
		return "refs/heads/" + ref, nil
	}
}
