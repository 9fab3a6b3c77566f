package repo

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/odvcencio/knyt/pkg/object"
)

// maxTagAttempts bounds the retries when another writer takes the tag
// number we picked.
const maxTagAttempts = 64

// Tag is a lightweight ref under refs/tags/.
type Tag struct {
	Name   string
	Number int // N for tags named v<N>, 0 otherwise
	Hash   object.Hash
}

// ListTags lists tags ordered by sequence number, then name.
func (r *Repo) ListTags() ([]Tag, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	tags := make([]Tag, 0, len(refs))
	for full, hash := range refs {
		name := strings.TrimPrefix(full, "tags/")
		n, _ := parseSequenceTag(name)
		tags = append(tags, Tag{Name: name, Number: n, Hash: hash})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Number != tags[j].Number {
			return tags[i].Number < tags[j].Number
		}
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}

// ResolveTag resolves a tag name under refs/tags/.
func (r *Repo) ResolveTag(name string) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateRefName(name); err != nil {
		return "", fmt.Errorf("resolve tag: %w", err)
	}
	return r.ResolveRef("refs/tags/" + name)
}

// TagsFor returns the names of tags pointing at h, in sequence order.
func (r *Repo) TagsFor(h object.Hash) ([]string, error) {
	tags, err := r.ListTags()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, t := range tags {
		if t.Hash == h {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

// nextTag returns v<max existing N + 1>, starting at v1. It rescans
// refs/tags on every call.
func (r *Repo) nextTag() (string, error) {
	tags, err := r.ListTags()
	if err != nil {
		return "", err
	}
	maxN := 0
	for _, t := range tags {
		if t.Number > maxN {
			maxN = t.Number
		}
	}
	return "v" + strconv.Itoa(maxN+1), nil
}

// assignNextTag creates the next sequential tag for commit. The tag ref is
// created with a create-only compare-and-swap; losing a race to another
// writer retries with a fresh number.
func (r *Repo) assignNextTag(commit object.Hash) (string, error) {
	for attempt := 0; attempt < maxTagAttempts; attempt++ {
		name, err := r.nextTag()
		if err != nil {
			return "", fmt.Errorf("assign tag: %w", err)
		}
		err = r.UpdateRefCAS("refs/tags/"+name, commit, ReflogReason{Action: ReflogTag, Detail: name}, "")
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrRefCASMismatch) {
			return "", fmt.Errorf("assign tag %s: %w", name, err)
		}
		r.log().Debug("tag taken, retrying", "tag", name)
	}
	return "", fmt.Errorf("assign tag: gave up after %d attempts", maxTagAttempts)
}

// parseSequenceTag parses names of the form v<N> with N >= 1.
func parseSequenceTag(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, "v")
	if !ok || digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
