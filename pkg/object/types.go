package object

import (
	"fmt"
	"strings"
)

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

const (
	// HashHexLen is the length of a hex-encoded Hash.
	HashHexLen = 40
	// HashRawLen is the length of a raw digest as embedded in tree entries.
	HashRawLen = 20
)

// Short returns the first 8 characters of the hash for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// ParseHash validates s as a full lowercase hex digest.
func ParseHash(s string) (Hash, error) {
	s = strings.TrimSpace(s)
	if len(s) != HashHexLen {
		return "", fmt.Errorf("parse hash %q: want %d hex characters, got %d", s, HashHexLen, len(s))
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", fmt.Errorf("parse hash %q: invalid character %q", s, c)
		}
	}
	return Hash(s), nil
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

func (t ObjectType) valid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	}
	return false
}

const (
	// Tree mode strings, matching Git's canonical spelling.
	TreeModeDir  = "40000"
	TreeModeFile = "100644"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry points at a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// TreeObj holds tree entries in the order they were written.
type TreeObj struct {
	Entries []TreeEntry
}

// Signature identifies who made a commit and when.
type Signature struct {
	Name   string
	Email  string
	When   int64  // unix seconds
	Offset string // e.g. "+0000"
}

func (s Signature) String() string {
	offset := s.Offset
	if offset == "" {
		offset = "+0000"
	}
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When, offset)
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash  Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	Message   string
}
