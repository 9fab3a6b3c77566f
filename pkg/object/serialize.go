package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj in Git's binary tree format. Entries are
// emitted in slice order with no separator between them:
//
//	<mode> <name>\0<20-byte raw digest>
func MarshalTree(tr *TreeObj) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range tr.Entries {
		if err := checkEntryName(e.Name); err != nil {
			return nil, fmt.Errorf("marshal tree: %w", err)
		}
		mode, err := parseTreeMode(e.Mode)
		if err != nil {
			return nil, fmt.Errorf("marshal tree %q: %w", e.Name, err)
		}
		raw, err := hashToRaw(e.Hash)
		if err != nil {
			return nil, fmt.Errorf("marshal tree %q: %w", e.Name, err)
		}
		buf.WriteString(mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj from its binary form. Entry boundaries are
// recovered by scanning for the space, then the NUL, then taking the fixed
// 20-byte digest.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	i := 0
	for i < len(data) {
		sp := bytes.IndexByte(data[i:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: entry at offset %d: missing mode separator", i)
		}
		mode, err := parseTreeMode(string(data[i : i+sp]))
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: entry at offset %d: %w", i, err)
		}
		nameStart := i + sp + 1
		nul := bytes.IndexByte(data[nameStart:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: entry at offset %d: missing name terminator", i)
		}
		name := string(data[nameStart : nameStart+nul])
		if err := checkEntryName(name); err != nil {
			return nil, fmt.Errorf("unmarshal tree: entry at offset %d: %w", i, err)
		}
		digestStart := nameStart + nul + 1
		digestEnd := digestStart + HashRawLen
		if digestEnd > len(data) {
			return nil, fmt.Errorf("unmarshal tree: entry %q: truncated digest", name)
		}
		tr.Entries = append(tr.Entries, TreeEntry{
			Mode: mode,
			Name: name,
			Hash: Hash(hex.EncodeToString(data[digestStart:digestEnd])),
		})
		i = digestEnd
	}
	return tr, nil
}

// checkEntryName accepts a single path segment: non-empty, not "." or
// "..", with no slash or NUL.
func checkEntryName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("invalid entry name %q", name)
	}
	return nil
}

func parseTreeMode(mode string) (string, error) {
	switch mode {
	case TreeModeDir:
		return TreeModeDir, nil
	case TreeModeFile:
		return TreeModeFile, nil
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H     (zero or more)
//	author NAME <EMAIL> UNIX TZ
//	committer NAME <EMAIL> UNIX TZ
//
//	message
//
// The message is always followed by a single trailing newline.
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := strings.TrimSuffix(string(data[idx+2:]), "\n")

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = sig
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: missing tree")
	}
	return c, nil
}

// ParseSignature parses "NAME <EMAIL> UNIX TZ".
func ParseSignature(s string) (Signature, error) {
	lt := strings.IndexByte(s, '<')
	gt := strings.LastIndexByte(s, '>')
	if lt < 0 || gt < lt {
		return Signature{}, fmt.Errorf("malformed signature %q", s)
	}
	sig := Signature{
		Name:  strings.TrimSpace(s[:lt]),
		Email: s[lt+1 : gt],
	}
	fields := strings.Fields(s[gt+1:])
	if len(fields) != 2 {
		return Signature{}, fmt.Errorf("malformed signature %q: want time and offset", s)
	}
	when, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("malformed signature %q: bad time: %w", s, err)
	}
	sig.When = when
	sig.Offset = fields[1]
	return sig, nil
}
