package object

import (
	"errors"
	"fmt"
	"sort"
)

// Reachability is the result of walking the object graph from a set of roots.
type Reachability struct {
	// Objects holds every object that was found and parsed.
	Objects map[Hash]ObjectType
	// Missing holds referenced hashes that are absent from the store, sorted.
	Missing []Hash
	// Corrupt holds referenced hashes whose objects could not be decoded,
	// sorted.
	Corrupt []Hash
}

// ReachableSet walks the object graph from roots, following commit parents,
// commit trees and tree entries. Missing and corrupt objects are collected
// rather than treated as fatal; other read failures abort the walk.
func (s *Store) ReachableSet(roots []Hash) (*Reachability, error) {
	out := &Reachability{Objects: make(map[Hash]ObjectType)}
	missing := make(map[Hash]struct{})
	corrupt := make(map[Hash]struct{})

	stack := make([]Hash, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == "" {
			continue
		}
		if _, ok := out.Objects[h]; ok {
			continue
		}
		if _, ok := missing[h]; ok {
			continue
		}
		if _, ok := corrupt[h]; ok {
			continue
		}

		objType, data, err := s.Read(h)
		if err != nil {
			switch {
			case errors.Is(err, ErrObjectNotFound):
				missing[h] = struct{}{}
				continue
			case errors.Is(err, ErrCorruptObject):
				corrupt[h] = struct{}{}
				continue
			}
			return nil, fmt.Errorf("reachable set read %s: %w", h, err)
		}

		refs, err := referencedHashes(objType, data)
		if err != nil {
			corrupt[h] = struct{}{}
			continue
		}
		out.Objects[h] = objType
		stack = append(stack, refs...)
	}

	out.Missing = sortedHashes(missing)
	out.Corrupt = sortedHashes(corrupt)
	return out, nil
}

func sortedHashes(set map[Hash]struct{}) []Hash {
	out := make([]Hash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func referencedHashes(objType ObjectType, data []byte) ([]Hash, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeCommit:
		commit, err := UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, 1+len(commit.Parents))
		refs = append(refs, commit.TreeHash)
		refs = append(refs, commit.Parents...)
		return refs, nil
	case TypeTree:
		tree, err := UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %q", objType)
	}
}
