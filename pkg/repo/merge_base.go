package repo

import (
	"fmt"
	"sync"

	"github.com/odvcencio/knyt/pkg/object"
)

// maxMergeBaseSteps bounds the number of commits visited by each of the two
// merge-base traversals.
const maxMergeBaseSteps = 1_000_000

// mergeBaseStepsLimit is a var so tests can tighten it.
var mergeBaseStepsLimit = maxMergeBaseSteps

// commitCache memoizes parsed commits for history walks.
type commitCache struct {
	mu      sync.RWMutex
	commits map[object.Hash]*object.CommitObj
}

func newCommitCache() *commitCache {
	return &commitCache{commits: make(map[object.Hash]*object.CommitObj)}
}

func (c *commitCache) read(r *Repo, h object.Hash) (*object.CommitObj, error) {
	c.mu.RLock()
	cached, ok := c.commits[h]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	commit, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}

	c.mu.Lock()
	if existing, exists := c.commits[h]; exists {
		c.mu.Unlock()
		return existing, nil
	}
	c.commits[h] = commit
	c.mu.Unlock()
	return commit, nil
}

// FindMergeBase returns a common ancestor of a and b, or "" when the
// histories are unrelated.
//
// The full ancestor set of a (a included) is collected first. Then b's
// history is walked depth-first, visiting parents in listed order (first
// parent first), and the first commit found in a's set is returned. This is
// a deterministic best-effort ancestor: in criss-cross histories it is not
// necessarily the lowest common ancestor.
func (r *Repo) FindMergeBase(a, b object.Hash) (object.Hash, error) {
	if a == "" || b == "" {
		return "", nil
	}

	ancestorsA := make(map[object.Hash]struct{})
	err := r.walkAncestors(a, func(h object.Hash) bool {
		ancestorsA[h] = struct{}{}
		return true
	})
	if err != nil {
		return "", fmt.Errorf("find merge base: %w", err)
	}

	var base object.Hash
	err = r.walkAncestors(b, func(h object.Hash) bool {
		if _, ok := ancestorsA[h]; ok {
			base = h
			return false
		}
		return true
	})
	if err != nil {
		return "", fmt.Errorf("find merge base: %w", err)
	}
	return base, nil
}

// walkAncestors visits start and its ancestors depth-first, first parent
// first, each at most once. visit returns false to stop the walk.
func (r *Repo) walkAncestors(start object.Hash, visit func(object.Hash) bool) error {
	limit := mergeBaseStepsLimit
	if limit <= 0 || limit > maxMergeBaseSteps {
		limit = maxMergeBaseSteps
	}

	seen := make(map[object.Hash]struct{})
	stack := []object.Hash{start}
	steps := 0
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}

		steps++
		if steps > limit {
			return fmt.Errorf("traversal exceeded maximum steps (%d)", limit)
		}
		if !visit(h) {
			return nil
		}

		c, err := r.commits().read(r, h)
		if err != nil {
			return err
		}
		// Push in reverse so the first parent is popped first.
		for i := len(c.Parents) - 1; i >= 0; i-- {
			if _, ok := seen[c.Parents[i]]; !ok {
				stack = append(stack, c.Parents[i])
			}
		}
	}
	return nil
}
