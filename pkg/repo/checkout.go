package repo

import (
	"fmt"
	"strings"
)

// Checkout points HEAD at branch name and restores that branch's tree into
// the working directory. Files absent from the target tree are left in
// place and the index is not touched. HEAD only moves once the tree has
// been restored.
func (r *Repo) Checkout(name string) error {
	name = strings.TrimSpace(name)
	target, err := r.resolveBranch(name)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	tree, err := r.commitTreeHash(target)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", name, err)
	}

	if err := r.RestoreTree(tree); err != nil {
		return fmt.Errorf("checkout %q: %w", name, err)
	}
	if err := r.setHeadSymbolic(name); err != nil {
		return fmt.Errorf("checkout %q: %w", name, err)
	}
	r.log().Info("switched branch", "branch", name, "commit", target.Short())
	return nil
}
