package diff

// Status classifies what happened to a file between two trees.
type Status int

const (
	Added    Status = iota // File exists only in the new tree.
	Removed                // File exists only in the old tree.
	Modified               // File exists in both trees with different content.
)

func (s Status) String() string {
	switch s {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// FileChange records the change to a single path. Hunks is populated for
// modified files only.
type FileChange struct {
	Path   string
	Status Status
	Hunks  []Hunk
}
