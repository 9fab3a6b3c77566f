package diff

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// HunkLineKind classifies a line inside a hunk.
type HunkLineKind int

const (
	ContextLine HunkLineKind = iota
	AddedLine
	RemovedLine
)

// HunkLine is one line of a hunk. OldLine and NewLine are 1-based; a line
// absent from one side carries 0 for that side.
type HunkLine struct {
	Kind    HunkLineKind
	Content string
	OldLine int
	NewLine int
}

// Hunk is a contiguous group of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []HunkLine
}

// Hunks groups the line diff of a and b into hunks with the given amount of
// context. Changes separated by at most 2*context unchanged lines share a
// hunk. A negative context is treated as zero.
func Hunks(a, b []byte, context int) []Hunk {
	if context < 0 {
		context = 0
	}

	lines := Lines(a, b)

	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Kind == ContextLine {
			i++
			continue
		}

		start := i - context
		if start < 0 {
			start = 0
		}

		// Extend over changes until a run of unchanged lines is too long to
		// bridge.
		end := i
		for end < len(lines) {
			if lines[end].Kind != ContextLine {
				end++
				continue
			}
			run := end
			for run < len(lines) && lines[run].Kind == ContextLine {
				run++
			}
			if run == len(lines) || run-end > 2*context {
				break
			}
			end = run
		}

		stop := end + context
		if stop > len(lines) {
			stop = len(lines)
		}

		oldBefore, newBefore := 0, 0
		for _, l := range lines[:start] {
			if l.Kind != AddedLine {
				oldBefore++
			}
			if l.Kind != RemovedLine {
				newBefore++
			}
		}
		hunks = append(hunks, newHunk(lines[start:stop], oldBefore, newBefore))
		i = stop
	}
	return hunks
}

// newHunk builds a hunk from lines; oldBefore and newBefore count the lines
// of each side that precede it. An empty side starts at the line before the
// hunk, as in unified diff.
func newHunk(lines []HunkLine, oldBefore, newBefore int) Hunk {
	h := Hunk{Lines: append([]HunkLine(nil), lines...)}
	for _, l := range lines {
		switch l.Kind {
		case ContextLine:
			h.OldCount++
			h.NewCount++
		case RemovedLine:
			h.OldCount++
		case AddedLine:
			h.NewCount++
		}
	}
	h.OldStart = oldBefore
	if h.OldCount > 0 {
		h.OldStart++
	}
	h.NewStart = newBefore
	if h.NewCount > 0 {
		h.NewStart++
	}
	return h
}
