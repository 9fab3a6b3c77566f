package diff

import "strings"

// SplitLines splits text into lines without their terminators. A trailing
// newline does not produce an empty final line.
func SplitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	s := strings.TrimSuffix(string(text), "\n")
	return strings.Split(s, "\n")
}

// Lines classifies every line of a and b as context, added or removed along
// a shortest edit path.
func Lines(a, b []byte) []HunkLine {
	return classify(SplitLines(a), SplitLines(b))
}

// editStep is one addition or removal on the edit path. x and y are the
// positions in a and b just after the edit; prev links back toward the
// start of the path.
type editStep struct {
	prev *editStep
	kind HunkLineKind
	x, y int
}

// classify runs the greedy Myers search. Each diagonal keeps the furthest
// point reached and the edit that got there, so the path is rebuilt by
// following prev links instead of replaying saved frontiers.
func classify(a, b []string) []HunkLine {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return wholesale(a, b)
	}

	off := n + m + 1
	far := make([]int, 2*off+1)
	tip := make([]*editStep, 2*off+1)

	for d := 0; d <= n+m; d++ {
		for k := -d; k <= d; k += 2 {
			var (
				x    int
				step *editStep
			)
			switch {
			case d == 0:
			case k == -d || (k != d && far[off+k-1] < far[off+k+1]):
				x = far[off+k+1]
				step = &editStep{prev: tip[off+k+1], kind: AddedLine, x: x, y: x - k}
			default:
				x = far[off+k-1] + 1
				step = &editStep{prev: tip[off+k-1], kind: RemovedLine, x: x, y: x - k}
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			far[off+k], tip[off+k] = x, step
			if x == n && y == m {
				return replay(step, a, b)
			}
		}
	}
	return nil
}

// wholesale handles an empty side: everything in a is removed and
// everything in b added.
func wholesale(a, b []string) []HunkLine {
	out := make([]HunkLine, 0, len(a)+len(b))
	for i, line := range a {
		out = append(out, HunkLine{Kind: RemovedLine, Content: line, OldLine: i + 1})
	}
	for j, line := range b {
		out = append(out, HunkLine{Kind: AddedLine, Content: line, NewLine: j + 1})
	}
	return out
}

// replay walks the edit path from the start, filling the gaps between edits
// with context lines. A nil path is a pure snake: a and b are equal.
func replay(last *editStep, a, b []string) []HunkLine {
	var path []*editStep
	for s := last; s != nil; s = s.prev {
		path = append(path, s)
	}

	out := make([]HunkLine, 0, len(a)+len(b))
	x, y := 0, 0
	context := func(toX int) {
		for x < toX {
			out = append(out, HunkLine{Kind: ContextLine, Content: a[x], OldLine: x + 1, NewLine: y + 1})
			x++
			y++
		}
	}
	for i := len(path) - 1; i >= 0; i-- {
		s := path[i]
		if s.kind == RemovedLine {
			context(s.x - 1)
			out = append(out, HunkLine{Kind: RemovedLine, Content: a[x], OldLine: x + 1})
			x++
			continue
		}
		context(s.x)
		out = append(out, HunkLine{Kind: AddedLine, Content: b[y], NewLine: y + 1})
		y++
	}
	context(len(a))
	return out
}
