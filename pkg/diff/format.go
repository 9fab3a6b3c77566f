package diff

import (
	"fmt"
	"strings"
)

// Format renders changes as text:
//
//	added: path
//	removed: path
//	modified: path
//	@@ -1,3 +1,3 @@
//	 context
//	-old
//	+new
func Format(changes []FileChange) string {
	var b strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&b, "%s: %s\n", c.Status, c.Path)
		for _, h := range c.Hunks {
			writeHunk(&b, h)
		}
	}
	return b.String()
}

func writeHunk(b *strings.Builder, h Hunk) {
	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	for _, l := range h.Lines {
		switch l.Kind {
		case ContextLine:
			fmt.Fprintf(b, " %s\n", l.Content)
		case RemovedLine:
			fmt.Fprintf(b, "-%s\n", l.Content)
		case AddedLine:
			fmt.Fprintf(b, "+%s\n", l.Content)
		}
	}
}
