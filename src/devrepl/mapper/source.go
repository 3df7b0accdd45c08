package mapper

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDelta counts the lines added and removed between two versions of a script.
func LineDelta(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	return DiffsToLineCounts(diffs)
}

// DiffsToLineCounts sums the lines of insert and delete operations. A trailing partial line counts.
func DiffsToLineCounts(diffs []diffmatchpatch.Diff) (added, removed int) {
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if d.Text != "" && !strings.HasSuffix(d.Text, "\n") {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// LineDeltaToString renders a line delta as "+N -M lines".
func LineDeltaToString(added, removed int) string {
	return fmt.Sprintf("+%d -%d lines", added, removed)
}
