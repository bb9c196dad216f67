package main

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const diffContext = 3

// lineDiff renders a line-oriented diff between oldText and newText. Runs of
// unchanged lines longer than the context window are elided.
func lineDiff(name, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	decode := func(s string) []string {
		out := make([]string, 0, len(s))
		for _, r := range s {
			idx := int(r)
			if idx >= 0 && idx < len(lineArray) {
				out = append(out, strings.TrimSuffix(lineArray[idx], "\n"))
			}
		}
		return out
	}

	var b strings.Builder
	b.WriteString("--- " + name + "\n")
	b.WriteString("+++ " + name + "\n")
	for i, d := range diffs {
		lines := decode(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range lines {
				b.WriteString("-" + l + "\n")
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range lines {
				b.WriteString("+" + l + "\n")
			}
		case diffmatchpatch.DiffEqual:
			writeContext(&b, lines, i > 0, i < len(diffs)-1)
		}
	}
	return b.String()
}

// writeContext prints unchanged lines, keeping only those within the
// context window of an adjacent change. Elided runs print as "@@".
func writeContext(b *strings.Builder, lines []string, afterChange, beforeChange bool) {
	elided := false
	for i, l := range lines {
		keep := (afterChange && i < diffContext) || (beforeChange && i >= len(lines)-diffContext)
		if keep {
			b.WriteString(" " + l + "\n")
			elided = false
			continue
		}
		if !elided {
			b.WriteString("@@\n")
			elided = true
		}
	}
}
