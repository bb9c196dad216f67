// Package inject places generated context into a larger document between
// marker comments, so the block can be refreshed in place on later runs
// without touching the surrounding text. Several packages may share one
// document; each owns the markers carrying its identifier.
package inject

import (
	"fmt"
	"strings"
)

// BeginMarker returns the line that opens the block owned by id.
func BeginMarker(id string) string {
	return fmt.Sprintf("<!-- BEGIN LIBCONTEXT: %s -->", id)
}

// EndMarker returns the line that closes the block owned by id.
func EndMarker(id string) string {
	return fmt.Sprintf("<!-- END LIBCONTEXT: %s -->", id)
}

// Block wraps content in the markers for id.
func Block(content, id string) string {
	return BeginMarker(id) + "\n" + content + "\n" + EndMarker(id)
}

// Apply inserts content into existing, replacing the block for id if a
// well-formed one is present and appending otherwise. A nil existing yields
// the bare block. A lone marker, or an end marker before the begin marker, is
// stripped before appending so the result holds exactly one block for id.
func Apply(content, id string, existing *string) string {
	block := Block(content, id)
	if existing == nil {
		return block
	}

	begin, end := BeginMarker(id), EndMarker(id)
	text := *existing
	start := strings.Index(text, begin)
	stop := strings.Index(text, end)

	if start >= 0 && stop > start {
		return text[:start] + block + text[stop+len(end):]
	}

	if start >= 0 || stop >= 0 {
		text = stripMarker(text, begin)
		text = stripMarker(text, end)
	}

	if strings.TrimSpace(text) == "" {
		return block + "\n"
	}
	return strings.TrimRight(text, " \t\r\n") + "\n\n" + block + "\n"
}

// stripMarker removes every occurrence of marker along with the line break
// that follows it.
func stripMarker(text, marker string) string {
	text = strings.ReplaceAll(text, marker+"\n", "")
	return strings.ReplaceAll(text, marker, "")
}
