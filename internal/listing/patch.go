// Package listing keeps the generated prompt listing inside each directory's
// overview document in step with the index.
package listing

import (
	stderrors "errors"
	"strings"
)

// Markers delimit the machine-owned listing block
type Markers struct {
	Start string
	End   string
	// Heading precedes an appended block unless the document already has it
	Heading string
}

var (
	// ErrUnbalancedMarkers means only one of the two markers is present
	ErrUnbalancedMarkers = stderrors.New("only one listing marker present")
	// ErrMisorderedMarkers means the end marker precedes the start marker
	ErrMisorderedMarkers = stderrors.New("end marker precedes start marker")
	// ErrDuplicateMarkers means a marker line appears more than once
	ErrDuplicateMarkers = stderrors.New("listing marker appears more than once")
)

// markerLine is the byte span of one marker line, newline included
type markerLine struct {
	start, end int
}

// Patch returns doc with listing placed in its marked block. A marker only
// counts when it stands alone on its line. Lines strictly between the marker
// lines are replaced; when neither marker exists a new block is appended.
// Everything outside the block is preserved byte for byte. On error doc is
// returned unchanged.
func Patch(doc, listing string, m Markers) (string, error) {
	starts := findLines(doc, m.Start)
	ends := findLines(doc, m.End)

	switch {
	case len(starts) == 0 && len(ends) == 0:
		return appendBlock(doc, listing, m), nil
	case len(starts) > 1 || len(ends) > 1:
		return doc, ErrDuplicateMarkers
	case len(starts) == 0 || len(ends) == 0:
		return doc, ErrUnbalancedMarkers
	case ends[0].start < starts[0].end:
		return doc, ErrMisorderedMarkers
	}

	inner := starts[0].end
	prefix := doc[:inner]
	if !strings.HasSuffix(prefix, "\n") {
		prefix += "\n"
	}
	return prefix + listing + doc[ends[0].start:], nil
}

// findLines returns every line of doc equal to marker, ignoring surrounding
// whitespace
func findLines(doc, marker string) []markerLine {
	want := strings.TrimSpace(marker)
	var found []markerLine
	for offset := 0; offset < len(doc); {
		next := len(doc)
		if i := strings.IndexByte(doc[offset:], '\n'); i >= 0 {
			next = offset + i + 1
		}
		if strings.TrimSpace(doc[offset:next]) == want {
			found = append(found, markerLine{start: offset, end: next})
		}
		offset = next
	}
	return found
}

func appendBlock(doc, listing string, m Markers) string {
	var b strings.Builder
	b.WriteString(doc)
	if doc != "" {
		if !strings.HasSuffix(doc, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if m.Heading != "" && !hasLine(doc, m.Heading) {
		b.WriteString(m.Heading)
		b.WriteString("\n\n")
	}
	b.WriteString(m.Start)
	b.WriteString("\n")
	b.WriteString(listing)
	b.WriteString(m.End)
	b.WriteString("\n")
	return b.String()
}

// hasLine reports whether doc contains line as a whole line, ignoring
// surrounding whitespace
func hasLine(doc, line string) bool {
	want := strings.TrimSpace(line)
	for _, l := range strings.Split(doc, "\n") {
		if strings.TrimSpace(l) == want {
			return true
		}
	}
	return false
}
