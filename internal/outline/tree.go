// Package outline tracks which section of a rendered page is being read and
// where the floating table of contents should sit, computed from page
// geometry rather than a live DOM.
package outline

// Entry is one link of the table of contents
type Entry struct {
	// Target is the heading id the entry links to, without the leading '#'
	Target string `json:"target"`
	Title  string `json:"title"`

	// Parent is the index of the enclosing entry, or -1 at the root
	Parent int `json:"parent"`
	Depth  int `json:"depth"`
}

// Tree is the table of contents in document order
type Tree struct {
	Entries []Entry `json:"entries"`
}

// Len returns the number of entries
func (t Tree) Len() int { return len(t.Entries) }

// Lineage returns i followed by each of its ancestors up to the root.
// An out-of-range index yields nil.
func (t Tree) Lineage(i int) []int {
	if i < 0 || i >= len(t.Entries) {
		return nil
	}

	out := []int{i}
	for p := t.Entries[i].Parent; p >= 0 && p < len(t.Entries); p = t.Entries[p].Parent {
		// Parents always precede children; anything else is a malformed tree
		if p >= out[len(out)-1] {
			break
		}
		out = append(out, p)
	}
	return out
}

// SectionMarker ties one heading's position to its outline entry.
// Markers are rebuilt from a fresh frame, never patched.
type SectionMarker struct {
	HeadingID string  `json:"headingId"`
	Top       float64 `json:"top"`

	// LinkIndex is the outline entry for this heading, or -1 when the
	// heading has no entry (page title, subtitle, embedded content)
	LinkIndex int `json:"linkIndex"`
}

// BuildMarkers pairs heading ids with their current tops. tops and ids must
// be the same length and in document order; extra values on either side are
// ignored.
func BuildMarkers(ids []string, tops []float64, tocSubtract int, entries int) []SectionMarker {
	n := len(ids)
	if len(tops) < n {
		n = len(tops)
	}

	markers := make([]SectionMarker, n)
	for i := 0; i < n; i++ {
		link := i - tocSubtract
		if link < 0 || link >= entries {
			link = -1
		}
		markers[i] = SectionMarker{HeadingID: ids[i], Top: tops[i], LinkIndex: link}
	}
	return markers
}
