package codeembed

import (
	"fmt"
	"strings"
)

// Window is the selected part of a file
type Window struct {
	Text string

	// Start is the first line shown, 1-indexed
	Start int

	// Anchor is "#Lx" or "#Lx-Ly", empty when the whole file is shown
	Anchor string
}

// Slice selects lines [start, end] of text, inclusive and 1-indexed. A
// start of 0 or less shows the whole file; end -1 runs to the last line; a
// start beyond the file shows only the last line.
func Slice(text string, start, end int) Window {
	if start <= 0 {
		return Window{Text: text, Start: 1}
	}

	lines := strings.Split(text, "\n")
	count := len(lines)

	endSuffix := ""
	if end == -1 {
		end = count
	} else {
		endSuffix = fmt.Sprintf("-L%d", end)
	}
	if start == end {
		endSuffix = ""
	}
	if start > count {
		start, end = count, count
		endSuffix = ""
	}
	if end > count {
		end = count
	}
	if end < start {
		end = start
	}

	return Window{
		Text:   strings.Join(lines[start-1:end], "\n"),
		Start:  start,
		Anchor: fmt.Sprintf("#L%d%s", start, endSuffix),
	}
}
