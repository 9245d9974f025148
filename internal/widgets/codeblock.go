package widgets

// OpenByDefault reports whether a code block of the given line count is
// rendered expanded. A negative maxShownLines never collapses. Blocks only
// one line over the limit stay open.
func OpenByDefault(lines, maxShownLines int) bool {
	return maxShownLines < 0 || lines < maxShownLines+2
}
