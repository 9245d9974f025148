package search

import "unicode/utf8"

// FirstWins keeps the first result for each URI, preserving order
func FirstWins(results ResultSet) ResultSet {
	seen := make(map[string]struct{}, len(results))
	out := make(ResultSet, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.URI]; ok {
			continue
		}
		seen[r.URI] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ShorterSnippetWins keeps, for each URI, the result whose highlighted
// context is shortest. The survivor takes the slot of the URI's first
// arrival; ties keep the earlier result.
func ShorterSnippetWins(results ResultSet) ResultSet {
	slot := make(map[string]int, len(results))
	out := make(ResultSet, 0, len(results))
	for _, r := range results {
		i, ok := slot[r.URI]
		if !ok {
			slot[r.URI] = len(out)
			out = append(out, r)
			continue
		}
		if utf8.RuneCountInString(r.Context) < utf8.RuneCountInString(out[i].Context) {
			out[i] = r
		}
	}
	return out
}

// Truncate caps results at n entries
func Truncate(results ResultSet, n int) ResultSet {
	if n >= 0 && len(results) > n {
		return results[:n]
	}
	return results
}
