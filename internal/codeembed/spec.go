// Package codeembed fetches a file from a repository host and renders a
// highlighted, optionally line-sliced, embed of it.
package codeembed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultBranch  = "master"
	DefaultTabSize = 4

	// commitIDLength is the length of a full commit id used as a branch
	commitIDLength = 40
	// shortRefLength is the displayed length of a commit suffix, '@' included
	shortRefLength = 8
)

// ErrMissingAttribute is returned when user, repo or path is absent
var ErrMissingAttribute = errors.New("code embed requires user, repo and path")

// Spec identifies the file and line window to embed. Line numbers are
// 1-indexed; -1 means unset.
type Spec struct {
	User      string `json:"user"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch,omitempty"`
	Path      string `json:"path"`
	LineStart int    `json:"line_start,omitempty"`
	LineEnd   int    `json:"line_end,omitempty"`
	TabSize   int    `json:"tab_size,omitempty"`
}

// ParseAttributes builds a Spec from the data-* attributes of an embed
// element ("user", "repo", "branch", "filepath", "line-start", "line-end",
// "tabsize"). Unparseable numbers fall back to their defaults.
func ParseAttributes(attrs map[string]string) (Spec, error) {
	s := Spec{
		User:      attrs["user"],
		Repo:      attrs["repo"],
		Branch:    attrs["branch"],
		Path:      attrs["filepath"],
		LineStart: parseLine(attrs["line-start"]),
		LineEnd:   parseLine(attrs["line-end"]),
		TabSize:   DefaultTabSize,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(attrs["tabsize"])); err == nil {
		s.TabSize = n
	}
	return s.Normalize()
}

func parseLine(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return -1
	}
	return n
}

// Normalize validates s and applies defaults: an end before the start is
// raised to the start, and an end without a start starts at line 1.
func (s Spec) Normalize() (Spec, error) {
	if s.User == "" || s.Repo == "" || s.Path == "" {
		return s, ErrMissingAttribute
	}
	if s.Branch == "" {
		s.Branch = DefaultBranch
	}
	if s.TabSize <= 0 {
		s.TabSize = DefaultTabSize
	}
	if s.LineStart == 0 && s.LineEnd == 0 {
		s.LineStart, s.LineEnd = -1, -1
	}

	if s.LineStart != -1 {
		if s.LineEnd != -1 && s.LineStart > s.LineEnd {
			s.LineEnd = s.LineStart
		}
	} else if s.LineEnd != -1 {
		s.LineStart = 1
	}
	return s, nil
}

// FileName is the last path element
func (s Spec) FileName() string {
	if i := strings.LastIndexByte(s.Path, '/'); i >= 0 {
		return s.Path[i+1:]
	}
	return s.Path
}

// Extension is the text after the last dot of the file name
func (s Spec) Extension() string {
	name := s.FileName()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Label is the file name shown under the embed, suffixed with the branch
// unless it is master or main. Commit ids are shortened.
func (s Spec) Label() string {
	name := s.FileName()
	switch strings.ToLower(s.Branch) {
	case "master", "main", "":
		return name
	}

	ref := "@" + s.Branch
	if len(s.Branch) == commitIDLength {
		ref = ref[:shortRefLength]
	}
	return name + ref
}

// Key is the "user/repo/path" string matched against the allow list
func (s Spec) Key() string {
	return fmt.Sprintf("%s/%s/%s", s.User, s.Repo, strings.TrimLeft(s.Path, "/"))
}
