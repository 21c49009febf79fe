/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package diff reads the hunk ranges of a unified diff, enough to tell
// which lines of a file a change touched.
package diff

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Hunk is the header of one change region. Positions are 1-based line
// numbers.
type Hunk struct {
	OldPos, OldLines, NewPos, NewLines int
}

// Contains reports whether a line of the new file lies in the hunk.
func (h *Hunk) Contains(line int) bool {
	return line >= h.NewPos && line < h.NewPos+h.NewLines
}

type File struct {
	NewName string
	OldName string
	Hunks   []*Hunk
}

// Touches reports whether any hunk covers the line of the new file.
func (f *File) Touches(line int) bool {
	for _, h := range f.Hunks {
		if h.Contains(line) {
			return true
		}
	}
	return false
}

type Patch struct {
	Files []*File
}

// Lookup finds the file whose new name matches path. Paths are compared by
// their cleaned slash form, and a relative diff name matches any path
// ending in it.
func (p *Patch) Lookup(path string) *File {
	path = filepath.ToSlash(filepath.Clean(path))
	for _, f := range p.Files {
		if f.NewName == "" {
			continue
		}
		name := filepath.ToSlash(filepath.Clean(f.NewName))
		if name == path || strings.HasSuffix(path, "/"+name) {
			return f
		}
	}
	return nil
}

// Changed reports whether the line of path was added or modified.
func (p *Patch) Changed(path string, line int) bool {
	f := p.Lookup(path)
	return f != nil && f.Touches(line)
}

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

/*
Parse parses the diff into a patch struct.

Only lines that start with "--- ", "+++ " or "@@ -" are looked at. Both git
output (a/ and b/ prefixes, /dev/null for additions and deletions) and plain
`diff -u` output (no prefixes, a tab-separated timestamp after the name) are
accepted:

	--- a/src/lexer.cpp
	+++ b/src/lexer.cpp
	@@ -2,12 +2,11 @@ namespace lex {

OldName is empty for an added file and NewName is empty for a deleted one.
*/
func Parse(diff string) (*Patch, error) {
	var p Patch
	var f *File
	for i, line := range strings.Split(diff, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "--- "):
			f = &File{OldName: fileName(strings.TrimPrefix(line, "--- "), "a/")}
			p.Files = append(p.Files, f)
		case strings.HasPrefix(line, "+++ "):
			if f == nil || len(f.Hunks) > 0 {
				return nil, fmt.Errorf("unexpected line %d '%s'", i+1, line)
			}
			f.NewName = fileName(strings.TrimPrefix(line, "+++ "), "b/")
		case strings.HasPrefix(line, "@@ -"):
			if f == nil {
				return nil, fmt.Errorf("hunk without a file header at line %d '%s'", i+1, line)
			}
			h, err := parseHunk(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", i+1, err)
			}
			f.Hunks = append(f.Hunks, h)
		}
	}
	return &p, nil
}

func fileName(s, prefix string) string {
	if tab := strings.IndexByte(s, '\t'); tab >= 0 {
		s = s[:tab]
	}
	if s == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(s, prefix)
}

func parseHunk(line string) (*Hunk, error) {
	match := hunkHeader.FindStringSubmatch(line)
	if match == nil {
		return nil, fmt.Errorf("could not extract hunk info from '%s'", line)
	}
	var nums [4]int
	for k, s := range match[1:] {
		if s == "" {
			// a missing count means one line
			nums[k] = 1
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("error converting '%s' to integer in '%s': %v", s, line, err)
		}
		nums[k] = v
	}
	return &Hunk{OldPos: nums[0], OldLines: nums[1], NewPos: nums[2], NewLines: nums[3]}, nil
}
