package meta

import (
	"fmt"
	"sort"
	"strings"
)

// Position locates a construct in a metadata file. Line and Column are
// 1-based; a zero Line means the position refers to the file as a whole.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// String formats the position as file:line:column, omitting trailing zero
// components.
func (p Position) String() string {
	switch {
	case p.Line == 0:
		return p.File
	case p.Column == 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Error is a content error found while parsing a metadata file.
type Error struct {
	Pos     Position `json:"position"`
	Message string   `json:"message"`

	// Hint optionally suggests a fix
	Hint string `json:"hint,omitempty"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// ErrorList aggregates the content errors of one or more files.
type ErrorList []Error

// Error summarizes the list; the individual entries carry the positions.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
	}
}

// Err returns the list as an error, or nil when it is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Sort orders the list by file, then line, then column. Parsing emits errors
// in source order already; Sort is for lists merged across files.
func (l ErrorList) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Pos, l[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Format renders every error on its own line for terminal output.
func (l ErrorList) Format() string {
	var b strings.Builder
	for _, e := range l {
		b.WriteString(e.Error())
		if e.Hint != "" {
			b.WriteString("\n  hint: ")
			b.WriteString(e.Hint)
		}
		b.WriteString("\n")
	}
	return b.String()
}
