package meta

import (
	"bufio"
	"bytes"
	"strings"
)

// lineKind discriminates the meaningful line shapes of a metadata file.
type lineKind int

const (
	lineSection  lineKind = iota // [name]
	lineProperty                 // key = value
)

// line is one meaningful line of a metadata file. Blank and comment-only
// lines are dropped during scanning.
type line struct {
	kind lineKind

	// name is the section name for lineSection
	name string

	// key and value hold the property for lineProperty; key is lowercased
	key   string
	value string

	pos Position
}

// scanner splits metadata source into lines, stripping comments and blank
// lines and collecting malformed-line errors.
type scanner struct {
	file   string
	lines  []line
	errors ErrorList
}

// scanLines scans src and returns the meaningful lines with any errors.
// Scanning always continues past an error so that one malformed line does not
// hide the rest of the file.
func scanLines(src []byte, file string) ([]line, ErrorList) {
	s := &scanner{file: file}

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for sc.Scan() {
		lineno++
		s.scanLine(sc.Text(), lineno)
	}
	if err := sc.Err(); err != nil {
		s.addError(Position{File: file, Line: lineno}, "cannot read source: "+err.Error(), "")
	}

	return s.lines, s.errors
}

// scanLine classifies a single raw line.
func (s *scanner) scanLine(raw string, lineno int) {
	// Strip trailing comment. '#' has no escaped form in this format.
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return
	}

	col := 1 + indentWidth(raw)
	pos := Position{File: s.file, Line: lineno, Column: col}

	if strings.HasPrefix(trimmed, "[") {
		s.scanSection(trimmed, pos)
		return
	}

	s.scanProperty(trimmed, pos)
}

// scanSection handles a "[name]" line.
func (s *scanner) scanSection(trimmed string, pos Position) {
	if !strings.HasSuffix(trimmed, "]") {
		s.addError(pos, "malformed section header: missing closing ']'", "")
		return
	}

	name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if name == "" {
		s.addError(pos, "empty section name", "")
		return
	}
	if strings.ContainsAny(name, "[]") {
		s.addError(pos, "malformed section header: nested brackets in ["+name+"]", "")
		return
	}

	s.lines = append(s.lines, line{kind: lineSection, name: name, pos: pos})
}

// scanProperty handles a "key = value" line.
func (s *scanner) scanProperty(trimmed string, pos Position) {
	eq := strings.IndexByte(trimmed, '=')
	if eq < 0 {
		s.addError(pos, "expected 'key = value' or '[section]', got "+quote(trimmed), "")
		return
	}

	key := strings.TrimSpace(trimmed[:eq])
	if key == "" {
		s.addError(pos, "property line with empty key", "")
		return
	}

	value := strings.TrimSpace(trimmed[eq+1:])

	s.lines = append(s.lines, line{
		kind:  lineProperty,
		key:   strings.ToLower(key),
		value: value,
		pos:   pos,
	})
}

func (s *scanner) addError(pos Position, message, hint string) {
	s.errors = append(s.errors, Error{Pos: pos, Message: message, Hint: hint})
}

// indentWidth counts the leading whitespace of a raw line, with tabs counted
// as single columns.
func indentWidth(raw string) int {
	n := 0
	for _, r := range raw {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

// quote shortens and quotes a lexeme for error messages.
func quote(s string) string {
	const max = 40
	if len(s) > max {
		s = s[:max] + "..."
	}
	return "'" + s + "'"
}
