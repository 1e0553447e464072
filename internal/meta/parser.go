package meta

import (
	"fmt"
	"os"
	"strings"
)

// Parser transforms scanned lines into a File, enforcing the metadata grammar
// and the record-level rules: required argument properties, valid intents,
// well-formed dimensions, and name uniqueness. All violations are collected;
// a file with any error produces no fragments downstream.
type Parser struct {
	lines   []line
	current int
	file    string
	errors  ErrorList
}

// Parse parses metadata source into a File. The returned error list is empty
// for a clean file; a non-empty list means the file must not be converted.
func Parse(src []byte, file string) (*File, ErrorList) {
	lines, errs := scanLines(src, file)

	p := &Parser{lines: lines, file: file, errors: errs}
	f := p.parseFile()
	return f, p.errors
}

// ParseFile reads and parses the metadata file at path. An unreadable file is
// reported through the error list like any other content failure so batch
// runs can collect it.
func ParseFile(path string) (*File, ErrorList) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrorList{{
			Pos:     Position{File: path},
			Message: "cannot read metadata file: " + err.Error(),
		}}
	}
	return Parse(src, path)
}

// parseFile parses the top-level structure: an optional table-properties
// section followed by any number of arg tables.
func (p *Parser) parseFile() *File {
	f := &File{Path: p.file}

	for !p.isAtEnd() {
		ln := p.advance()

		switch {
		case ln.kind == lineSection && ln.name == sectionTableProperties:
			props := p.parseTableProperties(ln)
			if f.Properties != nil {
				p.errorf(ln.pos, "duplicate [%s] section", sectionTableProperties)
				continue
			}
			f.Properties = props

		case ln.kind == lineSection && ln.name == sectionArgTable:
			if entry := p.parseArgTable(ln); entry != nil {
				if prev := f.EntryPoint(entry.Name); prev != nil {
					p.errors = append(p.errors, Error{
						Pos:     entry.Pos,
						Message: fmt.Sprintf("duplicate entry point '%s' (first declared at %s)", entry.Name, prev.Pos),
						Hint:    "entry-point names label fragments and must be unique",
					})
					continue
				}
				f.Entries = append(f.Entries, entry)
			}

		case ln.kind == lineSection:
			p.errors = append(p.errors, Error{
				Pos:     ln.pos,
				Message: fmt.Sprintf("section [%s] outside of any [%s]", ln.name, sectionArgTable),
				Hint:    fmt.Sprintf("argument sections must follow a [%s] header", sectionArgTable),
			})
			p.skipProperties()

		default:
			p.errorf(ln.pos, "property '%s' outside of any section", ln.key)
		}
	}

	return f
}

// parseTableProperties parses the body of a [ccpp-table-properties] section.
func (p *Parser) parseTableProperties(header line) *TableProperties {
	props := &TableProperties{Pos: header.pos}

	for _, ln := range p.takeProperties() {
		switch ln.key {
		case "name":
			props.Name = ln.value
		case "type":
			props.Type = ln.value
		case "dependencies":
			props.Dependencies = splitList(ln.value)
		default:
			// File-level properties beyond these are tolerated.
		}
	}

	if props.Name == "" {
		p.errorf(header.pos, "[%s] is missing the 'name' property", sectionTableProperties)
	}

	return props
}

// parseArgTable parses one [ccpp-arg-table] header plus its argument
// sections. Returns nil when the header itself is unusable.
func (p *Parser) parseArgTable(header line) *EntryPoint {
	entry := &EntryPoint{Pos: header.pos}

	for _, ln := range p.takeProperties() {
		switch ln.key {
		case "name":
			entry.Name = ln.value
		case "type":
			entry.Type = ln.value
		default:
			p.errorf(ln.pos, "unknown [%s] property '%s'", sectionArgTable, ln.key)
		}
	}

	usable := true
	if entry.Name == "" {
		p.errors = append(p.errors, Error{
			Pos:     header.pos,
			Message: fmt.Sprintf("[%s] is missing the 'name' property", sectionArgTable),
			Hint:    "name must match the subroutine the table describes",
		})
		usable = false
	} else if !isIdentifier(entry.Name) {
		p.errorf(header.pos, "entry point name %s is not a valid identifier", quote(entry.Name))
		usable = false
	}

	if entry.Type == "" {
		p.errorf(header.pos, "[%s] is missing the 'type' property", sectionArgTable)
	} else if !tableTypes[entry.Type] {
		p.errorf(header.pos, "unknown table type %s (expected scheme, module, ddt, or host)", quote(entry.Type))
	}

	// Argument sections belong to this table until the next reserved header.
	for !p.isAtEnd() {
		ln := p.peek()
		if ln.kind != lineSection {
			// Stray property after the last argument of a malformed section.
			p.advance()
			p.errorf(ln.pos, "property '%s' outside of any argument section", ln.key)
			continue
		}
		if ln.name == sectionArgTable || ln.name == sectionTableProperties {
			break
		}

		p.advance()
		if arg := p.parseArgument(ln); arg != nil {
			if prev := findArgument(entry.Args, arg.LocalName); prev != nil {
				p.errors = append(p.errors, Error{
					Pos:     arg.Pos,
					Message: fmt.Sprintf("duplicate argument '%s' in entry point '%s' (first declared at %s)", arg.LocalName, entry.Name, prev.Pos),
				})
				continue
			}
			entry.Args = append(entry.Args, arg)
		}
	}

	if !usable {
		return nil
	}
	return entry
}

// parseArgument parses one [local_name] section into an Argument, reporting
// every missing or invalid property.
func (p *Parser) parseArgument(header line) *Argument {
	arg := &Argument{LocalName: header.name, Pos: header.pos}

	seen := make(map[string]Position)
	for _, ln := range p.takeProperties() {
		if first, dup := seen[ln.key]; dup {
			p.errorf(ln.pos, "duplicate property '%s' (first set at %s)", ln.key, first)
			continue
		}
		seen[ln.key] = ln.pos

		switch ln.key {
		case keyStandardName:
			arg.StandardName = ln.value
		case keyLongName:
			arg.LongName = ln.value
		case keyUnits:
			arg.Units = ln.value
		case keyType:
			arg.Type = ln.value
		case keyKind:
			arg.Kind = ln.value
		case keyIntent:
			intent, ok := parseIntent(ln.value)
			if !ok {
				p.errors = append(p.errors, Error{
					Pos:     ln.pos,
					Message: fmt.Sprintf("invalid intent %s for argument '%s'", quote(ln.value), arg.LocalName),
					Hint:    "intent must be one of in, out, inout",
				})
				continue
			}
			arg.Intent = intent
		case keyDimensions:
			dims, err := parseDimensions(ln.value)
			if err != nil {
				p.errorf(ln.pos, "argument '%s': %v", arg.LocalName, err)
				continue
			}
			arg.Dimensions = dims
		default:
			if arg.Extra == nil {
				arg.Extra = make(map[string]string)
			}
			arg.Extra[ln.key] = ln.value
		}
	}

	if !isIdentifier(arg.LocalName) {
		p.errorf(header.pos, "argument name %s is not a valid identifier", quote(arg.LocalName))
		return nil
	}

	p.requireProperty(header.pos, arg.LocalName, keyStandardName, arg.StandardName, seen)
	p.requireProperty(header.pos, arg.LocalName, keyUnits, arg.Units, seen)
	p.requireProperty(header.pos, arg.LocalName, keyType, arg.Type, seen)

	if _, ok := seen[keyIntent]; !ok {
		p.errorf(header.pos, "argument '%s' is missing required property '%s'", arg.LocalName, keyIntent)
	}
	if _, ok := seen[keyDimensions]; !ok {
		p.errorf(header.pos, "argument '%s' is missing required property '%s'", arg.LocalName, keyDimensions)
	}

	if arg.LongName == "" {
		arg.LongName = strings.ReplaceAll(arg.StandardName, "_", " ")
	}

	return arg
}

// requireProperty reports a property that is absent or set to the empty
// string. The two cases get distinct messages because an empty value usually
// means a half-edited file.
func (p *Parser) requireProperty(pos Position, argName, key, value string, seen map[string]Position) {
	if value != "" {
		return
	}
	if setAt, ok := seen[key]; ok {
		p.errorf(setAt, "argument '%s' has an empty value for required property '%s'", argName, key)
		return
	}
	p.errorf(pos, "argument '%s' is missing required property '%s'", argName, key)
}

// takeProperties consumes and returns the property lines up to the next
// section header or end of input.
func (p *Parser) takeProperties() []line {
	var props []line
	for !p.isAtEnd() && p.peek().kind == lineProperty {
		props = append(props, p.advance())
	}
	return props
}

// skipProperties discards the body of a section that was rejected, so its
// properties do not trigger cascading errors.
func (p *Parser) skipProperties() {
	for !p.isAtEnd() && p.peek().kind == lineProperty {
		p.advance()
	}
}

// Helper methods for line-stream manipulation

func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.lines)
}

func (p *Parser) peek() line {
	return p.lines[p.current]
}

func (p *Parser) advance() line {
	ln := p.lines[p.current]
	p.current++
	return ln
}

func (p *Parser) errorf(pos Position, format string, args ...interface{}) {
	p.errors = append(p.errors, Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// parseDimensions parses a dimensions value such as "()", "(dim)" or
// "(dim_a,dim_b)". Each element is kept as an opaque specification; ranges
// like "ccpp_constant_one:horizontal_loop_extent" pass through unsplit.
func parseDimensions(value string) ([]string, error) {
	if !strings.HasPrefix(value, "(") || !strings.HasSuffix(value, ")") {
		return nil, fmt.Errorf("dimensions must be parenthesized, got %s", quote(value))
	}

	inner := strings.TrimSpace(value[1 : len(value)-1])
	if inner == "" {
		return nil, nil
	}

	parts := strings.Split(inner, ",")
	dims := make([]string, 0, len(parts))
	for _, part := range parts {
		dim := strings.TrimSpace(part)
		if dim == "" {
			return nil, fmt.Errorf("dimensions contain an empty element in %s", quote(value))
		}
		dims = append(dims, dim)
	}
	return dims, nil
}

// splitList splits a comma-separated property value, dropping empty elements.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// findArgument returns the argument with the given local name, or nil.
func findArgument(args []*Argument, name string) *Argument {
	for _, a := range args {
		if a.LocalName == name {
			return a
		}
	}
	return nil
}
