// Package meta parses CCPP scheme metadata files (.meta) into typed records.
// A metadata file describes the entry points of a physics scheme and, for each
// entry point, the ordered argument list the framework passes to it. The
// parser is a single pass over the file and collects every content error it
// finds instead of stopping at the first one.
package meta

import "strings"

// Section names recognized at the top level of a metadata file.
const (
	sectionTableProperties = "ccpp-table-properties"
	sectionArgTable        = "ccpp-arg-table"
)

// Property keys of an argument record.
const (
	keyStandardName = "standard_name"
	keyLongName     = "long_name"
	keyUnits        = "units"
	keyDimensions   = "dimensions"
	keyType         = "type"
	keyKind         = "kind"
	keyIntent       = "intent"
)

// Intent describes the data flow direction of an argument.
type Intent string

const (
	IntentIn    Intent = "in"
	IntentOut   Intent = "out"
	IntentInOut Intent = "inout"
)

// parseIntent maps a raw property value to an Intent.
func parseIntent(s string) (Intent, bool) {
	switch strings.ToLower(s) {
	case "in":
		return IntentIn, true
	case "out":
		return IntentOut, true
	case "inout":
		return IntentInOut, true
	}
	return "", false
}

// String returns the metadata spelling of the intent.
func (i Intent) String() string {
	return string(i)
}

// Table types accepted for an arg table.
var tableTypes = map[string]bool{
	"scheme": true,
	"module": true,
	"ddt":    true,
	"host":   true,
}

// File is a parsed metadata file.
type File struct {
	// Path is the filesystem path the file was read from
	Path string

	// Properties holds the optional [ccpp-table-properties] section
	Properties *TableProperties

	// Entries contains the entry-point records in declared order
	Entries []*EntryPoint
}

// TableProperties holds file-level properties shared by all entry points.
type TableProperties struct {
	// Name is the scheme name (mp_thompson, ...)
	Name string

	// Type is the table type (scheme, module, ddt, host)
	Type string

	// Dependencies lists source files the scheme depends on
	Dependencies []string

	// Pos is the position of the section header
	Pos Position
}

// EntryPoint is one [ccpp-arg-table] record: a subroutine the framework calls
// and its ordered argument list.
type EntryPoint struct {
	// Name is the subroutine identifier (mp_thompson_run, ...)
	Name string

	// Type is the table type, normally "scheme"
	Type string

	// Args contains the argument records in declared order
	Args []*Argument

	// Pos is the position of the section header
	Pos Position
}

// Empty reports whether the entry point declares no arguments. Empty entry
// points produce no documentation fragment.
func (e *EntryPoint) Empty() bool {
	return len(e.Args) == 0
}

// Argument is one argument record of an entry point.
type Argument struct {
	// LocalName is the dummy argument name in the subroutine signature
	LocalName string

	// StandardName is the project-wide variable identifier
	StandardName string

	// LongName is the human-readable description; defaults to StandardName
	// with underscores replaced by spaces
	LongName string

	// Units is the unit string (K, m s-1, count, flag, none, ...)
	Units string

	// Dimensions lists the dimension specifications, outermost first;
	// empty for scalars
	Dimensions []string

	// Type is the Fortran type or derived-type name
	Type string

	// Kind is the optional kind or length parameter (kind_phys, len=*, ...)
	Kind string

	// Intent is the data flow direction
	Intent Intent

	// Extra retains unrecognized properties for forward compatibility;
	// they are not rendered
	Extra map[string]string

	// Pos is the position of the argument section header
	Pos Position
}

// Rank returns the number of dimensions (0 for scalars).
func (a *Argument) Rank() int {
	return len(a.Dimensions)
}

// DimensionSpec returns the dimensions in metadata notation, e.g. "()" or
// "(horizontal_loop_extent,vertical_layer_dimension)".
func (a *Argument) DimensionSpec() string {
	return "(" + strings.Join(a.Dimensions, ",") + ")"
}

// EntryPoint returns the entry point with the given name, or nil.
func (f *File) EntryPoint(name string) *EntryPoint {
	for _, e := range f.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// isIdentifier reports whether s is a valid Fortran-style identifier: a
// letter followed by letters, digits, or underscores. Entry-point names must
// be identifiers because fragment filenames are derived from them.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r == '_' && i > 0:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
