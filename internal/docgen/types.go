// Package docgen renders parsed scheme metadata into per-entry-point
// documentation fragments. Each non-empty entry point yields exactly one
// fragment per requested format, named after the entry point so that
// inclusion directives (Doxygen \htmlinclude) resolve unambiguously.
// Generation is deterministic: the same input always produces byte-identical
// fragments.
package docgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

// Format represents a fragment output format
type Format string

const (
	// FormatHTML generates HTML table fragments
	FormatHTML Format = "html"

	// FormatMarkdown generates Markdown table fragments
	FormatMarkdown Format = "markdown"
)

// ParseFormats parses a comma-separated format list. An empty value selects
// HTML; an unrecognized name is a usage error, not a silent default.
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return []Format{FormatHTML}, nil
	}

	var formats []Format
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		switch Format(name) {
		case FormatHTML:
			formats = append(formats, FormatHTML)
		case FormatMarkdown:
			formats = append(formats, FormatMarkdown)
		default:
			return nil, fmt.Errorf("unknown format '%s' (expected html, markdown)", name)
		}
	}

	if len(formats) == 0 {
		return []Format{FormatHTML}, nil
	}
	return formats, nil
}

// Ext returns the fragment filename extension for the format.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return ".html"
}

// Config holds configuration for fragment generation
type Config struct {
	// OutputDir is the destination directory for fragments
	OutputDir string

	// Formats specifies which formats to generate
	Formats []Format

	// Title labels the generated index pages
	Title string
}

// Generator renders metadata files into documentation fragments
type Generator struct {
	config *Config
}

// Result reports what one Generate call produced.
type Result struct {
	// Fragments lists the written fragment paths in generation order
	Fragments []string

	// EmptyEntries lists entry points that produced no fragment because
	// they declare no arguments
	EmptyEntries []string
}

// NewGenerator creates a fragment generator. The output directory must be set
// and free of path traversal; formats default to HTML.
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil || config.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if containsPathTraversal(config.OutputDir) {
		return nil, fmt.Errorf("invalid output directory: path traversal detected")
	}
	if len(config.Formats) == 0 {
		config.Formats = []Format{FormatHTML}
	}
	if config.Title == "" {
		config.Title = "Scheme Metadata"
	}
	return &Generator{config: config}, nil
}

// Generate writes one fragment per non-empty entry point of the given files,
// in every configured format, plus a per-format index page. The files must
// have parsed without errors; entry-point names must already be unique across
// them.
func (g *Generator) Generate(files []*meta.File) (*Result, error) {
	result := &Result{}
	for _, f := range files {
		for _, e := range f.Entries {
			if e.Empty() {
				result.EmptyEntries = append(result.EmptyEntries, e.Name)
			}
		}
	}

	for _, format := range g.config.Formats {
		var (
			written []string
			err     error
		)
		switch format {
		case FormatHTML:
			written, err = newHTMLWriter(g.config).write(files)
		case FormatMarkdown:
			written, err = newMarkdownWriter(g.config).write(files)
		default:
			err = fmt.Errorf("unknown format '%s'", format)
		}
		if err != nil {
			return nil, err
		}
		result.Fragments = append(result.Fragments, written...)
	}

	return result, nil
}

// FragmentName returns the fragment filename for an entry point: the entry
// point's name verbatim plus the format extension. Pure and deterministic so
// repeated runs are idempotent and inclusion directives can be written by
// hand.
func FragmentName(entryPoint string, format Format) string {
	return entryPoint + format.Ext()
}

// indexEntry is one row of an index page.
type indexEntry struct {
	Name     string
	File     string // fragment filename
	Source   string // metadata file base name
	ArgCount int
}

// collectIndex gathers the non-empty entry points of all files, sorted by
// name. Sorting keeps index bytes stable regardless of input order.
func collectIndex(files []*meta.File, format Format) []indexEntry {
	var entries []indexEntry
	for _, f := range files {
		for _, e := range f.Entries {
			if e.Empty() {
				continue
			}
			entries = append(entries, indexEntry{
				Name:     e.Name,
				File:     FragmentName(e.Name, format),
				Source:   baseName(f.Path),
				ArgCount: len(e.Args),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// baseName returns the final path element without touching the filesystem.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// containsPathTraversal checks if a path contains parent-directory elements.
func containsPathTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}
