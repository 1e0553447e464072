package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

// markdownWriter generates Markdown table fragments plus an index page
type markdownWriter struct {
	config *Config
}

// newMarkdownWriter creates a new Markdown writer
func newMarkdownWriter(config *Config) *markdownWriter {
	return &markdownWriter{config: config}
}

// write renders one fragment per non-empty entry point and returns the
// written fragment paths in input order.
func (w *markdownWriter) write(files []*meta.File) ([]string, error) {
	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, f := range files {
		for _, entry := range f.Entries {
			if entry.Empty() {
				continue
			}
			path, err := w.writeFragment(f, entry)
			if err != nil {
				return nil, err
			}
			written = append(written, path)
		}
	}

	if err := w.writeIndex(files); err != nil {
		return nil, err
	}
	return written, nil
}

// writeFragment renders the argument table of a single entry point as a bare
// pipe table, headed by an HTML comment naming the metadata source.
func (w *markdownWriter) writeFragment(f *meta.File, entry *meta.EntryPoint) (string, error) {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("<!-- Generated from %s; do not edit. -->\n\n", baseName(f.Path)))
	buf.WriteString(fmt.Sprintf("**`%s`** argument table\n\n", entry.Name))

	buf.WriteString("| local_name | standard_name | long_name | units | dimensions | type | kind | intent |\n")
	buf.WriteString("|------------|---------------|-----------|-------|------------|------|------|--------|\n")
	for _, arg := range entry.Args {
		kind := "-"
		if arg.Kind != "" {
			kind = fmt.Sprintf("`%s`", escapeCell(arg.Kind))
		}
		buf.WriteString(fmt.Sprintf("| `%s` | %s | %s | `%s` | `%s` | `%s` | %s | %s |\n",
			arg.LocalName,
			escapeCell(arg.StandardName),
			escapeCell(arg.LongName),
			escapeCell(arg.Units),
			escapeCell(arg.DimensionSpec()),
			escapeCell(arg.Type),
			kind,
			arg.Intent))
	}

	outputPath := filepath.Join(w.config.OutputDir, FragmentName(entry.Name, FormatMarkdown))
	if err := os.WriteFile(outputPath, []byte(buf.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// writeIndex generates the _index.md landing page
func (w *markdownWriter) writeIndex(files []*meta.File) error {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("# %s\n\n", w.config.Title))
	buf.WriteString("Argument tables generated from scheme metadata.\n\n")

	buf.WriteString("## Entry Points\n\n")
	entries := collectIndex(files, FormatMarkdown)
	if len(entries) == 0 {
		buf.WriteString("No entry points documented.\n")
	} else {
		buf.WriteString("| Entry point | Arguments | Metadata source |\n")
		buf.WriteString("|-------------|-----------|-----------------|\n")
		for _, e := range entries {
			buf.WriteString(fmt.Sprintf("| [`%s`](%s) | %d | `%s` |\n",
				e.Name, e.File, e.ArgCount, e.Source))
		}
	}

	outputPath := filepath.Join(w.config.OutputDir, "_index.md")
	return os.WriteFile(outputPath, []byte(buf.String()), 0644)
}

// escapeCell escapes pipe characters so metadata values cannot break table rows
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
