package docgen

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

// htmlWriter generates HTML table fragments plus an index page
type htmlWriter struct {
	config    *Config
	templates *template.Template
}

// newHTMLWriter creates a new HTML writer
func newHTMLWriter(config *Config) *htmlWriter {
	return &htmlWriter{config: config}
}

// write renders one fragment per non-empty entry point and returns the
// written fragment paths in input order.
func (w *htmlWriter) write(files []*meta.File) ([]string, error) {
	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.loadTemplates(); err != nil {
		return nil, err
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
	if err := w.writeStylesheet(); err != nil {
		return nil, err
	}

	return written, nil
}

// loadTemplates parses the embedded fragment and index templates
func (w *htmlWriter) loadTemplates() error {
	tmpl := template.New("")

	var err error
	tmpl, err = tmpl.Parse(fragmentTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse fragment template: %w", err)
	}

	tmpl, err = tmpl.Parse(htmlIndexTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse index template: %w", err)
	}

	w.templates = tmpl
	return nil
}

// writeFragment renders the argument table of a single entry point. The
// fragment is a bare table so it can be spliced into documentation pages via
// \htmlinclude without a document envelope.
func (w *htmlWriter) writeFragment(f *meta.File, entry *meta.EntryPoint) (string, error) {
	data := map[string]interface{}{
		"Entry":  entry,
		"Source": baseName(f.Path),
	}

	var buf bytes.Buffer
	if err := w.templates.ExecuteTemplate(&buf, "fragment", data); err != nil {
		return "", fmt.Errorf("failed to render fragment for '%s': %w", entry.Name, err)
	}

	outputPath := filepath.Join(w.config.OutputDir, FragmentName(entry.Name, FormatHTML))
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// writeIndex renders the _index.html landing page. The leading underscore
// keeps the name out of the entry-point namespace: entry points are
// identifiers and cannot start with '_'.
func (w *htmlWriter) writeIndex(files []*meta.File) error {
	data := map[string]interface{}{
		"Title":   w.config.Title,
		"Entries": collectIndex(files, FormatHTML),
	}

	var buf bytes.Buffer
	if err := w.templates.ExecuteTemplate(&buf, "index", data); err != nil {
		return fmt.Errorf("failed to render index: %w", err)
	}

	outputPath := filepath.Join(w.config.OutputDir, "_index.html")
	return os.WriteFile(outputPath, buf.Bytes(), 0644)
}

// writeStylesheet writes the shared stylesheet used by the index page.
func (w *htmlWriter) writeStylesheet() error {
	cssPath := filepath.Join(w.config.OutputDir, "styles.css")
	if err := os.WriteFile(cssPath, []byte(cssContent), 0644); err != nil {
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return nil
}

// Template definitions

const fragmentTemplate = `{{define "fragment"}}<!-- Generated from {{.Source}}; do not edit. -->
<table class="arg-table">
  <caption><code>{{.Entry.Name}}</code> argument table</caption>
  <thead>
    <tr>
      <th>local_name</th>
      <th>standard_name</th>
      <th>long_name</th>
      <th>units</th>
      <th>dimensions</th>
      <th>type</th>
      <th>kind</th>
      <th>intent</th>
    </tr>
  </thead>
  <tbody>
{{- range .Entry.Args}}
    <tr>
      <td><code>{{.LocalName}}</code></td>
      <td>{{.StandardName}}</td>
      <td>{{.LongName}}</td>
      <td><code>{{.Units}}</code></td>
      <td><code>{{.DimensionSpec}}</code></td>
      <td><code>{{.Type}}</code></td>
      <td>{{if .Kind}}<code>{{.Kind}}</code>{{end}}</td>
      <td>{{.Intent}}</td>
    </tr>
{{- end}}
  </tbody>
</table>
{{end}}`

const htmlIndexTemplate = `{{define "index"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="styles.css">
</head>
<body>
    <div class="container">
        <div class="page-header">
            <h1>{{.Title}}</h1>
            <p class="description">Argument tables generated from scheme metadata.</p>
        </div>
        <div class="section">
            <h2>Entry Points</h2>
            <table class="arg-table">
                <thead>
                    <tr>
                        <th>Entry point</th>
                        <th>Arguments</th>
                        <th>Metadata source</th>
                    </tr>
                </thead>
                <tbody>
{{- range .Entries}}
                    <tr>
                        <td><a href="{{.File}}"><code>{{.Name}}</code></a></td>
                        <td>{{.ArgCount}}</td>
                        <td><code>{{.Source}}</code></td>
                    </tr>
{{- end}}
                </tbody>
            </table>
        </div>
    </div>
</body>
</html>
{{end}}`

const cssContent = `
* {
    margin: 0;
    padding: 0;
    box-sizing: border-box;
}

body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
    line-height: 1.6;
    color: #333;
    background: #f5f5f5;
}

.container {
    max-width: 1100px;
    margin: 0 auto;
    padding: 40px;
    background: white;
    min-height: 100vh;
}

.page-header {
    margin-bottom: 40px;
    border-bottom: 2px solid #3498db;
    padding-bottom: 20px;
}

.page-header h1 {
    font-size: 32px;
    color: #2c3e50;
    margin-bottom: 10px;
}

.description {
    font-size: 16px;
    color: #7f8c8d;
}

.section {
    margin-bottom: 40px;
}

.section h2 {
    font-size: 24px;
    color: #2c3e50;
    margin-bottom: 20px;
    border-bottom: 1px solid #ecf0f1;
    padding-bottom: 10px;
}

.arg-table {
    width: 100%;
    border-collapse: collapse;
    margin-top: 15px;
}

.arg-table caption {
    caption-side: top;
    text-align: left;
    font-weight: 600;
    padding-bottom: 8px;
    color: #2c3e50;
}

.arg-table th {
    background: #ecf0f1;
    padding: 10px 12px;
    text-align: left;
    font-weight: 600;
    border-bottom: 2px solid #bdc3c7;
}

.arg-table td {
    padding: 10px 12px;
    border-bottom: 1px solid #ecf0f1;
    vertical-align: top;
}

.arg-table a {
    color: #3498db;
    text-decoration: none;
}

.arg-table a:hover {
    text-decoration: underline;
}

code {
    font-family: 'Courier New', monospace;
    font-size: 14px;
}
`
