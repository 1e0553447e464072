package docgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ligiabernardet/ccpp-doc/internal/meta"
)

// sampleFiles builds two parsed metadata files: one with an empty init phase
// and a three-argument run phase, one with a single-argument run phase.
func sampleFiles() []*meta.File {
	return []*meta.File{
		{
			Path: "schemes/rrtmg_sw.meta",
			Properties: &meta.TableProperties{
				Name: "rrtmg_sw",
				Type: "scheme",
			},
			Entries: []*meta.EntryPoint{
				{
					Name: "rrtmg_sw_init",
					Type: "scheme",
				},
				{
					Name: "rrtmg_sw_run",
					Type: "scheme",
					Args: []*meta.Argument{
						{
							LocalName:    "ncol",
							StandardName: "horizontal_loop_extent",
							LongName:     "horizontal loop extent",
							Units:        "count",
							Type:         "integer",
							Intent:       meta.IntentIn,
						},
						{
							LocalName:    "tsfc",
							StandardName: "surface_skin_temperature",
							LongName:     "surface skin temperature",
							Units:        "K",
							Dimensions:   []string{"horizontal_loop_extent"},
							Type:         "real",
							Kind:         "kind_phys",
							Intent:       meta.IntentIn,
						},
						{
							LocalName:    "errmsg",
							StandardName: "ccpp_error_message",
							LongName:     "ccpp error message",
							Units:        "none",
							Type:         "character",
							Kind:         "len=*",
							Intent:       meta.IntentOut,
						},
					},
				},
			},
		},
		{
			Path: "schemes/mp_thompson.meta",
			Properties: &meta.TableProperties{
				Name: "mp_thompson",
				Type: "scheme",
			},
			Entries: []*meta.EntryPoint{
				{
					Name: "mp_thompson_run",
					Type: "scheme",
					Args: []*meta.Argument{
						{
							LocalName:    "qv",
							StandardName: "water_vapor_mixing_ratio",
							LongName:     "water vapor mixing ratio",
							Units:        "kg kg-1",
							Dimensions:   []string{"horizontal_loop_extent", "vertical_layer_dimension"},
							Type:         "real",
							Kind:         "kind_phys",
							Intent:       meta.IntentInOut,
						},
					},
				},
			},
		},
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestGenerator_GenerateHTML(t *testing.T) {
	tmpDir := t.TempDir()

	generator, err := NewGenerator(&Config{
		OutputDir: tmpDir,
		Formats:   []Format{FormatHTML},
		Title:     "Test Schemes",
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	result, err := generator.Generate(sampleFiles())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// One fragment per non-empty entry point, in input order
	want := []string{
		filepath.Join(tmpDir, "rrtmg_sw_run.html"),
		filepath.Join(tmpDir, "mp_thompson_run.html"),
	}
	if diff := cmp.Diff(want, result.Fragments); diff != "" {
		t.Errorf("Fragments mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"rrtmg_sw_init"}, result.EmptyEntries); diff != "" {
		t.Errorf("EmptyEntries mismatch (-want +got):\n%s", diff)
	}

	// Empty entry points produce no file
	if _, err := os.Stat(filepath.Join(tmpDir, "rrtmg_sw_init.html")); !os.IsNotExist(err) {
		t.Error("rrtmg_sw_init has no arguments and should not produce a fragment")
	}

	fragment := mustRead(t, filepath.Join(tmpDir, "rrtmg_sw_run.html"))

	if !strings.HasPrefix(fragment, "<!-- Generated from rrtmg_sw.meta; do not edit. -->") {
		t.Error("fragment should start with the generated-from comment")
	}

	// Fragments are bare tables, not documents
	if strings.Contains(fragment, "<html") || strings.Contains(fragment, "<!DOCTYPE") {
		t.Error("fragment should not contain a document envelope")
	}

	for _, header := range []string{
		"local_name", "standard_name", "long_name", "units",
		"dimensions", "type", "kind", "intent",
	} {
		if !strings.Contains(fragment, "<th>"+header+"</th>") {
			t.Errorf("fragment should have column header %q", header)
		}
	}

	if !strings.Contains(fragment, "<caption><code>rrtmg_sw_run</code> argument table</caption>") {
		t.Error("fragment caption should name the entry point")
	}

	// Rows appear in declared argument order
	ncol := strings.Index(fragment, "ncol")
	tsfc := strings.Index(fragment, "tsfc")
	errmsg := strings.Index(fragment, "errmsg")
	if ncol == -1 || tsfc == -1 || errmsg == -1 {
		t.Fatal("fragment should contain all argument local names")
	}
	if !(ncol < tsfc && tsfc < errmsg) {
		t.Error("fragment rows should follow declared argument order")
	}

	if !strings.Contains(fragment, "<td><code>(horizontal_loop_extent)</code></td>") {
		t.Error("fragment should render the dimension spec")
	}

	index := mustRead(t, filepath.Join(tmpDir, "_index.html"))
	if !strings.Contains(index, "Test Schemes") {
		t.Error("index should carry the configured title")
	}
	if !strings.Contains(index, `href="rrtmg_sw_run.html"`) {
		t.Error("index should link to fragments")
	}
	if !strings.Contains(index, "mp_thompson.meta") {
		t.Error("index should name the metadata sources")
	}

	css := mustRead(t, filepath.Join(tmpDir, "styles.css"))
	if !strings.Contains(css, ".arg-table") {
		t.Error("stylesheet should style argument tables")
	}
}

func TestGenerator_GenerateMarkdown(t *testing.T) {
	tmpDir := t.TempDir()

	generator, err := NewGenerator(&Config{
		OutputDir: tmpDir,
		Formats:   []Format{FormatMarkdown},
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	result, err := generator.Generate(sampleFiles())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Fragments) != 2 {
		t.Fatalf("Expected 2 fragments, got %d", len(result.Fragments))
	}

	fragment := mustRead(t, filepath.Join(tmpDir, "rrtmg_sw_run.md"))

	if !strings.HasPrefix(fragment, "<!-- Generated from rrtmg_sw.meta; do not edit. -->") {
		t.Error("fragment should start with the generated-from comment")
	}
	if !strings.Contains(fragment, "**`rrtmg_sw_run`** argument table") {
		t.Error("fragment should name the entry point")
	}
	if !strings.Contains(fragment, "| local_name | standard_name | long_name | units | dimensions | type | kind | intent |") {
		t.Error("fragment should have the pipe table header")
	}
	if !strings.Contains(fragment, "| `ncol` | horizontal_loop_extent | horizontal loop extent | `count` | `()` | `integer` | - | in |") {
		t.Errorf("unexpected ncol row:\n%s", fragment)
	}
	if !strings.Contains(fragment, "`kind_phys`") {
		t.Error("fragment should render argument kinds")
	}

	index := mustRead(t, filepath.Join(tmpDir, "_index.md"))
	if !strings.Contains(index, "# Scheme Metadata") {
		t.Error("index should carry the default title")
	}
	if !strings.Contains(index, "[`mp_thompson_run`](mp_thompson_run.md)") {
		t.Error("index should link to fragments")
	}
}

func TestGenerator_BothFormats(t *testing.T) {
	tmpDir := t.TempDir()

	generator, err := NewGenerator(&Config{
		OutputDir: tmpDir,
		Formats:   []Format{FormatHTML, FormatMarkdown},
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	result, err := generator.Generate(sampleFiles())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Fragments) != 4 {
		t.Errorf("Expected 4 fragments across both formats, got %d", len(result.Fragments))
	}

	// Empty entry points are reported once, not once per format
	if len(result.EmptyEntries) != 1 {
		t.Errorf("Expected 1 empty entry, got %v", result.EmptyEntries)
	}

	for _, name := range []string{"rrtmg_sw_run.html", "rrtmg_sw_run.md", "_index.html", "_index.md"} {
		if _, err := os.Stat(filepath.Join(tmpDir, name)); err != nil {
			t.Errorf("%s was not created: %v", name, err)
		}
	}
}

func TestGenerator_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()

	generator, err := NewGenerator(&Config{
		OutputDir: tmpDir,
		Formats:   []Format{FormatHTML, FormatMarkdown},
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	if _, err := generator.Generate(sampleFiles()); err != nil {
		t.Fatalf("First Generate failed: %v", err)
	}
	first := snapshotDir(t, tmpDir)

	if _, err := generator.Generate(sampleFiles()); err != nil {
		t.Fatalf("Second Generate failed: %v", err)
	}
	second := snapshotDir(t, tmpDir)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Output changed between identical runs (-first +second):\n%s", diff)
	}
}

// snapshotDir reads every file in dir into a name-to-content map
func snapshotDir(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	snap := make(map[string]string, len(entries))
	for _, entry := range entries {
		snap[entry.Name()] = mustRead(t, filepath.Join(dir, entry.Name()))
	}
	return snap
}

func TestGenerator_EscapesMetadataValues(t *testing.T) {
	tmpDir := t.TempDir()

	files := []*meta.File{
		{
			Path: "awkward.meta",
			Entries: []*meta.EntryPoint{
				{
					Name: "awkward_run",
					Args: []*meta.Argument{
						{
							LocalName:    "flux",
							StandardName: "surface_upward_flux",
							LongName:     "flux <positive up | negative down>",
							Units:        "W m-2",
							Type:         "real",
							Kind:         "kind_phys",
							Intent:       meta.IntentOut,
						},
					},
				},
			},
		},
	}

	generator, err := NewGenerator(&Config{
		OutputDir: tmpDir,
		Formats:   []Format{FormatHTML, FormatMarkdown},
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if _, err := generator.Generate(files); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	html := mustRead(t, filepath.Join(tmpDir, "awkward_run.html"))
	if !strings.Contains(html, "&lt;positive up | negative down&gt;") {
		t.Error("HTML fragment should escape angle brackets in values")
	}

	md := mustRead(t, filepath.Join(tmpDir, "awkward_run.md"))
	if !strings.Contains(md, `flux <positive up \| negative down>`) {
		t.Error("Markdown fragment should escape pipes in values")
	}
}

func TestGenerator_EmptyEntriesOnly(t *testing.T) {
	tmpDir := t.TempDir()

	files := []*meta.File{
		{
			Path: "schemes/noop.meta",
			Entries: []*meta.EntryPoint{
				{Name: "noop_init"},
				{Name: "noop_finalize"},
			},
		},
	}

	generator, err := NewGenerator(&Config{OutputDir: tmpDir})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	result, err := generator.Generate(files)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Fragments) != 0 {
		t.Errorf("Expected no fragments, got %v", result.Fragments)
	}
	if len(result.EmptyEntries) != 2 {
		t.Errorf("Expected 2 empty entries, got %v", result.EmptyEntries)
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	if _, err := NewGenerator(&Config{}); err == nil {
		t.Error("Expected error for missing output directory")
	}

	if _, err := NewGenerator(&Config{OutputDir: "../outside"}); err == nil {
		t.Error("Expected error for path traversal in output directory")
	}

	generator, err := NewGenerator(&Config{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if len(generator.config.Formats) != 1 || generator.config.Formats[0] != FormatHTML {
		t.Errorf("Formats should default to HTML, got %v", generator.config.Formats)
	}
	if generator.config.Title == "" {
		t.Error("Title should receive a default")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input   string
		want    []Format
		wantErr bool
	}{
		{"", []Format{FormatHTML}, false},
		{"html", []Format{FormatHTML}, false},
		{"markdown", []Format{FormatMarkdown}, false},
		{"html,markdown", []Format{FormatHTML, FormatMarkdown}, false},
		{" Markdown , HTML ", []Format{FormatMarkdown, FormatHTML}, false},
		{"pdf", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseFormats(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormats(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormats(%q) failed: %v", tt.input, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseFormats(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestFragmentName(t *testing.T) {
	if got := FragmentName("scheme_run", FormatHTML); got != "scheme_run.html" {
		t.Errorf("FragmentName html = %q", got)
	}
	if got := FragmentName("scheme_run", FormatMarkdown); got != "scheme_run.md" {
		t.Errorf("FragmentName markdown = %q", got)
	}
}
