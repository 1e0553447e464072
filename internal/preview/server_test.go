package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFragmentDir builds a fragment directory like the generator produces.
func writeFragmentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"scheme_run.html": "<table class=\"arg-table\"><tr><td>im</td></tr></table>\n",
		"scheme_run.md":   "| local_name |\n|---|\n| `im` |\n",
		"_index.md":       "# Scheme Metadata\n\n[`scheme_run`](scheme_run.html)\n",
		"styles.css":      "body { color: #333; }\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()
	s, err := NewServer(Config{Dir: dir})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestServeHTMLFragment(t *testing.T) {
	srv := newTestServer(t, writeFragmentDir(t))

	status, body := get(t, srv.URL+"/scheme_run.html")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, `<table class="arg-table">`) {
		t.Errorf("fragment table missing: %q", body)
	}
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Errorf("fragment not wrapped in a page: %q", body)
	}
}

func TestServeMarkdownFragmentRendered(t *testing.T) {
	srv := newTestServer(t, writeFragmentDir(t))

	status, body := get(t, srv.URL+"/scheme_run.md")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	// goldmark GFM renders the pipe table to HTML
	if !strings.Contains(body, "<table>") {
		t.Errorf("markdown table not rendered: %q", body)
	}
}

func TestServeIndexRendersMarkdown(t *testing.T) {
	srv := newTestServer(t, writeFragmentDir(t))

	status, body := get(t, srv.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "Scheme Metadata") {
		t.Errorf("index heading missing: %q", body)
	}
}

func TestServeIndexPrefersGeneratedHTML(t *testing.T) {
	dir := writeFragmentDir(t)
	if err := os.WriteFile(filepath.Join(dir, "_index.html"), []byte("<!DOCTYPE html>\n<html><body>generated index</body></html>\n"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, dir)

	_, body := get(t, srv.URL+"/")
	if !strings.Contains(body, "generated index") {
		t.Errorf("generated _index.html not served: %q", body)
	}
}

func TestServeStylesheet(t *testing.T) {
	srv := newTestServer(t, writeFragmentDir(t))

	status, body := get(t, srv.URL+"/styles.css")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "color: #333") {
		t.Errorf("stylesheet content missing: %q", body)
	}
}

func TestServeRejectsNonFragmentNames(t *testing.T) {
	srv := newTestServer(t, writeFragmentDir(t))

	for _, path := range []string{
		"/missing.html",
		"/..%2f..%2fetc%2fpasswd",
		"/notes.txt",
		"/.hidden.html",
	} {
		status, _ := get(t, srv.URL+path)
		if status != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want 404", path, status)
		}
	}
}

func TestNewServerRequiresDirectory(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Error("expected error for empty dir")
	}
	if _, err := NewServer(Config{Dir: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestValidFragmentName(t *testing.T) {
	valid := []string{"scheme_run.html", "mp_thompson_init.md", "a.html"}
	invalid := []string{"_index.html", "..html", "9scheme.html", "scheme.txt", "sch eme.html", ".html"}

	for _, name := range valid {
		if !validFragmentName(name) {
			t.Errorf("validFragmentName(%q) = false", name)
		}
	}
	for _, name := range invalid {
		if validFragmentName(name) {
			t.Errorf("validFragmentName(%q) = true", name)
		}
	}
}
