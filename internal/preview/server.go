// Package preview serves a generated fragment directory over HTTP so scheme
// authors can inspect argument tables before the documentation build runs.
// HTML fragments are wrapped in a minimal page, Markdown fragments are
// rendered, and an optional reload endpoint pushes regeneration events to the
// browser.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/ligiabernardet/ccpp-doc/internal/watch"
)

// Config configures the preview server.
type Config struct {
	// Dir is the fragment directory to serve
	Dir string

	// Host and Port form the listen address
	Host string
	Port int

	// Logger receives request and lifecycle logs; nil means zap.NewNop
	Logger *zap.Logger

	// Reload, when set, exposes the live-reload websocket at /ws
	Reload *watch.ReloadServer
}

// Server is the preview HTTP server.
type Server struct {
	config   Config
	logger   *zap.Logger
	markdown goldmark.Markdown
}

// NewServer creates a preview server for a fragment directory.
func NewServer(config Config) (*Server, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("fragment directory is required")
	}
	info, err := os.Stat(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot open fragment directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", config.Dir)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		config: config,
		logger: logger,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}, nil
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/styles.css", s.handleStylesheet)
	r.Get("/{fragment}", s.handleFragment)
	if s.config.Reload != nil {
		r.Get("/ws", s.config.Reload.HandleWebSocket)
	}

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening",
			zap.String("addr", addr),
			zap.String("dir", s.config.Dir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("preview server failed: %w", err)
		}
		return nil
	}
}

// logRequests logs one line per request through zap.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// handleIndex serves the generated index page. A generated _index.html wins;
// otherwise _index.md is rendered; otherwise the directory is listed.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if data, err := os.ReadFile(filepath.Join(s.config.Dir, "_index.html")); err == nil {
		s.writePage(w, data, true)
		return
	}

	if data, err := os.ReadFile(filepath.Join(s.config.Dir, "_index.md")); err == nil {
		var buf bytes.Buffer
		if err := s.markdown.Convert(data, &buf); err != nil {
			s.logger.Error("failed to render index markdown", zap.Error(err))
			http.Error(w, "failed to render index", http.StatusInternalServerError)
			return
		}
		s.writePage(w, buf.Bytes(), false)
		return
	}

	s.listFragments(w)
}

// handleFragment serves one fragment. HTML fragments are bare tables, so they
// are wrapped in a page shell; Markdown fragments are rendered first.
func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "fragment")
	if !validFragmentName(name) {
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.config.Dir, name))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch filepath.Ext(name) {
	case ".html":
		s.writePage(w, data, false)
	case ".md":
		var buf bytes.Buffer
		if err := s.markdown.Convert(data, &buf); err != nil {
			s.logger.Error("failed to render fragment markdown",
				zap.String("fragment", name), zap.Error(err))
			http.Error(w, "failed to render fragment", http.StatusInternalServerError)
			return
		}
		s.writePage(w, buf.Bytes(), false)
	default:
		http.NotFound(w, r)
	}
}

// handleStylesheet serves the stylesheet the generator writes alongside the
// fragments.
func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.config.Dir, "styles.css"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(data)
}

// listFragments renders a plain listing when no index page was generated.
func (s *Server) listFragments(w http.ResponseWriter) {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		http.Error(w, "cannot read fragment directory", http.StatusInternalServerError)
		return
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || !validFragmentName(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var body bytes.Buffer
	body.WriteString("<h1>Fragments</h1>\n<ul>\n")
	for _, name := range names {
		fmt.Fprintf(&body, `<li><a href="%s"><code>%s</code></a></li>`+"\n",
			template.HTMLEscapeString(name), template.HTMLEscapeString(name))
	}
	body.WriteString("</ul>\n")

	s.writePage(w, body.Bytes(), false)
}

// writePage writes an HTML response, wrapping bare content in a page shell
// and appending the reload script when live reload is on. complete marks
// content that already is a full document.
func (s *Server) writePage(w http.ResponseWriter, content []byte, complete bool) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if !complete {
		fmt.Fprint(w, pageHeader)
	}
	w.Write(content)
	if s.config.Reload != nil {
		fmt.Fprint(w, reloadScript)
	}
	if !complete {
		fmt.Fprint(w, pageFooter)
	}
}

// validFragmentName accepts entry-point fragment names only: an identifier
// plus a known extension. Everything else (dotfiles, traversal, generator
// internals) is rejected.
func validFragmentName(name string) bool {
	ext := filepath.Ext(name)
	if ext != ".html" && ext != ".md" {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	if stem == "" || stem == "_index" {
		return false
	}
	for i, r := range stem {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case (r == '_' || r >= '0' && r <= '9') && i > 0:
		default:
			return false
		}
	}
	return true
}

const pageHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Scheme Metadata Preview</title>
<link rel="stylesheet" href="styles.css">
</head>
<body>
<div class="container">
`

const pageFooter = `</div>
</body>
</html>
`

// reloadScript reconnects-and-reloads on events from the /ws endpoint.
const reloadScript = `<script>
(function() {
  var ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = function(ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "reload") { location.reload(); }
  };
})();
</script>
`
