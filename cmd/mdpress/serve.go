package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
	"github.com/alnah/go-mdpress/internal/refs"
)

const (
	defaultServeAddr = "127.0.0.1:8765"
	shutdownTimeout  = 5 * time.Second
	requestTimeout   = 90 * time.Second
)

// defaultCORSOrigins lets local editors fetch /copy from another port.
var defaultCORSOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// previewServer serves the live preview of one document. The document is
// read again on every request so edits show up on reload.
type previewServer struct {
	s       *session
	doc     *document
	ed      *mdpress.Editor
	preview *mdpress.PreviewSession
	origins []string
	router  chi.Router

	pollInterval time.Duration // document polling for live reload
}

// newPreviewServer creates the server for doc. ed must use an HTTP bridge
// pointing at this server's /local endpoint. Empty origins means
// defaultCORSOrigins.
func newPreviewServer(s *session, doc *document, ed *mdpress.Editor, origins []string) *previewServer {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	srv := &previewServer{
		s:       s,
		doc:     doc,
		ed:      ed,
		preview: mdpress.NewPreviewSession(ed),
		origins: origins,

		pollInterval: reloadPollInterval,
	}
	srv.router = srv.buildRouter()
	return srv
}

// buildRouter creates the chi router with all routes.
func (srv *previewServer) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(srv.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srv.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ws", srv.handleReload)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/", srv.handlePreview)
		r.Get("/local", srv.handleLocal)
		r.Get("/copy", srv.handleCopy)
		r.Get("/copy.txt", srv.handleCopyText)
	})

	return r
}

// logRequests logs each request at debug level.
func (srv *previewServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		srv.s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

// reload re-reads the document from disk.
func (srv *previewServer) reload() (*document, error) {
	data, err := os.ReadFile(srv.doc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}
	doc := *srv.doc
	doc.Markdown = string(data)
	return &doc, nil
}

// render produces the current preview. A request overtaken by a newer one
// gets the newer result.
func (srv *previewServer) render(ctx context.Context) (string, error) {
	doc, err := srv.reload()
	if err != nil {
		return "", err
	}
	html, err := srv.preview.Render(ctx, srv.s.previewInput(doc))
	if errors.Is(err, mdpress.ErrSuperseded) {
		if latest, seq := srv.preview.Latest(); seq > 0 {
			return latest, nil
		}
	}
	return html, err
}

func (srv *previewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	html, err := srv.render(r.Context())
	if err != nil {
		srv.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(injectReloadScript(html)))
}

func (srv *previewServer) handleCopy(w http.ResponseWriter, r *http.Request) {
	res, err := srv.clipboard(r.Context())
	if err != nil {
		srv.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(res.HTML))
}

func (srv *previewServer) handleCopyText(w http.ResponseWriter, r *http.Request) {
	res, err := srv.clipboard(r.Context())
	if err != nil {
		srv.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(res.Text))
}

// clipboard renders the document and embeds its diagrams.
func (srv *previewServer) clipboard(ctx context.Context) (*mdpress.ClipboardResult, error) {
	doc, err := srv.reload()
	if err != nil {
		return nil, err
	}
	rendered, err := srv.ed.RenderPreview(ctx, srv.s.previewInput(doc))
	if err != nil {
		return nil, err
	}
	return srv.ed.ExportForClipboard(ctx, rendered)
}

// handleLocal serves a file under the document directory. It is the
// target of the HTTP loadable bridge.
func (srv *previewServer) handleLocal(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" || !filepath.IsAbs(p) {
		http.Error(w, "absolute path required", http.StatusBadRequest)
		return
	}
	if !isWithin(srv.doc.BaseDir, p) {
		http.Error(w, "path outside the document directory", http.StatusForbidden)
		return
	}
	http.ServeFile(w, r, filepath.Clean(p))
}

// fail maps an error to a status code and logs it.
func (srv *previewServer) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrReadMarkdown):
		status = http.StatusNotFound
	case errors.Is(err, mdpress.ErrHostUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return
	}
	srv.s.logger.Error("request failed", "error", err)
	http.Error(w, err.Error(), status)
}

// isWithin reports whether path is dir or lies below it.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// runServe serves a live preview of one document until interrupted.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(pos) != 1 || pos[0] == "-" {
		return fmt.Errorf("%w: serve takes exactly one Markdown file", ErrNoInput)
	}

	s, err := newSession(env, f.common, f.editor, func(cfg *config.Config) {
		setString(&cfg.Editor.ImagePrefix, f.prefix)
	})
	if err != nil {
		return err
	}

	doc, err := readDocument(pos[0], "", env.Stdin)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", f.addr, err)
	}
	baseURL := "http://" + ln.Addr().String()

	ed, err := s.newEditor(mdpress.WithLoadableBridge(refs.HTTPBridge{BaseURL: baseURL + "/local"}))
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = ed.Close() }()
	s.checkTheme(ed)

	srv := newPreviewServer(s, doc, ed, f.origins)
	httpServer := &http.Server{
		Handler:           srv.router,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if !s.quiet {
		fmt.Fprintf(env.Stdout, "Serving %s at %s/ (copy: %s/copy)\n", doc.Path, baseURL, baseURL)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
