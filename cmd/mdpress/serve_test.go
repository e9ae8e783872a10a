package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
	"github.com/alnah/go-mdpress/internal/refs"
)

const testServerURL = "http://mdpress.test"

// newTestPreviewServer serves dir/doc.md with the given content.
func newTestPreviewServer(t *testing.T, content string) (*previewServer, string) {
	t.Helper()

	dir := t.TempDir()
	path := writeFile(t, dir, "doc.md", content)

	env, _, _ := testEnv(t)
	s := &session{
		env:    env,
		envCfg: &envConfig{},
		cfg:    config.DefaultConfig(),
		logger: newLogger(io.Discard, false, false),
	}
	ed, err := s.newEditor(mdpress.WithLoadableBridge(refs.HTTPBridge{BaseURL: testServerURL + "/local"}))
	if err != nil {
		t.Fatalf("newEditor() error = %v", err)
	}
	t.Cleanup(func() { _ = ed.Close() })

	doc := &document{Path: path, BaseDir: dir}
	return newPreviewServer(s, doc, ed, nil), dir
}

func get(t *testing.T, srv *previewServer, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// ---------------------------------------------------------------------------
// TestPreviewServer
// ---------------------------------------------------------------------------

func TestPreviewServer_Preview(t *testing.T) {
	t.Parallel()

	srv, dir := newTestPreviewServer(t, "# Title\n\n![a](assets/a.png)\n")

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	want := testServerURL + "/local?path=" + url.QueryEscape(filepath.Join(dir, "assets", "a.png"))
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("body does not reference %s:\n%s", want, rec.Body)
	}
}

func TestPreviewServer_PicksUpEdits(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "first version")
	if body := get(t, srv, "/").Body.String(); !strings.Contains(body, "first version") {
		t.Fatalf("body = %s", body)
	}

	if err := os.WriteFile(srv.doc.Path, []byte("second version"), 0o600); err != nil {
		t.Fatal(err)
	}
	if body := get(t, srv, "/").Body.String(); !strings.Contains(body, "second version") {
		t.Errorf("edit not picked up: %s", body)
	}
}

func TestPreviewServer_MissingDocument(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "x")
	if err := os.Remove(srv.doc.Path); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, srv, "/"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPreviewServer_Local(t *testing.T) {
	t.Parallel()

	srv, dir := newTestPreviewServer(t, "x")
	img := writeFile(t, dir, filepath.Join("assets", "a.png"), "png-bytes")

	outside := filepath.Join(filepath.Dir(dir), "secret.txt")

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"file in document dir", "/local?path=" + url.QueryEscape(img), http.StatusOK, "png-bytes"},
		{"missing path", "/local", http.StatusBadRequest, ""},
		{"relative path", "/local?path=assets%2Fa.png", http.StatusBadRequest, ""},
		{"outside document dir", "/local?path=" + url.QueryEscape(outside), http.StatusForbidden, ""},
		{"traversal", "/local?path=" + url.QueryEscape(dir+"/../secret.txt"), http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := get(t, srv, tt.target)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body, tt.wantBody)
			}
		})
	}
}

func TestPreviewServer_Copy(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "# Report\n\nSome *text*.\n")

	rec := get(t, srv, "/copy")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "Report") {
		t.Errorf("/copy body = %s", rec.Body)
	}

	rec = get(t, srv, "/copy.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rec.Body.String(); strings.Contains(body, "<") || !strings.Contains(body, "Some text") {
		t.Errorf("/copy.txt body = %q", body)
	}
}

func TestPreviewServer_Healthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "x")
	rec := get(t, srv, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}
}

func TestPreviewServer_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "x")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestPreviewServer_CORS(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "x")

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:5173", "http://localhost:5173"},
		{"https://evil.test", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreviewServer_InjectsReloadScript(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "# Title")
	body := get(t, srv, "/").Body.String()
	if !strings.Contains(body, reloadScript) {
		t.Error("preview has no reload script")
	}
	if strings.Contains(get(t, srv, "/copy").Body.String(), reloadScript) {
		t.Error("copy export carries the reload script")
	}
}

func TestInjectReloadScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"before body end", "<html><body><p>x</p></BODY></html>", "<html><body><p>x</p>" + reloadScript + "</BODY></html>"},
		{"fragment", "<p>x</p>", "<p>x</p>" + reloadScript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := injectReloadScript(tt.in); got != tt.want {
				t.Errorf("injectReloadScript() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreviewServer_ReloadNotification(t *testing.T) {
	t.Parallel()

	srv, _ := newTestPreviewServer(t, "v1")
	srv.pollInterval = 10 * time.Millisecond

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}

	// Let the handler record the initial modification time.
	time.Sleep(50 * time.Millisecond)
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(srv.doc.Path, later, later); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev reloadEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "reload" {
		t.Errorf("event type = %q, want reload", ev.Type)
	}
}

// ---------------------------------------------------------------------------
// TestIsWithin
// ---------------------------------------------------------------------------

func TestIsWithin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dir  string
		path string
		want bool
	}{
		{"same dir", "/docs", "/docs", true},
		{"child", "/docs", "/docs/assets/a.png", true},
		{"sibling", "/docs", "/other/a.png", false},
		{"parent", "/docs", "/", false},
		{"traversal", "/docs", "/docs/../etc/passwd", false},
		{"prefix lookalike", "/docs", "/docs2/a.png", false},
		{"dotdot file name", "/docs", "/docs/..a.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isWithin(filepath.FromSlash(tt.dir), filepath.FromSlash(tt.path)); got != tt.want {
				t.Errorf("isWithin(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunServe
// ---------------------------------------------------------------------------

func TestRunServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.md", "# Live")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env, stdout, _ := testEnv(t)
	if err := runServe(ctx, []string{"--addr", "127.0.0.1:0", doc}, env); err != nil {
		t.Fatalf("runServe() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Serving "+doc+" at http://127.0.0.1:") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunServe_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	notMarkdown := writeFile(t, dir, "doc.txt", "x")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no input", nil, ErrNoInput},
		{"stdin", []string{"-"}, ErrNoInput},
		{"two inputs", []string{"a.md", "b.md"}, ErrNoInput},
		{"wrong extension", []string{notMarkdown}, ErrInvalidExtension},
		{"missing document", []string{filepath.Join(dir, "x.md")}, ErrReadMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv(t)
			err := runServe(context.Background(), tt.args, env)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("runServe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
