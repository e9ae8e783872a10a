package main

// Notes:
// - runMain: exit codes and output of each command. Diagram commands run
//   against an httptest mermaid.ink stand-in with the vector rasterizer, so
//   no browser is needed.

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// inkServer answers every request with a small SVG.
func inkServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = io.WriteString(w, `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20"><rect width="40" height="20"/></svg>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// inkConfig writes a config selecting the ink engine at srv and the vector
// rasterizer.
func inkConfig(t *testing.T, dir, url string) string {
	t.Helper()

	return writeFile(t, dir, "mdpress.yaml",
		"diagram:\n  engine: ink\n  inkURL: "+url+"\n  rasterizer: vector\n")
}

// ---------------------------------------------------------------------------
// TestRunMain_Basics
// ---------------------------------------------------------------------------

func TestRunMain_Basics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"mdpress"}, ExitUsage, "", "Usage: mdpress"},
		{"unknown command", []string{"mdpress", "convert"}, ExitUsage, "", "Unknown command: convert"},
		{"version", []string{"mdpress", "version"}, ExitSuccess, "mdpress " + Version, ""},
		{"help", []string{"mdpress", "help"}, ExitSuccess, "Commands:", ""},
		{"help command", []string{"mdpress", "help", "export-diagrams"}, ExitSuccess, "--naming", ""},
		{"help unknown", []string{"mdpress", "help", "nope"}, ExitUsage, "", "Unknown command: nope"},
		{"flag help", []string{"mdpress", "preview", "-h"}, ExitSuccess, "", "Usage: mdpress preview"},
		{"unknown flag", []string{"mdpress", "preview", "--bogus"}, ExitUsage, "", "unknown flag"},
		{"missing config", []string{"mdpress", "preview", "-c", "/nonexistent/x.yaml"}, ExitUsage, "", "config file not found"},
		{"missing input", []string{"mdpress", "preview", "/nonexistent/doc.md"}, ExitIO, "", "failed to read markdown"},
		{"empty stdin", []string{"mdpress", "preview"}, ExitUsage, "", "cannot be empty"},
		{"serve without file", []string{"mdpress", "serve"}, ExitUsage, "", "no input"},
		{"bad naming", []string{"mdpress", "export-diagrams", "--naming", "random", "-"}, ExitUsage, "", "diagram.naming"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(t)
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestIsCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"preview", true},
		{"export-diagrams", true},
		{"doctor", true},
		{"version", true},
		{"doc.md", false},
		{"Preview", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := isCommand(tt.input); got != tt.want {
				t.Errorf("isCommand(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Preview
// ---------------------------------------------------------------------------

func TestRunMain_Preview(t *testing.T) {
	t.Parallel()

	t.Run("file to stdout", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		doc := writeFile(t, dir, "doc.md", "# Title\n\n![a](assets/a.png) ![b](img/b.png)\n")

		env, stdout, stderr := testEnv(t)
		code := runMain([]string{"mdpress", "preview", "--prefix", "https://cdn.test", doc}, env)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}

		html := stdout.String()
		if !strings.Contains(html, "publish-content") {
			t.Error("preview is not wrapped")
		}
		if !strings.Contains(html, "file://") || !strings.Contains(html, "/assets/a.png") {
			t.Errorf("assets image not made loadable: %s", html)
		}
		if !strings.Contains(html, `src="https://cdn.test/img/b.png"`) {
			t.Errorf("other image not prefixed: %s", html)
		}
	})

	t.Run("output file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		doc := writeFile(t, dir, "doc.md", "hello")
		out := filepath.Join(dir, "doc.html")

		env, stdout, stderr := testEnv(t)
		if code := runMain([]string{"mdpress", "preview", "-o", out, doc}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		if !strings.Contains(stdout.String(), "Created "+out) {
			t.Errorf("stdout = %q", stdout)
		}
		if _, err := os.Stat(out); err != nil {
			t.Errorf("output not written: %v", err)
		}
	})

	t.Run("unknown theme falls back with warning", func(t *testing.T) {
		t.Parallel()

		env, _, stderr := testEnv(t)
		env.Stdin = strings.NewReader("hello")
		if code := runMain([]string{"mdpress", "preview", "--theme", "neon"}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		if !strings.Contains(stderr.String(), "theme not found") || !strings.Contains(stderr.String(), "lapis") {
			t.Errorf("stderr = %q", stderr)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunMain_ExportDiagrams
// ---------------------------------------------------------------------------

func TestRunMain_ExportDiagrams(t *testing.T) {
	t.Parallel()

	t.Run("in place", func(t *testing.T) {
		t.Parallel()

		srv := inkServer(t)
		dir := t.TempDir()
		cfg := inkConfig(t, dir, srv.URL)
		doc := writeFile(t, dir, "doc.md", "intro\n\n```mermaid\ngraph TD\n  A-->B\n```\n")

		env, stdout, stderr := testEnv(t)
		env.HTTPClient = srv.Client()
		code := runMain([]string{"mdpress", "export-diagrams", "-c", cfg, doc}, env)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}

		data, err := os.ReadFile(doc)
		if err != nil {
			t.Fatal(err)
		}
		if want := "intro\n\n![Mermaid 图](assets/1700000000000.png)\n"; string(data) != want {
			t.Errorf("document = %q, want %q", data, want)
		}
		if _, err := os.Stat(filepath.Join(dir, "assets", "1700000000000.png")); err != nil {
			t.Errorf("raster not written: %v", err)
		}
		if !strings.Contains(stdout.String(), "1 diagram(s) exported") {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("stdin to stdout", func(t *testing.T) {
		t.Parallel()

		srv := inkServer(t)
		dir := t.TempDir()
		cfg := inkConfig(t, dir, srv.URL)

		env, stdout, stderr := testEnv(t)
		env.HTTPClient = srv.Client()
		env.Stdin = strings.NewReader("```mermaid\nA-->B\n```\n```mermaid\nB-->C\n```\n")
		code := runMain([]string{"mdpress", "export-diagrams", "-c", cfg, "--base-dir", dir}, env)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}

		want := "![Mermaid 图](assets/1700000000000-1.png)\n![Mermaid 图](assets/1700000000000-2.png)\n"
		if stdout.String() != want {
			t.Errorf("stdout = %q, want %q", stdout, want)
		}
	})

	t.Run("stdin without base dir", func(t *testing.T) {
		t.Parallel()

		env, _, stderr := testEnv(t)
		env.Stdin = strings.NewReader("```mermaid\nA-->B\n```\n")
		code := runMain([]string{"mdpress", "export-diagrams", "--engine", "ink", "--rasterizer", "vector"}, env)
		if code != ExitIO {
			t.Errorf("exit code = %d, want %d", code, ExitIO)
		}
		if !strings.Contains(stderr.String(), "hint:") {
			t.Errorf("stderr has no hint: %s", stderr)
		}
	})

	t.Run("failing block", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "syntax error", http.StatusBadRequest)
		}))
		defer srv.Close()

		dir := t.TempDir()
		cfg := inkConfig(t, dir, srv.URL)
		src := "```mermaid\nnot a diagram\n```\n"
		doc := writeFile(t, dir, "doc.md", src)

		env, _, stderr := testEnv(t)
		env.HTTPClient = srv.Client()
		if code := runMain([]string{"mdpress", "export-diagrams", "-c", cfg, doc}, env); code != ExitGeneral {
			t.Errorf("exit code = %d, want %d", code, ExitGeneral)
		}
		if !strings.Contains(stderr.String(), "diagram block 1") {
			t.Errorf("stderr = %q", stderr)
		}
		if data, _ := os.ReadFile(doc); string(data) != src {
			t.Errorf("document changed: %q", data)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunMain_Copy
// ---------------------------------------------------------------------------

func TestRunMain_Copy(t *testing.T) {
	t.Parallel()

	srv := inkServer(t)
	dir := t.TempDir()
	cfg := inkConfig(t, dir, srv.URL)
	doc := writeFile(t, dir, "doc.md", "# Report\n\n```mermaid\nA-->B\n```\n")
	out := filepath.Join(dir, "copy.html")
	text := filepath.Join(dir, "copy.txt")

	env, stdout, stderr := testEnv(t)
	env.HTTPClient = srv.Client()
	code := runMain([]string{"mdpress", "copy", "-c", cfg, "-o", out, "--text", text, doc}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "data:image/svg+xml;base64,") {
		t.Errorf("diagram not embedded: %s", html)
	}
	plain, err := os.ReadFile(text)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(plain), "Report") {
		t.Errorf("plain text = %q", plain)
	}
	if !strings.Contains(stdout.String(), "1 diagram(s) embedded") {
		t.Errorf("stdout = %q", stdout)
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Localize
// ---------------------------------------------------------------------------

func TestRunMain_Localize(t *testing.T) {
	t.Parallel()

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pics/cat.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(img.Bytes())
	}))
	defer srv.Close()

	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.md", "![cat]("+srv.URL+"/pics/cat.png)\n")

	env, stdout, stderr := testEnv(t)
	env.HTTPClient = srv.Client()
	if code := runMain([]string{"mdpress", "localize", doc}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	data, err := os.ReadFile(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "![cat](assets/cat.png)\n" {
		t.Errorf("document = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "assets", "cat.png")); err != nil {
		t.Errorf("image not downloaded: %v", err)
	}
	if !strings.Contains(stdout.String(), "1 image(s) downloaded") {
		t.Errorf("stdout = %q", stdout)
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_ConfigAndThemes
// ---------------------------------------------------------------------------

func TestRunMain_ConfigAndThemes(t *testing.T) {
	t.Parallel()

	t.Run("config", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := testEnv(t)
		if code := runMain([]string{"mdpress", "config"}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		for _, want := range []string{"editor:", "assetsDir: assets", "diagram:", "naming: auto"} {
			if !strings.Contains(stdout.String(), want) {
				t.Errorf("config output missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("themes", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := testEnv(t)
		if code := runMain([]string{"mdpress", "themes"}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		out := stdout.String()
		if !strings.Contains(out, "* default") || !strings.Contains(out, "Lapis (Blue)") {
			t.Errorf("themes output:\n%s", out)
		}
	})
}
