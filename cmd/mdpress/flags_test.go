package main

import (
	"errors"
	"io"
	"slices"
	"testing"

	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestParsePreviewFlags
// ---------------------------------------------------------------------------

func TestParsePreviewFlags(t *testing.T) {
	t.Parallel()

	f, pos, err := parsePreviewFlags([]string{
		"doc.md", "-o", "out.html", "--prefix", "https://cdn.test/",
		"--footnotes", "--inline-css", "--theme", "lapis", "-t", "5s", "-c", "work", "-q",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	if !slices.Equal(pos, []string{"doc.md"}) {
		t.Errorf("positional = %v", pos)
	}
	if f.output != "out.html" || f.prefix != "https://cdn.test/" || !f.footnotes || !f.inlineCSS {
		t.Errorf("preview flags = %+v", f)
	}
	if f.editor.theme != "lapis" || f.editor.timeout != "5s" {
		t.Errorf("editor flags = %+v", f.editor)
	}
	if f.common.config != "work" || !f.common.quiet {
		t.Errorf("common flags = %+v", f.common)
	}
}

func TestParseExportFlags(t *testing.T) {
	t.Parallel()

	f, pos, err := parseExportFlags([]string{
		"a.md", "b.md", "-w", "3", "--naming", "flat", "--alt", "chart",
		"--engine", "ink", "--rasterizer", "vector", "--max-width", "800", "--storage", "s3",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseExportFlags() error = %v", err)
	}

	if !slices.Equal(pos, []string{"a.md", "b.md"}) {
		t.Errorf("positional = %v", pos)
	}
	if f.workers != 3 || f.naming != "flat" || f.altText != "chart" {
		t.Errorf("export flags = %+v", f)
	}
	e := f.editor
	if e.engine != "ink" || e.rasterizer != "vector" || e.maxWidth != 800 || e.storage != "s3" {
		t.Errorf("editor flags = %+v", e)
	}
}

func TestParseCopyFlags(t *testing.T) {
	t.Parallel()

	f, _, err := parseCopyFlags([]string{"--mode", "png", "--text", "out.txt", "--base-dir", "/docs"}, io.Discard)
	if err != nil {
		t.Fatalf("parseCopyFlags() error = %v", err)
	}
	if f.mode != "png" || f.textOut != "out.txt" || f.baseDir != "/docs" {
		t.Errorf("copy flags = %+v", f)
	}
}

func TestParseLocalizeFlags(t *testing.T) {
	t.Parallel()

	f, pos, err := parseLocalizeFlags([]string{"--site-prefix", "https://site.test", "--stdout", "--base-dir", "/docs"}, io.Discard)
	if err != nil {
		t.Fatalf("parseLocalizeFlags() error = %v", err)
	}
	if len(pos) != 0 {
		t.Errorf("positional = %v", pos)
	}
	if f.sitePrefix != "https://site.test" || !f.document.stdout || f.document.baseDir != "/docs" {
		t.Errorf("localize flags = %+v", f)
	}
}

func TestParseServeFlags(t *testing.T) {
	t.Parallel()

	f, _, err := parseServeFlags(nil, io.Discard)
	if err != nil {
		t.Fatalf("parseServeFlags() error = %v", err)
	}
	if f.addr != defaultServeAddr || len(f.origins) != 0 {
		t.Errorf("defaults = %+v", f)
	}

	f, _, err = parseServeFlags([]string{"--cors-origin", "https://a.test", "--cors-origin", "https://b.test"}, io.Discard)
	if err != nil {
		t.Fatalf("parseServeFlags() error = %v", err)
	}
	if !slices.Equal(f.origins, []string{"https://a.test", "https://b.test"}) {
		t.Errorf("origins = %v", f.origins)
	}
}

// ---------------------------------------------------------------------------
// TestParseFlags_Errors
// ---------------------------------------------------------------------------

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	parsers := map[string]func([]string) error{
		"preview": func(a []string) error { _, _, err := parsePreviewFlags(a, io.Discard); return err },
		"export":  func(a []string) error { _, _, err := parseExportFlags(a, io.Discard); return err },
		"copy":    func(a []string) error { _, _, err := parseCopyFlags(a, io.Discard); return err },
		"local":   func(a []string) error { _, _, err := parseLocalizeFlags(a, io.Discard); return err },
		"serve":   func(a []string) error { _, _, err := parseServeFlags(a, io.Discard); return err },
		"config":  func(a []string) error { _, err := parseConfigFlags(a, io.Discard); return err },
	}

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := parse([]string{"--no-such-flag"}); !errors.Is(err, ErrUsage) {
				t.Errorf("unknown flag error = %v, want ErrUsage", err)
			}
			err := parse([]string{"--help"})
			if !errors.Is(err, flag.ErrHelp) || errors.Is(err, ErrUsage) {
				t.Errorf("--help error = %v, want bare ErrHelp", err)
			}
		})
	}
}

func TestParseExportFlags_BadWorkers(t *testing.T) {
	t.Parallel()

	if _, _, err := parseExportFlags([]string{"-w", "many"}, io.Discard); !errors.Is(err, ErrUsage) {
		t.Errorf("error = %v, want ErrUsage", err)
	}
}
