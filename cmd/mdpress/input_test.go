package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestReadDocument
// ---------------------------------------------------------------------------

func TestReadDocument(t *testing.T) {
	t.Parallel()

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeFile(t, dir, "doc.md", "# Doc")

		doc, err := readDocument(path, "", nil)
		if err != nil {
			t.Fatalf("readDocument() error = %v", err)
		}
		if doc.Markdown != "# Doc" || doc.Path != path || doc.BaseDir != dir {
			t.Errorf("doc = %+v", doc)
		}
	})

	t.Run("stdin without base dir", func(t *testing.T) {
		t.Parallel()

		doc, err := readDocument("-", "", strings.NewReader("hello"))
		if err != nil {
			t.Fatalf("readDocument() error = %v", err)
		}
		if doc.Markdown != "hello" || doc.Path != "" || doc.BaseDir != "" {
			t.Errorf("doc = %+v", doc)
		}
	})

	t.Run("stdin with base dir", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		doc, err := readDocument("", dir, strings.NewReader("hello"))
		if err != nil {
			t.Fatalf("readDocument() error = %v", err)
		}
		if doc.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", doc.BaseDir, dir)
		}
	})

	t.Run("missing base dir", func(t *testing.T) {
		t.Parallel()

		_, err := readDocument("", "/nonexistent/dir", strings.NewReader(""))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := readDocument(filepath.Join(t.TempDir(), "none.md"), "", nil)
		if !errors.Is(err, ErrReadMarkdown) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want ErrReadMarkdown wrapping os.ErrNotExist", err)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()

		_, err := readDocument("notes.txt", "", nil)
		if !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("error = %v, want ErrInvalidExtension", err)
		}
	})
}

func TestValidateMarkdownExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"doc.md", false},
		{"doc.markdown", false},
		{"DOC.MD", false},
		{"doc.txt", true},
		{"doc", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			err := validateMarkdownExtension(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateMarkdownExtension(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteOutput
// ---------------------------------------------------------------------------

func TestWriteOutput(t *testing.T) {
	t.Parallel()

	t.Run("stdout", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := writeOutput("-", "<p>x</p>", &buf); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "<p>x</p>" {
			t.Errorf("stdout = %q", buf.String())
		}
	})

	t.Run("file in new directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "page.html")
		if err := writeOutput(path, "<p>x</p>", nil); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "<p>x</p>" {
			t.Errorf("file = %q", data)
		}
	})
}
