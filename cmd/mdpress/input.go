package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdpress/internal/fileutil"
	"github.com/alnah/go-mdpress/internal/storage"
)

// ErrInvalidExtension is returned for inputs that are not Markdown files.
var ErrInvalidExtension = errors.New("file must have .md or .markdown extension")

// document is a Markdown source and the directory it lives in.
type document struct {
	Path     string // absolute; empty when read from stdin
	BaseDir  string // empty for stdin without --base-dir
	Markdown string
}

// readDocument reads path, or stdin when path is empty or "-". baseDir
// overrides the directory derived from path.
func readDocument(path, baseDir string, stdin io.Reader) (*document, error) {
	doc := &document{}

	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %v", ErrReadMarkdown, err)
		}
		doc.Markdown = string(data)
	} else {
		if err := validateMarkdownExtension(path); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadMarkdown, err)
		}
		data, err := os.ReadFile(abs) // #nosec G304 -- user-provided input path
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		}
		doc.Path = abs
		doc.Markdown = string(data)
		if doc.BaseDir, err = fileutil.DocumentDir(abs); err != nil {
			return nil, err
		}
	}

	if baseDir != "" {
		abs, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, fmt.Errorf("resolving base dir: %w", err)
		}
		if !fileutil.DirExists(abs) {
			return nil, fmt.Errorf("%w: base dir %s", os.ErrNotExist, abs)
		}
		doc.BaseDir = abs
	}

	return doc, nil
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// writeOutput writes content to path, or to stdout when path is empty or "-".
func writeOutput(path, content string, stdout io.Writer) error {
	if path == "" || path == "-" {
		if _, err := io.WriteString(stdout, content); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, storage.DirPerm); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), storage.FilePerm); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
