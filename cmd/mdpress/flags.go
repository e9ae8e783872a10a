package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// editorFlags override the editor, diagram and storage config sections.
type editorFlags struct {
	theme      string // built-in name or CSS file path
	assetsDir  string
	assetPath  string
	engine     string
	rasterizer string
	timeout    string
	scriptURL  string
	scriptPath string
	maxWidth   int
	storage    string
}

// documentFlags locate the document when it is read from stdin.
type documentFlags struct {
	baseDir string
	stdout  bool // print rewritten Markdown instead of writing it back
}

// previewFlags holds flags for the preview command.
type previewFlags struct {
	common    commonFlags
	editor    editorFlags
	output    string
	baseDir   string
	prefix    string
	footnotes bool
	inlineCSS bool
}

// exportFlags holds flags for the export-diagrams command.
type exportFlags struct {
	common   commonFlags
	editor   editorFlags
	document documentFlags
	workers  int
	naming   string
	altText  string
}

// copyFlags holds flags for the copy command.
type copyFlags struct {
	common    commonFlags
	editor    editorFlags
	output    string
	textOut   string
	mode      string
	baseDir   string
	prefix    string
	footnotes bool
}

// localizeFlags holds flags for the localize command.
type localizeFlags struct {
	common     commonFlags
	editor     editorFlags
	document   documentFlags
	workers    int
	sitePrefix string
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common  commonFlags
	editor  editorFlags
	addr    string
	prefix  string
	origins []string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addEditorFlags adds editor and diagram flags to a FlagSet.
func addEditorFlags(fs *flag.FlagSet, f *editorFlags) {
	fs.StringVar(&f.theme, "theme", "", "theme name or CSS file path")
	fs.StringVar(&f.assetsDir, "assets-dir", "", "assets folder name next to the document")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory with custom themes/{name}.css")
	fs.StringVar(&f.engine, "engine", "", "diagram engine: browser, ink")
	fs.StringVar(&f.rasterizer, "rasterizer", "", "SVG rasterizer: browser, vector")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-diagram timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.scriptURL, "script-url", "", "mermaid.js URL")
	fs.StringVar(&f.scriptPath, "script-path", "", "local mermaid.js file (works offline)")
	fs.IntVar(&f.maxWidth, "max-width", 0, "downscale rasters wider than this (px, 0 = keep)")
	fs.StringVar(&f.storage, "storage", "", "storage backend: fs, s3")
}

// addDocumentFlags adds document location flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.baseDir, "base-dir", "", "document directory when reading stdin")
	fs.BoolVar(&f.stdout, "stdout", false, "print the rewritten Markdown instead of saving it")
}

// newFlagSet creates a FlagSet that prints usage to w on error.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parsePreviewFlags parses preview command flags and returns positional args.
func parsePreviewFlags(args []string, w io.Writer) (*previewFlags, []string, error) {
	f := &previewFlags{}
	fs := newFlagSet("preview", w, printPreviewUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output HTML file (default: stdout)")
	fs.StringVar(&f.baseDir, "base-dir", "", "document directory when reading stdin")
	fs.StringVar(&f.prefix, "prefix", "", "absolute URL prepended to other relative images")
	fs.BoolVar(&f.footnotes, "footnotes", false, "turn links into numbered footnotes")
	fs.BoolVar(&f.inlineCSS, "inline-css", false, "inline theme CSS into style attributes")
	addCommonFlags(fs, &f.common)
	addEditorFlags(fs, &f.editor)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseExportFlags parses export-diagrams command flags.
func parseExportFlags(args []string, w io.Writer) (*exportFlags, []string, error) {
	f := &exportFlags{}
	fs := newFlagSet("export-diagrams", w, printExportUsage)

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel documents (0 = auto)")
	fs.StringVar(&f.naming, "naming", "", "file naming: auto, flat, sequenced")
	fs.StringVar(&f.altText, "alt", "", "alt text of the image references")
	addCommonFlags(fs, &f.common)
	addEditorFlags(fs, &f.editor)
	addDocumentFlags(fs, &f.document)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseCopyFlags parses copy command flags.
func parseCopyFlags(args []string, w io.Writer) (*copyFlags, []string, error) {
	f := &copyFlags{}
	fs := newFlagSet("copy", w, printCopyUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output HTML file (default: stdout)")
	fs.StringVar(&f.textOut, "text", "", "also write the plain-text fallback here")
	fs.StringVar(&f.mode, "mode", "", "diagram embedding: data-uri, png, inline-svg")
	fs.StringVar(&f.baseDir, "base-dir", "", "document directory when reading stdin")
	fs.StringVar(&f.prefix, "prefix", "", "absolute URL prepended to other relative images")
	fs.BoolVar(&f.footnotes, "footnotes", false, "turn links into numbered footnotes")
	addCommonFlags(fs, &f.common)
	addEditorFlags(fs, &f.editor)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseLocalizeFlags parses localize command flags.
func parseLocalizeFlags(args []string, w io.Writer) (*localizeFlags, []string, error) {
	f := &localizeFlags{}
	fs := newFlagSet("localize", w, printLocalizeUsage)

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel documents (0 = auto)")
	fs.StringVar(&f.sitePrefix, "site-prefix", "", "base URL for site-relative images")
	addCommonFlags(fs, &f.common)
	addEditorFlags(fs, &f.editor)
	addDocumentFlags(fs, &f.document)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", w, printServeUsage)

	fs.StringVar(&f.addr, "addr", defaultServeAddr, "listen address")
	fs.StringVar(&f.prefix, "prefix", "", "absolute URL prepended to other relative images")
	fs.StringSliceVar(&f.origins, "cors-origin", nil, "allowed CORS origin (repeatable, default: localhost)")
	addCommonFlags(fs, &f.common)
	addEditorFlags(fs, &f.editor)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string, w io.Writer) (*commonFlags, error) {
	f := &commonFlags{}
	fs := newFlagSet("config", w, printConfigUsage)
	addCommonFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return f, nil
}

// usageError tags flag parsing errors with ErrUsage. ErrHelp is kept as it
// is so callers can exit successfully after -h.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}
