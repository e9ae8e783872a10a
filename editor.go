package mdpress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-mdpress/internal/assets"
	"github.com/alnah/go-mdpress/internal/diagram"
	"github.com/alnah/go-mdpress/internal/export"
	"github.com/alnah/go-mdpress/internal/localize"
	"github.com/alnah/go-mdpress/internal/pipeline"
	"github.com/alnah/go-mdpress/internal/refs"
	"github.com/alnah/go-mdpress/internal/storage"
)

// Editor runs the document asset and diagram pipeline: previews, diagram
// export to raster files, self-contained clipboard export and image
// localization. An Editor is safe for concurrent use; diagram rendering is
// serialized internally.
type Editor struct {
	cfg        editorConfig
	converter  pipeline.DocumentConverter
	themes     *assets.ThemeResolver
	engine     DiagramEngine
	rasterizer Rasterizer
	store      storage.Store
	bridge     refs.LoadableBridge
	logger     *slog.Logger
	now        func() time.Time
	httpClient *http.Client
	browser    *browser // nil when engine and rasterizer were both injected

	exportMu sync.Mutex // one diagram export at a time

	mu     sync.Mutex
	closed bool
}

// NewEditor creates an Editor. The browser-backed engine and rasterizer are
// used unless replaced with WithDiagramEngine / WithRasterizer; Chrome is
// only launched when a diagram is first rendered.
func NewEditor(opts ...Option) (*Editor, error) {
	e := &Editor{
		cfg:    defaultEditorConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.validate(); err != nil {
		return nil, err
	}

	themes, err := assets.NewThemeResolver(e.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	e.themes = themes

	if e.converter == nil {
		e.converter = pipeline.NewConverter(pipeline.ConverterConfig{
			FallbackCSS:   themes.FallbackCSS(),
			ScriptURL:     e.cfg.scriptURL,
			SecurityLevel: e.cfg.securityLevel,
			LinkFootnotes: e.cfg.linkFootnotes,
			InlineCSS:     e.cfg.inlineCSS,
		})
	}
	if e.store == nil {
		e.store = storage.NewFSStore()
	}
	if e.bridge == nil {
		e.bridge = refs.FileURLBridge{}
	}
	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: e.cfg.timeout}
	}

	if e.engine == nil || e.rasterizer == nil {
		e.browser = &browser{}
	}
	if e.engine == nil {
		e.engine = newBrowserEngine(e.browser, engineConfig{
			scriptURL:     e.cfg.scriptURL,
			scriptPath:    e.cfg.scriptPath,
			securityLevel: e.cfg.securityLevel,
			timeout:       e.cfg.timeout,
		})
	}
	if e.rasterizer == nil {
		e.rasterizer = newBrowserRasterizer(e.browser, e.cfg.timeout, e.cfg.maxWidth)
	}

	return e, nil
}

func (e *Editor) validate() error {
	if !e.cfg.naming.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidNaming, e.cfg.naming)
	}
	if !e.cfg.clipboardMode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidClipboardMode, e.cfg.clipboardMode)
	}
	if err := checkAssetsDir(e.cfg.assetsDir); err != nil {
		return err
	}
	return nil
}

// checkAssetsDir rejects assets directory values that are paths rather than
// a single folder name.
func checkAssetsDir(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: assets directory must be a folder name, got %q", ErrInvalidAssetPath, name)
	}
	return nil
}

// assetsDir returns the per-call assets directory or the editor default.
func (e *Editor) assetsDir(name string) (string, error) {
	if name == "" {
		return e.cfg.assetsDir, nil
	}
	name = refs.NormalizeAssetsDir(name)
	if err := checkAssetsDir(name); err != nil {
		return "", err
	}
	return name, nil
}

func (e *Editor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Themes lists the theme names RenderPreview accepts.
func (e *Editor) Themes() []string {
	return e.themes.Themes()
}

// ---------------------------------------------------------------------------
// Preview
// ---------------------------------------------------------------------------

// PreviewInput is the per-call configuration of RenderPreview. Nothing in it
// is retained by the editor.
type PreviewInput struct {
	Markdown  string
	Theme     string // theme name; empty uses the editor default
	ThemeCSS  string // raw theme CSS; takes precedence over Theme
	BaseDir   string // directory of the document; empty when never saved
	AssetsDir string // empty uses the editor default
	Prefix    string // content-delivery prefix; empty uses the editor default
}

// RenderPreview converts Markdown to themed HTML, makes assets-relative
// images loadable from BaseDir and prefixes other relative images.
func (e *Editor) RenderPreview(ctx context.Context, in PreviewInput) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if e.isClosed() {
		return "", fmt.Errorf("%w: %w", ErrHostUnavailable, ErrEditorClosed)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	assetsDir, err := e.assetsDir(in.AssetsDir)
	if err != nil {
		return "", err
	}

	themeCSS := in.ThemeCSS
	if themeCSS == "" {
		themeCSS, err = e.themeCSS(in.Theme)
		if err != nil {
			return "", err
		}
	}

	doc, err := e.converter.Convert(ctx, in.Markdown, themeCSS)
	if err != nil {
		return "", wrapSentinel(pipeline.ErrHTMLConversion, err)
	}

	prefix := in.Prefix
	if prefix == "" {
		prefix = e.cfg.imagePrefix
	}

	doc = refs.ToLoadable(doc, in.BaseDir, assetsDir, e.bridge)
	doc = refs.ApplyPrefix(doc, prefix, assetsDir)
	return doc, nil
}

// themeCSS resolves a theme name, falling back to the default theme when the
// name is unknown so a stale setting never blanks the preview.
func (e *Editor) themeCSS(name string) (string, error) {
	if name == "" {
		name = e.cfg.theme
	}
	css, used, err := e.themes.Resolve(name)
	if err != nil {
		return "", err
	}
	if name != "" && used != name {
		e.logger.Warn("unknown theme, using default", "theme", name, "used", used)
	}
	return css, nil
}

// ---------------------------------------------------------------------------
// Diagram export
// ---------------------------------------------------------------------------

// ExportInput is the per-call configuration of ExportDiagramsToRaster.
type ExportInput struct {
	Markdown     string
	BaseDir      string         // directory of the document; required
	AssetsDir    string         // empty uses the editor default
	DocumentPath string         // when set, the rewritten Markdown is written here
	Naming       diagram.Naming // empty uses the editor default
}

// ExportResult reports what an export did. Failures lists every block left
// untouched; files written for other blocks are kept.
type ExportResult struct {
	Markdown string
	Replaced int
	Failures []BlockFailure
	Files    []string // absolute paths of the rasters written
}

// ExportDiagramsToRaster renders every non-empty mermaid block to PNG,
// stores it under {BaseDir}/{AssetsDir} and replaces the block with an image
// reference. Blocks are processed one at a time in document order. A block
// that fails to render, rasterize or persist is left as it was and reported
// in Failures; the others are still processed.
//
// ErrHostUnavailable and ErrPrecondition errors are returned before any file
// is written.
func (e *Editor) ExportDiagramsToRaster(ctx context.Context, in ExportInput) (res *ExportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if e.isClosed() {
		return nil, fmt.Errorf("%w: %w", ErrHostUnavailable, ErrEditorClosed)
	}
	if in.BaseDir == "" {
		return nil, ErrNoBaseDir
	}
	assetsDir, err := e.assetsDir(in.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	naming := in.Naming
	if naming == "" {
		naming = e.cfg.naming
	}
	if !naming.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrPrecondition, ErrInvalidNaming, naming)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks := diagram.Locate(in.Markdown)
	nonEmpty := diagram.CountNonEmpty(blocks)
	if nonEmpty == 0 {
		return &ExportResult{Markdown: in.Markdown}, nil
	}

	e.exportMu.Lock()
	defer e.exportMu.Unlock()

	if err := e.engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostUnavailable, err)
	}

	dir := filepath.Join(in.BaseDir, assetsDir)
	if err := e.store.EnsureDir(ctx, dir); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	ts := e.now().UnixMilli()
	naming = naming.Resolve(nonEmpty)
	out := &ExportResult{}

	spliced := diagram.Splice(in.Markdown, blocks, func(b diagram.Block, ordinal int) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		svg, err := e.engine.Render(ctx, diagram.RenderID(ts, ordinal), b.Code)
		if err != nil {
			return "", wrapSentinel(ErrDiagramRender, err)
		}

		png, err := e.rasterizer.Rasterize(ctx, svg)
		if err != nil {
			return "", wrapSentinel(ErrRasterConversion, err)
		}

		name := diagram.FileName(ts, ordinal, naming)
		path := filepath.Join(dir, name)
		if err := e.store.WriteBytes(ctx, path, png); err != nil {
			return "", fmt.Errorf("%w: %w", ErrPersistence, err)
		}

		out.Files = append(out.Files, path)
		e.logger.Debug("diagram exported", "block", b.Index+1, "file", name, "bytes", len(png))
		return diagram.ImageMarkup(e.cfg.altText, assetsDir, name), nil
	})

	out.Markdown = spliced.Markdown
	out.Replaced = spliced.Replaced
	for _, f := range spliced.Failures {
		bf := BlockFailure{Index: f.Block.Index, Start: f.Block.Start, End: f.Block.End, Err: f.Err}
		out.Failures = append(out.Failures, bf)
		e.logger.Warn("diagram left unchanged", "block", bf.Index+1, "error", f.Err)
	}

	if in.DocumentPath != "" && out.Replaced > 0 {
		if err := e.store.WriteText(ctx, in.DocumentPath, out.Markdown); err != nil {
			return out, fmt.Errorf("%w: writing document: %w", ErrPersistence, err)
		}
	}
	return out, nil
}

// wrapSentinel tags err with sentinel unless it already carries it or is a
// context error.
func wrapSentinel(sentinel, err error) error {
	if errors.Is(err, sentinel) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// ---------------------------------------------------------------------------
// Clipboard export
// ---------------------------------------------------------------------------

// ClipboardResult is a self-contained document and its plain-text fallback,
// meant to be written to the clipboard together.
type ClipboardResult struct {
	HTML    string
	Text    string
	Inlined int
	Failed  int
}

// ExportForClipboard replaces every diagram placeholder in a rendered
// preview with an embedded image and returns a complete document. A
// placeholder that fails to render is logged and left in place.
func (e *Editor) ExportForClipboard(ctx context.Context, rendered string) (res *ClipboardResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if e.isClosed() {
		return nil, fmt.Errorf("%w: %w", ErrHostUnavailable, ErrEditorClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if export.HasPlaceholders(rendered) {
		e.exportMu.Lock()
		defer e.exportMu.Unlock()

		if err := e.engine.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrHostUnavailable, err)
		}
	}

	exp := export.New(e.engine,
		export.WithMode(e.cfg.clipboardMode),
		export.WithRasterizer(e.rasterizer),
		export.WithLogger(e.logger),
	)
	r, err := exp.Export(ctx, rendered)
	if err != nil {
		return nil, err
	}

	return &ClipboardResult{
		HTML:    r.HTML,
		Text:    export.PlainText(r.HTML),
		Inlined: r.Inlined,
		Failed:  r.Failed,
	}, nil
}

// ---------------------------------------------------------------------------
// Image localization
// ---------------------------------------------------------------------------

// LocalizeInput is the per-call configuration of LocalizeImages.
type LocalizeInput struct {
	Markdown     string
	BaseDir      string // directory of the document; required
	AssetsDir    string // empty uses the editor default
	SitePrefix   string // empty uses the editor default
	DocumentPath string // when set, the rewritten Markdown is written here
}

// LocalizeResult reports what LocalizeImages did.
type LocalizeResult struct {
	Markdown   string
	Downloaded int
	Skipped    int
	Failures   []localize.Failure
}

// LocalizeImages downloads remote and site-relative images into the assets
// directory and points the Markdown at the local copies.
func (e *Editor) LocalizeImages(ctx context.Context, in LocalizeInput) (*LocalizeResult, error) {
	if e.isClosed() {
		return nil, fmt.Errorf("%w: %w", ErrHostUnavailable, ErrEditorClosed)
	}
	if in.BaseDir == "" {
		return nil, ErrNoBaseDir
	}
	assetsDir, err := e.assetsDir(in.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	sitePrefix := in.SitePrefix
	if sitePrefix == "" {
		sitePrefix = e.cfg.sitePrefix
	}

	r, err := localize.Localize(ctx, in.Markdown, localize.Options{
		BaseDir:    in.BaseDir,
		AssetsDir:  assetsDir,
		SitePrefix: sitePrefix,
		Store:      e.store,
		Fetcher:    localize.HTTPFetcher{Client: e.httpClient},
		Logger:     e.logger,
	})
	if err != nil {
		if errors.Is(err, localize.ErrNoBaseDir) {
			return nil, ErrNoBaseDir
		}
		return nil, wrapSentinel(ErrPersistence, err)
	}

	out := &LocalizeResult{
		Markdown:   r.Markdown,
		Downloaded: r.Downloaded,
		Skipped:    r.Skipped,
		Failures:   r.Failures,
	}
	if in.DocumentPath != "" && out.Downloaded > 0 {
		if err := e.store.WriteText(ctx, in.DocumentPath, out.Markdown); err != nil {
			return out, fmt.Errorf("%w: writing document: %w", ErrPersistence, err)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Close releases the diagram engine, the rasterizer and the browser. Every
// call after the first returns nil; operations after Close fail with
// ErrHostUnavailable.
func (e *Editor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	var errs []error
	if err := e.engine.Close(); err != nil {
		errs = append(errs, err)
	}
	if c, ok := e.rasterizer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.browser != nil {
		if err := e.browser.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
