package mdpress

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alnah/go-mdpress/internal/diagram"
	"github.com/alnah/go-mdpress/internal/export"
	"github.com/alnah/go-mdpress/internal/pipeline"
	"github.com/alnah/go-mdpress/internal/refs"
	"github.com/alnah/go-mdpress/internal/storage"
)

// Defaults used when no option overrides them.
const (
	defaultTimeout       = 30 * time.Second
	DefaultAssetsDir     = "assets"
	DefaultAltText       = "Mermaid 图"
	DefaultScriptURL     = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
	DefaultInkURL        = "https://mermaid.ink"
	DefaultSecurityLevel = "strict"
)

// Option configures an Editor.
type Option func(*Editor)

// editorConfig holds the settings options write to.
type editorConfig struct {
	timeout       time.Duration
	assetsDir     string
	imagePrefix   string
	sitePrefix    string
	theme         string
	assetPath     string
	scriptURL     string
	scriptPath    string
	securityLevel string
	maxWidth      int
	altText       string
	naming        diagram.Naming
	clipboardMode export.Mode
	linkFootnotes bool
	inlineCSS     bool
}

func defaultEditorConfig() editorConfig {
	return editorConfig{
		timeout:       defaultTimeout,
		assetsDir:     DefaultAssetsDir,
		scriptURL:     DefaultScriptURL,
		securityLevel: DefaultSecurityLevel,
		altText:       DefaultAltText,
		naming:        diagram.NamingAuto,
		clipboardMode: export.ModeDataURI,
	}
}

// WithTimeout sets the per-diagram render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdpress: WithTimeout duration must be positive")
	}
	return func(e *Editor) {
		e.cfg.timeout = d
	}
}

// WithAssetsDir sets the default assets folder name.
func WithAssetsDir(name string) Option {
	return func(e *Editor) {
		e.cfg.assetsDir = refs.NormalizeAssetsDir(name)
	}
}

// WithImagePrefix sets the default content-delivery prefix for previews.
// The prefix must be an absolute URL for repeated previews to be stable.
func WithImagePrefix(prefix string) Option {
	return func(e *Editor) {
		e.cfg.imagePrefix = prefix
	}
}

// WithSitePrefix sets the base URL LocalizeImages resolves site-relative
// images against.
func WithSitePrefix(prefix string) Option {
	return func(e *Editor) {
		e.cfg.sitePrefix = prefix
	}
}

// WithTheme sets the default theme name.
func WithTheme(name string) Option {
	return func(e *Editor) {
		e.cfg.theme = name
	}
}

// WithAssetPath sets a directory holding custom themes/{name}.css files.
func WithAssetPath(path string) Option {
	return func(e *Editor) {
		e.cfg.assetPath = path
	}
}

// WithMermaidScriptURL sets the mermaid.js URL used by previews and the
// browser engine.
func WithMermaidScriptURL(url string) Option {
	return func(e *Editor) {
		e.cfg.scriptURL = url
	}
}

// WithMermaidScriptPath makes the browser engine load mermaid.js from a
// local file instead of scriptURL.
func WithMermaidScriptPath(path string) Option {
	return func(e *Editor) {
		e.cfg.scriptPath = path
	}
}

// WithSecurityLevel sets mermaid's securityLevel ("strict" by default).
func WithSecurityLevel(level string) Option {
	return func(e *Editor) {
		e.cfg.securityLevel = level
	}
}

// WithMaxRasterWidth downscales exported rasters wider than px. Zero keeps
// the intrinsic size.
func WithMaxRasterWidth(px int) Option {
	return func(e *Editor) {
		e.cfg.maxWidth = px
	}
}

// WithAltText sets the alt text of generated diagram image references.
func WithAltText(alt string) Option {
	return func(e *Editor) {
		e.cfg.altText = alt
	}
}

// WithNaming sets the default raster naming strategy.
func WithNaming(n diagram.Naming) Option {
	return func(e *Editor) {
		e.cfg.naming = n
	}
}

// WithClipboardMode selects how ExportForClipboard embeds diagrams.
func WithClipboardMode(m export.Mode) Option {
	return func(e *Editor) {
		e.cfg.clipboardMode = m
	}
}

// WithLinkFootnotes turns links into numbered footnotes in previews.
func WithLinkFootnotes(on bool) Option {
	return func(e *Editor) {
		e.cfg.linkFootnotes = on
	}
}

// WithInlineCSS moves theme CSS into style attributes in previews.
func WithInlineCSS(on bool) Option {
	return func(e *Editor) {
		e.cfg.inlineCSS = on
	}
}

// WithDiagramEngine replaces the browser-backed diagram engine.
func WithDiagramEngine(engine DiagramEngine) Option {
	return func(e *Editor) {
		e.engine = engine
	}
}

// WithRasterizer replaces the browser-backed SVG rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(e *Editor) {
		e.rasterizer = r
	}
}

// WithStorage replaces the filesystem store.
func WithStorage(s storage.Store) Option {
	return func(e *Editor) {
		e.store = s
	}
}

// WithLoadableBridge replaces the file:// bridge used by previews.
func WithLoadableBridge(b refs.LoadableBridge) Option {
	return func(e *Editor) {
		e.bridge = b
	}
}

// WithConverter replaces the Markdown to HTML converter.
func WithConverter(c pipeline.DocumentConverter) Option {
	return func(e *Editor) {
		e.converter = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithClock sets the time source for raster file names.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		e.now = now
	}
}

// WithHTTPClient sets the client used to download images.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Editor) {
		e.httpClient = c
	}
}
