package mdpress

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mdpress/internal/fileutil"
	"github.com/alnah/go-mdpress/internal/process"
	"github.com/alnah/go-mdpress/internal/refs"
)

// DiagramEngine renders Mermaid source to SVG markup.
//
// Initialize must succeed before Render is called. It is idempotent once it
// has succeeded and may be retried after a failure.
type DiagramEngine interface {
	Initialize(ctx context.Context) error
	Render(ctx context.Context, id, code string) (string, error)
	Close() error
}

// Rasterizer converts SVG markup to PNG bytes. Implementations that also
// implement io.Closer are closed with the Editor.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg string) ([]byte, error)
}

// Compile-time interface checks
var (
	_ DiagramEngine = (*browserEngine)(nil)
	_ Rasterizer    = (*browserRasterizer)(nil)
)

// browser is a lazily launched headless Chrome shared by the browser engine
// and rasterizer. Rod downloads Chromium on first run if none is found.
type browser struct {
	mu       sync.Mutex
	rod      *rod.Browser
	launcher *launcher.Launcher
}

// connect launches and connects the browser on first use.
func (b *browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rod != nil {
		return b.rod, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	br := rod.New().ControlURL(u)
	if err := br.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.rod = br
	b.launcher = l
	return br, nil
}

// close shuts the browser down and kills its process group so no Chrome
// helpers outlive the editor. Safe to call more than once.
func (b *browser) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rod == nil {
		return nil
	}

	err := b.rod.Close()
	if pid := b.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	b.launcher.Kill()
	b.launcher.Cleanup()

	b.rod = nil
	b.launcher = nil
	return err
}

// engineConfig holds what the browser engine needs from the editor.
type engineConfig struct {
	scriptURL     string
	scriptPath    string
	securityLevel string
	timeout       time.Duration
}

// browserEngine renders diagrams with mermaid.js inside a single host page
// kept open for the lifetime of the editor.
type browserEngine struct {
	browser *browser
	cfg     engineConfig

	mu      sync.Mutex // serializes Initialize and Render
	page    *rod.Page
	cleanup func()
}

func newBrowserEngine(b *browser, cfg engineConfig) *browserEngine {
	return &browserEngine{browser: b, cfg: cfg}
}

// Initialize opens the host page and configures mermaid.
func (e *browserEngine) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.page != nil {
		return nil
	}

	br, err := e.browser.connect()
	if err != nil {
		return err
	}

	hostHTML, err := hostPage(e.cfg.scriptURL, e.cfg.scriptPath)
	if err != nil {
		return err
	}
	path, cleanup, err := fileutil.WriteTempFile(hostHTML, "html")
	if err != nil {
		return err
	}

	page, err := br.Page(proto.TargetCreateTarget{URL: refs.FileURLBridge{}.Loadable(path)})
	if err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	fail := func(err error) error {
		_ = page.Close()
		cleanup()
		return err
	}

	if err := page.Context(ctx).Timeout(e.cfg.timeout).WaitLoad(); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrPageLoad, err))
	}

	res, err := page.Context(ctx).Timeout(e.cfg.timeout).Eval(`() => typeof window.mermaid !== "undefined"`)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrDiagramEngine, err))
	}
	if !res.Value.Bool() {
		return fail(fmt.Errorf("%w: window.mermaid is not defined", ErrDiagramEngine))
	}

	_, err = page.Context(ctx).Timeout(e.cfg.timeout).Eval(
		`(level) => mermaid.initialize({startOnLoad: false, securityLevel: level})`,
		e.cfg.securityLevel,
	)
	if err != nil {
		return fail(fmt.Errorf("%w: initialize: %v", ErrDiagramEngine, err))
	}

	e.page = page
	e.cleanup = cleanup
	return nil
}

// Render returns the SVG for code. Renders are serialized because mermaid
// keeps global state in the host page.
func (e *browserEngine) Render(ctx context.Context, id, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.page == nil {
		return "", ErrHostUnavailable
	}

	res, err := e.page.Context(ctx).Timeout(e.cfg.timeout).Eval(
		`async (id, code) => (await mermaid.render(id, code)).svg`,
		id, code,
	)
	if err != nil {
		// A failed render leaves an error graphic in the host page.
		_, _ = e.page.Eval(`(id) => { const el = document.getElementById("d" + id); if (el) el.remove(); }`, id)
		return "", fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}

	svg := res.Value.Str()
	if !strings.Contains(svg, "<svg") {
		return "", fmt.Errorf("%w: engine returned no svg", ErrDiagramRender)
	}
	return svg, nil
}

// Close releases the host page. The browser itself belongs to the editor.
func (e *browserEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.page != nil {
		err = e.page.Close()
		e.page = nil
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	return err
}

// hostPage builds the page mermaid runs in. A local script path is inlined
// so rendering works offline.
func hostPage(scriptURL, scriptPath string) (string, error) {
	var script string
	switch {
	case scriptPath != "":
		data, err := os.ReadFile(scriptPath) // #nosec G304 -- user-configured script
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", ErrDiagramEngine, scriptPath, err)
		}
		script = "<script>" + strings.ReplaceAll(string(data), "</script", `<\/script`) + "</script>"
	case scriptURL != "":
		script = `<script src="` + html.EscapeString(scriptURL) + `"></script>`
	default:
		return "", fmt.Errorf("%w: no script configured", ErrDiagramEngine)
	}

	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n" +
		script + "\n</head>\n<body></body>\n</html>\n", nil
}
