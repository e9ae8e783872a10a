// Package export turns a rendered preview fragment into a self-contained
// HTML document. Diagram placeholders left in the fragment are rendered and
// embedded so the result displays without any diagram engine.
package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerClass is the class carried by diagram placeholder elements.
const MarkerClass = "mermaid"

// imgStyle keeps embedded diagrams inside narrow publishing columns.
const imgStyle = "max-width:100%;height:auto"

// Mode selects how a rendered diagram is embedded.
type Mode string

// Embedding modes.
const (
	// ModeDataURI embeds the SVG as a base64 data URI in an img element.
	ModeDataURI Mode = "data-uri"
	// ModePNG rasterizes the SVG and embeds it as a PNG data URI.
	ModePNG Mode = "png"
	// ModeInlineSVG inlines the SVG markup in place of the placeholder.
	ModeInlineSVG Mode = "inline-svg"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDataURI, ModePNG, ModeInlineSVG:
		return true
	}
	return false
}

// ErrRasterizerRequired is returned when ModePNG is selected without a
// rasterizer.
var ErrRasterizerRequired = errors.New("png mode requires a rasterizer")

// Renderer renders diagram source to SVG markup. id must be unique among
// renders sharing the same engine.
type Renderer interface {
	Render(ctx context.Context, id, code string) (string, error)
}

// Rasterizer converts SVG markup to PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg string) ([]byte, error)
}

// Exporter embeds diagram placeholders. Placeholders are processed one at
// a time.
type Exporter struct {
	renderer   Renderer
	rasterizer Rasterizer
	mode       Mode
	logger     *slog.Logger
	namespace  func() string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithMode sets the embedding mode. Default: ModeDataURI.
func WithMode(m Mode) Option {
	return func(e *Exporter) { e.mode = m }
}

// WithRasterizer sets the rasterizer used by ModePNG.
func WithRasterizer(r Rasterizer) Option {
	return func(e *Exporter) { e.rasterizer = r }
}

// WithLogger sets the logger for per-node failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNamespace overrides the per-export id namespace generator.
func WithNamespace(fn func() string) Option {
	return func(e *Exporter) { e.namespace = fn }
}

// New creates an Exporter backed by r.
func New(r Renderer, opts ...Option) *Exporter {
	e := &Exporter{
		renderer:  r,
		mode:      ModeDataURI,
		logger:    slog.Default(),
		namespace: func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a self-contained document plus what happened to the
// placeholders found in it.
type Result struct {
	HTML    string
	Inlined int
	Failed  int
}

// Export renders every diagram placeholder in fragment and returns a
// complete document starting with a doctype. fragment may be a body
// fragment or a full document. Script elements are dropped, so the
// result never loads a diagram engine when pasted.
//
// A placeholder whose render fails is logged and left as it is. Only
// cancellation and malformed input abort the export.
func (e *Exporter) Export(ctx context.Context, fragment string) (*Result, error) {
	if e.mode == ModePNG && e.rasterizer == nil {
		return nil, ErrRasterizerRequired
	}

	doc, err := parseDocument(fragment)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}

	res := &Result{}
	ns := e.namespace()
	for i, n := range findPlaceholders(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := fmt.Sprintf("clipboard-mermaid-%s-%d", ns, i)
		replacement, err := e.embed(ctx, id, n)
		if err != nil {
			res.Failed++
			e.logger.Warn("diagram not inlined", "id", id, "error", err)
			continue
		}
		if replacement == nil {
			continue
		}
		replaceNode(n, replacement)
		res.Inlined++
	}

	removeScripts(doc)

	out, err := renderDocument(doc)
	if err != nil {
		return nil, err
	}
	res.HTML = out
	return res, nil
}

// embed returns the nodes replacing placeholder n, or nil when n has
// nothing to render.
func (e *Exporter) embed(ctx context.Context, id string, n *html.Node) ([]*html.Node, error) {
	svg, err := e.svgFor(ctx, id, n)
	if err != nil || svg == "" {
		return nil, err
	}

	switch e.mode {
	case ModeInlineSVG:
		return parseInline(svg)
	case ModePNG:
		png, err := e.rasterizer.Rasterize(ctx, svg)
		if err != nil {
			return nil, err
		}
		return []*html.Node{imgNode("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))}, nil
	default:
		return []*html.Node{imgNode("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)))}, nil
	}
}

// svgFor returns SVG markup for placeholder n. A placeholder already
// rendered by a live preview carries its svg child and is reused as is.
func (e *Exporter) svgFor(ctx context.Context, id string, n *html.Node) (string, error) {
	if svg := findFirst(n, atom.Svg); svg != nil {
		var b strings.Builder
		if err := html.Render(&b, svg); err != nil {
			return "", err
		}
		return b.String(), nil
	}

	code := strings.TrimSpace(textContent(n))
	if code == "" {
		return "", nil
	}
	return e.renderer.Render(ctx, id, code)
}

// ---------------------------------------------------------------------------
// DOM helpers
// ---------------------------------------------------------------------------

// parseDocument parses a full document, or wraps a fragment in a minimal
// UTF-8 document.
func parseDocument(content string) (*html.Node, error) {
	lower := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return html.Parse(strings.NewReader(content))
	}

	doc, err := html.Parse(strings.NewReader(`<!DOCTYPE html><html><head><meta charset="utf-8"></head><body></body></html>`))
	if err != nil {
		return nil, err
	}
	body := findFirst(doc, atom.Body)
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return doc, nil
}

// renderDocument renders the html element behind an explicit doctype.
func renderDocument(doc *html.Node) (string, error) {
	root := findFirst(doc, atom.Html)
	if root == nil {
		root = doc
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>")
	if err := html.Render(&b, root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// HasPlaceholders reports whether content holds at least one element
// carrying MarkerClass, whatever its quoting or other classes.
func HasPlaceholders(content string) bool {
	doc, err := parseDocument(content)
	if err != nil {
		return false
	}
	return len(findPlaceholders(doc)) > 0
}

// removeScripts detaches every script element below n.
func removeScripts(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && c.DataAtom == atom.Script {
			n.RemoveChild(c)
		} else {
			removeScripts(c)
		}
		c = next
	}
}

// findPlaceholders collects placeholder elements in document order. Nested
// placeholders are not descended into.
func findPlaceholders(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, MarkerClass) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, f := range strings.Fields(a.Val) {
			if f == class {
				return true
			}
		}
	}
	return false
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func imgNode(src string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Img,
		Data:     "img",
		Attr: []html.Attribute{
			{Key: "src", Val: src},
			{Key: "alt", Val: "diagram"},
			{Key: "style", Val: imgStyle},
		},
	}
}

// parseInline parses SVG markup into nodes insertable in a body.
func parseInline(svg string) ([]*html.Node, error) {
	ctxNode := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(svg), ctxNode)
	if err != nil {
		return nil, fmt.Errorf("parsing svg: %w", err)
	}
	if len(nodes) == 0 {
		return nil, errors.New("empty svg markup")
	}
	return nodes, nil
}

// replaceNode swaps old for the replacement nodes in place.
func replaceNode(old *html.Node, replacement []*html.Node) {
	parent := old.Parent
	for _, n := range replacement {
		parent.InsertBefore(n, old)
	}
	parent.RemoveChild(old)
}
