package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/vanng822/go-premailer/premailer"
)

// ErrCSSInline indicates CSS inlining failed.
var ErrCSSInline = errors.New("CSS inlining failed")

// ContentClass wraps the converted body. Theme stylesheets scope their
// rules under it.
const ContentClass = "publish-content"

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}
	if ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		closeIdx := strings.Index(htmlContent[idx:], ">")
		if closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// documentTemplate wraps a converted fragment. The fragment sits inside
// the content wrapper so theme selectors apply.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<div class="` + ContentClass + `">
%s
</div>
</body>
</html>`

// WrapDocument places fragment in a complete HTML5 document.
func WrapDocument(fragment, title string) string {
	if title == "" {
		title = "Document"
	}
	return fmt.Sprintf(documentTemplate, html.EscapeString(title), fragment)
}

// MermaidScript returns the tags that load mermaid.js from scriptURL and
// render placeholders on page load. Empty when scriptURL is empty.
func MermaidScript(scriptURL, securityLevel string) string {
	if scriptURL == "" {
		return ""
	}
	if securityLevel == "" {
		securityLevel = "strict"
	}
	return `<script src="` + html.EscapeString(scriptURL) + `"></script>
<script>
if (window.mermaid) {
  window.mermaid.initialize({ startOnLoad: true, securityLevel: "` + html.EscapeString(securityLevel) + `" });
}
</script>`
}

// InjectHead inserts markup before </head>, or prepends it when the
// document has no head.
func InjectHead(htmlContent, markup string) string {
	if markup == "" {
		return htmlContent
	}
	if idx := strings.Index(strings.ToLower(htmlContent), "</head>"); idx != -1 {
		return htmlContent[:idx] + markup + "\n" + htmlContent[idx:]
	}
	return markup + htmlContent
}

// CSSInliner moves stylesheet rules into style attributes, which rich-text
// editors keep when pasting while they drop <style> blocks.
type CSSInliner interface {
	InlineCSS(ctx context.Context, htmlContent string) (string, error)
}

// PremailerInliner inlines CSS with go-premailer.
type PremailerInliner struct{}

// InlineCSS returns htmlContent with <style> rules applied as attributes.
func (PremailerInliner) InlineCSS(ctx context.Context, htmlContent string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := premailer.NewOptions()
	opts.CssToAttributes = false
	prem, err := premailer.NewPremailerFromString(htmlContent, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCSSInline, err)
	}
	out, err := prem.Transform()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCSSInline, err)
	}
	return out, nil
}

var (
	_ CSSInjector = (*CSSInjection)(nil)
	_ CSSInliner  = PremailerInliner{}
)
