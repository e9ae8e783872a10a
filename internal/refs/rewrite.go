package refs

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// imgSrcPattern matches the src attribute of an img tag with either quote
// style. Group 1 is everything up to the opening quote, group 2 the
// double-quoted value, group 3 the single-quoted value.
//
// The pattern is compiled once but holds no match state; every call gets a
// fresh match set.
var imgSrcPattern = regexp.MustCompile(`(?i)(<img\b[^>]*?\ssrc\s*=\s*)(?:"([^"]*)"|'([^']*)')`)

// rewriteFunc returns the replacement for a trimmed, non-empty reference,
// or false to leave the attribute as it is.
type rewriteFunc func(ref string) (string, bool)

// rewriteSources applies fn to every img src in htmlContent in one forward
// pass, copying untouched spans verbatim.
func rewriteSources(htmlContent string, fn rewriteFunc) string {
	matches := imgSrcPattern.FindAllStringSubmatchIndex(htmlContent, -1)
	if len(matches) == 0 {
		return htmlContent
	}

	var b strings.Builder
	b.Grow(len(htmlContent))
	cursor := 0

	for _, m := range matches {
		quote := `"`
		valStart, valEnd := m[4], m[5]
		if valStart < 0 {
			quote = `'`
			valStart, valEnd = m[6], m[7]
		}

		ref := strings.TrimSpace(htmlContent[valStart:valEnd])
		if ref == "" {
			continue
		}
		replacement, ok := fn(ref)
		if !ok {
			continue
		}

		b.WriteString(htmlContent[cursor:valStart])
		b.WriteString(escapeQuote(replacement, quote))
		cursor = valEnd
	}

	b.WriteString(htmlContent[cursor:])
	return b.String()
}

// escapeQuote keeps a replacement from terminating its attribute early.
func escapeQuote(value, quote string) string {
	if quote == `"` {
		return strings.ReplaceAll(value, `"`, "&quot;")
	}
	return strings.ReplaceAll(value, `'`, "&#39;")
}

// ToLoadable rewrites assets-relative image sources to locators the preview
// surface can load. The reference is joined to baseDir using the separator
// baseDir already uses, then handed to bridge. The attribute value is
// decoded first, so "assets/my%20img.png" names the file "my img.png".
//
// Returns htmlContent unchanged when baseDir is empty. References of any
// other kind are never touched.
func ToLoadable(htmlContent, baseDir, assetsDir string, bridge LoadableBridge) string {
	if baseDir == "" || bridge == nil {
		return htmlContent
	}

	base := strings.TrimRight(baseDir, `/\`)
	sep := "/"
	if strings.Contains(base, `\`) {
		sep = `\`
	}

	return rewriteSources(htmlContent, func(ref string) (string, bool) {
		if Classify(ref, assetsDir) != KindAssetsRelative {
			return "", false
		}
		clean := attrPath(strings.TrimPrefix(ref, "./"))
		full := base + sep + strings.ReplaceAll(clean, "/", sep)
		return html.EscapeString(bridge.Loadable(full)), true
	})
}

// attrPath turns an src attribute value back into a file path: entities
// are unescaped, then percent-encoding. A value that is not valid
// percent-encoding is used as it stands after unescaping.
func attrPath(ref string) string {
	p := html.UnescapeString(ref)
	if decoded, err := url.PathUnescape(p); err == nil {
		return decoded
	}
	return p
}

// ApplyPrefix prepends prefix to every other-relative image source.
// Remote, internal and assets-relative references are left alone.
//
// prefix must be an absolute URL (scheme or protocol-relative). Once a
// reference is prefixed it classifies as remote and later passes skip it.
// A relative prefix would be applied again on every call.
//
// Returns htmlContent unchanged when prefix is blank.
func ApplyPrefix(htmlContent, prefix, assetsDir string) string {
	p := strings.TrimSpace(prefix)
	if p == "" {
		return htmlContent
	}
	p = strings.TrimRight(p, "/")

	return rewriteSources(htmlContent, func(ref string) (string, bool) {
		if Classify(ref, assetsDir) != KindOtherRelative {
			return "", false
		}
		if strings.HasPrefix(ref, "/") {
			return p + ref, true
		}
		return p + "/" + ref, true
	})
}
