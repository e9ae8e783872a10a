package refs

import (
	"net/url"
	"strings"
)

// LoadableBridge converts an absolute local file path into an opaque locator
// that a preview surface can use as an image source.
type LoadableBridge interface {
	Loadable(absPath string) string
}

// BridgeFunc adapts a function to LoadableBridge.
type BridgeFunc func(absPath string) string

// Loadable calls f.
func (f BridgeFunc) Loadable(absPath string) string {
	return f(absPath)
}

// FileURLBridge produces file:// URLs, suitable when the preview is opened
// straight from disk (browser, headless Chrome).
type FileURLBridge struct{}

// Loadable converts absPath to a file:// URL. Windows paths keep their drive
// letter ("C:\docs\a.png" becomes "file:///C:/docs/a.png").
func (FileURLBridge) Loadable(absPath string) string {
	p := strings.ReplaceAll(absPath, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// HTTPBridge produces URLs served by the preview server. BaseURL is the
// absolute URL of the server's local-file endpoint, e.g.
// "http://127.0.0.1:8765/local".
type HTTPBridge struct {
	BaseURL string
}

// Loadable returns BaseURL with the path passed as a query parameter.
func (b HTTPBridge) Loadable(absPath string) string {
	return strings.TrimRight(b.BaseURL, "/") + "?path=" + url.QueryEscape(absPath)
}

// Compile-time interface checks.
var (
	_ LoadableBridge = FileURLBridge{}
	_ LoadableBridge = HTTPBridge{}
	_ LoadableBridge = BridgeFunc(nil)
)
