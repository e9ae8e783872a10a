package mdpress

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxSVGSize caps a rendering service response.
const maxSVGSize = 10 << 20

var _ DiagramEngine = (*inkEngine)(nil)

// inkEngine renders diagrams with a mermaid.ink compatible HTTP service, so
// exports work without a local browser.
type inkEngine struct {
	baseURL string
	client  *http.Client
}

// NewInkEngine returns a DiagramEngine backed by the rendering service at
// baseURL (DefaultInkURL when empty). A nil client gets a 30 second timeout.
func NewInkEngine(baseURL string, client *http.Client) DiagramEngine {
	if baseURL == "" {
		baseURL = DefaultInkURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &inkEngine{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Initialize has nothing to prepare; the service is stateless.
func (e *inkEngine) Initialize(ctx context.Context) error {
	return ctx.Err()
}

// Render implements DiagramEngine. id is unused: every request is isolated.
func (e *inkEngine) Render(ctx context.Context, _ string, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload, err := pakoEncode(code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/svg/pako:"+payload, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	req.Header.Set("User-Agent", "go-mdpress")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiagramRender, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSVGSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrDiagramRender, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: service returned %s after %s", ErrDiagramRender, resp.Status, time.Since(start).Round(time.Millisecond))
	}

	svg := string(body)
	if !strings.Contains(svg, "<svg") {
		return "", fmt.Errorf("%w: response is not svg", ErrDiagramRender)
	}
	return svg, nil
}

// Close is a no-op.
func (e *inkEngine) Close() error {
	return nil
}

// pakoEncode builds the "pako:" payload understood by mermaid.ink and the
// mermaid live editor: zlib-deflated JSON state, base64url encoded.
func pakoEncode(code string) (string, error) {
	state, err := json.Marshal(struct {
		Code    string            `json:"code"`
		Mermaid map[string]string `json:"mermaid"`
	}{
		Code:    code,
		Mermaid: map[string]string{"theme": "default"},
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(state); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
