package mdpress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-rod/rod/lib/proto"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// Fallback raster size when an SVG declares neither dimensions nor viewBox.
const (
	fallbackWidth  = 800
	fallbackHeight = 600
	maxRasterSide  = 8192
)

var (
	svgTagPattern  = regexp.MustCompile(`(?s)<svg\b[^>]*>`)
	widthPattern   = regexp.MustCompile(`\swidth\s*=\s*["']\s*([0-9.]+)\s*(px)?\s*["']`)
	heightPattern  = regexp.MustCompile(`\sheight\s*=\s*["']\s*([0-9.]+)\s*(px)?\s*["']`)
	viewBoxPattern = regexp.MustCompile(`\sviewBox\s*=\s*["']([^"']+)["']`)
)

// intrinsicSize returns the pixel size an SVG asks for: explicit width and
// height attributes first, then the viewBox, then 800x600. Sizes whose
// longer side exceeds maxRasterSide are scaled down, keeping the aspect
// ratio.
func intrinsicSize(svg string) (w, h int) {
	tag := svgTagPattern.FindString(svg)
	if tag == "" {
		return fallbackWidth, fallbackHeight
	}

	if mw, mh := widthPattern.FindStringSubmatch(tag), heightPattern.FindStringSubmatch(tag); mw != nil && mh != nil {
		fw, errW := strconv.ParseFloat(mw[1], 64)
		fh, errH := strconv.ParseFloat(mh[1], 64)
		if errW == nil && errH == nil && fw >= 1 && fh >= 1 {
			return boundedSize(fw, fh)
		}
	}

	if m := viewBoxPattern.FindStringSubmatch(tag); m != nil {
		fields := strings.FieldsFunc(m[1], func(r rune) bool { return r == ' ' || r == ',' })
		if len(fields) == 4 {
			fw, errW := strconv.ParseFloat(fields[2], 64)
			fh, errH := strconv.ParseFloat(fields[3], 64)
			if errW == nil && errH == nil && fw >= 1 && fh >= 1 {
				return boundedSize(fw, fh)
			}
		}
	}
	return fallbackWidth, fallbackHeight
}

func boundedSize(fw, fh float64) (w, h int) {
	if longest := max(fw, fh); longest > maxRasterSide {
		scale := maxRasterSide / longest
		fw, fh = max(fw*scale, 1), max(fh*scale, 1)
	}
	return int(fw + 0.5), int(fh + 0.5)
}

// finishRaster checks that data is a PNG and downscales it to maxWidth.
func finishRaster(data []byte, maxWidth int) ([]byte, error) {
	if mt := mimetype.Detect(data); !mt.Is("image/png") {
		return nil, fmt.Errorf("%w: expected image/png, got %s", ErrRasterConversion, mt.String())
	}
	if maxWidth <= 0 {
		return data, nil
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterConversion, err)
	}
	if cfg.Width <= maxWidth {
		return data, nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterConversion, err)
	}
	return encodePNG(scaleToWidth(img, maxWidth))
}

// scaleToWidth resizes img to maxWidth keeping its aspect ratio.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if maxWidth <= 0 || bounds.Dx() <= maxWidth {
		return img
	}
	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height <= 0 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encoding png: %v", ErrRasterConversion, err)
	}
	return buf.Bytes(), nil
}

// ---------------------------------------------------------------------------
// Browser rasterizer
// ---------------------------------------------------------------------------

// browserRasterizer screenshots the SVG in a scratch page, so text inside
// foreignObject elements renders exactly as in the preview.
type browserRasterizer struct {
	browser  *browser
	timeout  time.Duration
	maxWidth int

	mu sync.Mutex
}

func newBrowserRasterizer(b *browser, timeout time.Duration, maxWidth int) *browserRasterizer {
	return &browserRasterizer{browser: b, timeout: timeout, maxWidth: maxWidth}
}

// Rasterize implements Rasterizer.
func (r *browserRasterizer) Rasterize(ctx context.Context, svg string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	br, err := r.browser.connect()
	if err != nil {
		return nil, err
	}

	page, err := br.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	w, h := intrinsicSize(svg)
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             w,
		Height:            h,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("%w: viewport: %v", ErrRasterConversion, err)
	}

	p := page.Context(ctx).Timeout(r.timeout)
	if err := p.SetDocumentContent(rasterPage(svg, w, h)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterConversion, err)
	}

	el, err := p.Element("svg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterConversion, err)
	}
	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterConversion, err)
	}
	return finishRaster(data, r.maxWidth)
}

// rasterPage pins the SVG to its intrinsic size on a white background.
func rasterPage(svg string, w, h int) string {
	return fmt.Sprintf("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><style>"+
		"html,body{margin:0;padding:0;background:#fff}"+
		"svg{display:block;width:%dpx !important;height:%dpx !important;max-width:none !important}"+
		"</style></head><body>%s</body></html>", w, h, svg)
}

// ---------------------------------------------------------------------------
// Vector rasterizer
// ---------------------------------------------------------------------------

// vectorRasterizer draws SVG paths without a browser. Text held in
// foreignObject elements, which mermaid uses for most labels, is not drawn.
type vectorRasterizer struct {
	maxWidth int
}

// NewVectorRasterizer returns a Rasterizer that needs no browser.
func NewVectorRasterizer(maxWidth int) Rasterizer {
	return &vectorRasterizer{maxWidth: maxWidth}
}

// Rasterize implements Rasterizer.
func (r *vectorRasterizer) Rasterize(ctx context.Context, svg string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterConversion, err)
	}

	w, h := intrinsicSize(svg)
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	icon.Draw(rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())), 1)

	data, err := encodePNG(rgba)
	if err != nil {
		return nil, err
	}
	return finishRaster(data, r.maxWidth)
}
