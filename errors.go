package mdpress

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations. Whole-operation failures
// (ErrHostUnavailable, ErrPrecondition) are returned before any side
// effect. Per-block failures (ErrDiagramRender, ErrRasterConversion,
// ErrPersistence) are collected in ExportResult.Failures.
var (
	ErrHostUnavailable  = errors.New("rendering host unavailable")
	ErrDiagramRender    = errors.New("diagram render failed")
	ErrRasterConversion = errors.New("raster conversion failed")
	ErrPersistence      = errors.New("persisting file failed")
	ErrPrecondition     = errors.New("precondition failed")

	// ErrNoBaseDir wraps ErrPrecondition: the document was never saved.
	ErrNoBaseDir = fmt.Errorf("%w: document has no base directory", ErrPrecondition)

	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrDiagramEngine  = errors.New("diagram engine script failed to load")
	ErrEditorClosed   = errors.New("editor is closed")

	// Option validation errors.
	ErrInvalidNaming        = errors.New("invalid naming strategy")
	ErrInvalidClipboardMode = errors.New("invalid clipboard mode")
	ErrInvalidAssetPath     = errors.New("invalid asset path")
)

// BlockFailure describes a diagram block left untouched by an export.
type BlockFailure struct {
	Index int // 0-based position among all located blocks
	Start int // byte offsets of the fenced block in the input Markdown
	End   int
	Err   error
}

func (f BlockFailure) Error() string {
	return fmt.Sprintf("diagram block %d (bytes %d-%d): %v", f.Index+1, f.Start, f.End, f.Err)
}

func (f BlockFailure) Unwrap() error { return f.Err }
