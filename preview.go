package mdpress

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded reports a preview whose result was dropped because a newer
// request was made before it completed.
var ErrSuperseded = errors.New("preview superseded by a newer request")

// PreviewSession serializes the observable result of overlapping
// RenderPreview calls for one document. Every call is tagged with a
// sequence number; starting a call cancels the one before it, and a result
// is only published when no newer result has been published first.
type PreviewSession struct {
	editor *Editor

	mu        sync.Mutex
	seq       uint64
	published uint64
	html      string
	cancel    context.CancelFunc
}

// NewPreviewSession creates a session rendering through e.
func NewPreviewSession(e *Editor) *PreviewSession {
	return &PreviewSession{editor: e}
}

// Render renders in and publishes the result. It returns ErrSuperseded when
// a newer Render made this result stale.
func (s *PreviewSession) Render(ctx context.Context, in PreviewInput) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	n := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	out, err := s.editor.RenderPreview(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq == n {
		s.cancel = nil
	}
	if n <= s.published {
		return "", ErrSuperseded
	}
	if err != nil {
		if n < s.seq && errors.Is(err, context.Canceled) {
			return "", ErrSuperseded
		}
		return "", err
	}

	s.published = n
	s.html = out
	return out, nil
}

// Latest returns the most recently published preview and its sequence
// number, zero before the first success.
func (s *PreviewSession) Latest() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html, s.published
}
