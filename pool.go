package mdpress

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one editor is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("editor pool is closed")

// EditorPool manages Editors for parallel work across documents. Each
// editor owns its own browser, so exports of different documents run in
// parallel while each editor still renders one diagram at a time. Editors
// are created lazily on first acquire.
type EditorPool struct {
	size    int
	opts    []Option
	editors []*Editor
	sem     chan *Editor
	mu      sync.Mutex
	created int
	closed  bool
}

// NewEditorPool creates a pool with capacity for n editors built with opts.
func NewEditorPool(n int, opts ...Option) *EditorPool {
	if n < 1 {
		n = 1
	}

	return &EditorPool{
		size:    n,
		opts:    opts,
		editors: make([]*Editor, 0, n),
		sem:     make(chan *Editor, n),
	}
}

// Acquire gets an editor from the pool, creating one if capacity allows.
// Blocks until an editor is released or ctx is done.
func (p *EditorPool) Acquire(ctx context.Context) (*Editor, error) {
	// Try to get an existing editor (non-blocking)
	select {
	case ed, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return ed, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new editor outside the lock
		ed, err := NewEditor(p.opts...)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.editors = append(p.editors, ed)
		p.mu.Unlock()

		return ed, nil
	}
	p.mu.Unlock()

	// All editors created, wait for one to be released
	select {
	case ed, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return ed, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an editor to the pool.
// The lock is held while sending so Close cannot close the channel under
// us; the send never blocks since at most size editors exist.
func (p *EditorPool) Release(ed *Editor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.sem <- ed
}

// Close releases all browser resources.
// Returns an aggregated error if multiple editors fail to close.
func (p *EditorPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	editors := p.editors
	p.mu.Unlock()

	var errs []error
	for _, ed := range editors {
		if err := ed.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *EditorPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
