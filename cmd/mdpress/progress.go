package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/alnah/go-mdpress/internal/hints"
)

// progress reports per-document completion of batch commands on stderr:
// a bar in terminals, one line per document in CI logs. A nil *progress
// is a no-op.
type progress struct {
	bar *progressbar.ProgressBar

	mu    sync.Mutex
	w     io.Writer
	total int
	done  int
}

// newProgress returns nil unless there is more than one document and
// output is not quiet.
func newProgress(w io.Writer, total int, description string, quiet bool) *progress {
	if quiet || total < 2 {
		return nil
	}
	p := &progress{w: w, total: total}
	if hints.InCI() {
		return p
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return p
}

// step records one finished document.
func (p *progress) step(name string) {
	if p == nil {
		return
	}
	if p.bar != nil {
		_ = p.bar.Add(1)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	fmt.Fprintf(p.w, "[%d/%d] %s\n", p.done, p.total, name)
}

func (p *progress) finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
