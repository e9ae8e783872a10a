package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
)

// ErrDiagramsFailed is returned when at least one diagram block was left
// untouched.
var ErrDiagramsFailed = errors.New("some diagrams could not be exported")

// exportOutcome is the result of exporting one document.
type exportOutcome struct {
	Doc      *document
	Result   *mdpress.ExportResult
	Err      error
	Duration time.Duration
}

// runExportDiagrams replaces the mermaid blocks of each document with PNG
// images stored in the document's assets directory. Documents are processed
// in parallel, each on its own editor; blocks within a document are
// processed in order.
func runExportDiagrams(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	s, err := newSession(env, f.common, f.editor, func(cfg *config.Config) {
		setString(&cfg.Diagram.Naming, f.naming)
		setString(&cfg.Diagram.AltText, f.altText)
	})
	if err != nil {
		return err
	}

	docs, err := readDocuments(pos, f.document, env)
	if err != nil {
		return err
	}

	toStdout := f.document.stdout || docs[0].Path == ""

	pool, err := s.newPool(f.workers)
	if err != nil {
		return err
	}
	defer func() { _ = pool.Close() }()

	outcomes := make([]exportOutcome, len(docs))
	bar := newProgress(env.Stderr, len(docs), "Exporting diagrams", s.quiet)
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = exportDocument(ctx, pool, doc, toStdout)
			bar.step(displayName(doc))
		}()
	}
	wg.Wait()
	bar.finish()

	return s.reportExports(outcomes, toStdout)
}

// exportDocument exports one document on an editor borrowed from pool.
func exportDocument(ctx context.Context, pool *mdpress.EditorPool, doc *document, toStdout bool) exportOutcome {
	start := time.Now()
	out := exportOutcome{Doc: doc}

	ed, err := pool.Acquire(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	defer pool.Release(ed)

	in := mdpress.ExportInput{
		Markdown: doc.Markdown,
		BaseDir:  doc.BaseDir,
	}
	if !toStdout {
		in.DocumentPath = doc.Path
	}

	out.Result, out.Err = ed.ExportDiagramsToRaster(ctx, in)
	out.Duration = time.Since(start)
	return out
}

// reportExports prints one line per document and returns the first fatal
// error, or ErrDiagramsFailed when only some blocks failed.
func (s *session) reportExports(outcomes []exportOutcome, toStdout bool) error {
	var firstErr error
	failedBlocks := 0

	for _, o := range outcomes {
		name := displayName(o.Doc)
		if o.Err != nil {
			s.logger.Error("export failed", "document", name, "error", withHint(o.Err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", name, o.Err)
			}
			continue
		}

		r := o.Result
		for _, bf := range r.Failures {
			s.logger.Error("diagram left unchanged", "document", name, "error", withHint(bf))
		}
		failedBlocks += len(r.Failures)

		if toStdout {
			fmt.Fprint(s.env.Stdout, r.Markdown)
			continue
		}
		if !s.quiet {
			fmt.Fprintf(s.env.Stdout, "%s: %d diagram(s) exported", name, r.Replaced)
			if len(r.Failures) > 0 {
				fmt.Fprintf(s.env.Stdout, ", %d failed", len(r.Failures))
			}
			if s.verbose {
				fmt.Fprintf(s.env.Stdout, " (%s)", o.Duration.Round(time.Millisecond))
			}
			fmt.Fprintln(s.env.Stdout)
		}
		for _, file := range r.Files {
			s.logger.Debug("raster written", "path", file)
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if failedBlocks > 0 {
		return fmt.Errorf("%w: %d block(s)", ErrDiagramsFailed, failedBlocks)
	}
	return nil
}

// readDocuments reads every positional input, or stdin when there is none.
// Stdin documents are never written back, so they imply --stdout.
func readDocuments(paths []string, f documentFlags, env *Environment) ([]*document, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	if len(paths) > 1 && f.stdout {
		return nil, fmt.Errorf("%w: --stdout needs exactly one input", ErrUsage)
	}

	docs := make([]*document, 0, len(paths))
	for _, p := range paths {
		if p == "-" && len(paths) > 1 {
			return nil, fmt.Errorf("%w: stdin cannot be combined with files", ErrUsage)
		}
		doc, err := readDocument(p, f.baseDir, env.Stdin)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// displayName names a document in messages.
func displayName(doc *document) string {
	if doc.Path == "" {
		return "<stdin>"
	}
	return doc.Path
}
