package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
)

// ErrImagesFailed is returned when at least one image could not be
// downloaded.
var ErrImagesFailed = errors.New("some images could not be localized")

// localizeOutcome is the result of localizing one document.
type localizeOutcome struct {
	Doc    *document
	Result *mdpress.LocalizeResult
	Err    error
}

// runLocalize downloads the remote images of each document into its assets
// directory and points the Markdown at the local copies.
func runLocalize(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseLocalizeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	s, err := newSession(env, f.common, f.editor, func(cfg *config.Config) {
		setString(&cfg.Editor.SitePrefix, f.sitePrefix)
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

	outcomes := make([]localizeOutcome, len(docs))
	bar := newProgress(env.Stderr, len(docs), "Localizing images", s.quiet)
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = localizeDocument(ctx, pool, doc, toStdout)
			bar.step(displayName(doc))
		}()
	}
	wg.Wait()
	bar.finish()

	return s.reportLocalize(outcomes, toStdout)
}

// localizeDocument localizes one document on an editor borrowed from pool.
func localizeDocument(ctx context.Context, pool *mdpress.EditorPool, doc *document, toStdout bool) localizeOutcome {
	out := localizeOutcome{Doc: doc}

	ed, err := pool.Acquire(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	defer pool.Release(ed)

	in := mdpress.LocalizeInput{
		Markdown: doc.Markdown,
		BaseDir:  doc.BaseDir,
	}
	if !toStdout {
		in.DocumentPath = doc.Path
	}
	out.Result, out.Err = ed.LocalizeImages(ctx, in)
	return out
}

// reportLocalize prints one line per document and returns the first fatal
// error, or ErrImagesFailed when only some downloads failed.
func (s *session) reportLocalize(outcomes []localizeOutcome, toStdout bool) error {
	var firstErr error
	failed := 0

	for _, o := range outcomes {
		name := displayName(o.Doc)
		if o.Err != nil {
			s.logger.Error("localize failed", "document", name, "error", withHint(o.Err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", name, o.Err)
			}
			continue
		}

		r := o.Result
		for _, f := range r.Failures {
			s.logger.Error("image left remote", "document", name, "url", f.URL, "error", f.Err)
		}
		failed += len(r.Failures)

		if toStdout {
			fmt.Fprint(s.env.Stdout, r.Markdown)
			continue
		}
		if !s.quiet {
			fmt.Fprintf(s.env.Stdout, "%s: %d image(s) downloaded, %d already local\n", name, r.Downloaded, r.Skipped)
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d image(s)", ErrImagesFailed, failed)
	}
	return nil
}
