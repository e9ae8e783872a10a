package main

import (
	"context"
	"fmt"
	"strings"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
)

// runCopy renders a document and writes the self-contained HTML (and
// optionally its plain-text fallback), ready to paste into an editor.
func runCopy(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parseCopyFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(pos) > 1 {
		return fmt.Errorf("%w: copy takes one input, got %d", ErrUsage, len(pos))
	}

	s, err := newSession(env, f.common, f.editor, func(cfg *config.Config) {
		setString(&cfg.Clipboard.Mode, f.mode)
		setString(&cfg.Editor.ImagePrefix, f.prefix)
		if f.footnotes {
			cfg.Editor.LinkFootnotes = true
		}
	})
	if err != nil {
		return err
	}

	doc, err := readDocument(firstArg(pos), f.baseDir, env.Stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc.Markdown) == "" {
		return mdpress.ErrEmptyMarkdown
	}

	ed, err := s.newEditor()
	if err != nil {
		return err
	}
	defer func() { _ = ed.Close() }()
	s.checkTheme(ed)

	rendered, err := ed.RenderPreview(ctx, s.previewInput(doc))
	if err != nil {
		return err
	}
	res, err := ed.ExportForClipboard(ctx, rendered)
	if err != nil {
		return err
	}

	if err := writeOutput(f.output, res.HTML, env.Stdout); err != nil {
		return err
	}
	if f.textOut != "" {
		if err := writeOutput(f.textOut, res.Text, env.Stdout); err != nil {
			return err
		}
	}

	if res.Failed > 0 {
		s.logger.Warn("some diagrams were left as placeholders", "failed", res.Failed, "inlined", res.Inlined)
	}
	if f.output != "" && f.output != "-" && !s.quiet {
		fmt.Fprintf(env.Stdout, "Created %s (%d diagram(s) embedded)\n", f.output, res.Inlined)
	}
	return nil
}
