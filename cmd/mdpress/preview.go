package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/assets"
	"github.com/alnah/go-mdpress/internal/config"
	"github.com/alnah/go-mdpress/internal/hints"
)

// runPreview renders one document to themed HTML.
func runPreview(ctx context.Context, args []string, env *Environment) error {
	f, pos, err := parsePreviewFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(pos) > 1 {
		return fmt.Errorf("%w: preview takes one input, got %d", ErrUsage, len(pos))
	}

	s, err := newSession(env, f.common, f.editor, func(cfg *config.Config) {
		setString(&cfg.Editor.ImagePrefix, f.prefix)
		if f.footnotes {
			cfg.Editor.LinkFootnotes = true
		}
		if f.inlineCSS {
			cfg.Editor.InlineCSS = true
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

	html, err := ed.RenderPreview(ctx, s.previewInput(doc))
	if err != nil {
		return err
	}

	if err := writeOutput(f.output, html, env.Stdout); err != nil {
		return err
	}
	if f.output != "" && f.output != "-" && !s.quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", f.output)
	}
	return nil
}

// previewInput builds the per-call preview configuration for doc.
func (s *session) previewInput(doc *document) mdpress.PreviewInput {
	return mdpress.PreviewInput{
		Markdown: doc.Markdown,
		Theme:    s.themeOverride,
		ThemeCSS: s.themeCSS,
		BaseDir:  doc.BaseDir,
	}
}

// checkTheme warns once about an unknown theme name and switches previews
// to the default theme.
func (s *session) checkTheme(ed *mdpress.Editor) {
	name := s.cfg.Editor.Theme
	if s.themeCSS != "" || name == "" {
		return
	}
	available := ed.Themes()
	if slices.Contains(available, name) {
		return
	}
	s.logger.Warn("theme not found, using default"+hints.ForThemeNotFound(available), "theme", name)
	s.themeOverride = assets.DefaultThemeName
}

// firstArg returns args[0], or "" when args is empty.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
