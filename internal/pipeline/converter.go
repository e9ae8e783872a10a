package pipeline

import (
	"context"
	"fmt"

	"github.com/alnah/go-mdpress/internal/yamlutil"
)

// DocumentConverter turns Markdown plus theme CSS into a complete, styled
// HTML document.
type DocumentConverter interface {
	Convert(ctx context.Context, markdown, themeCSS string) (string, error)
}

// ConverterConfig configures a Converter.
type ConverterConfig struct {
	FallbackCSS   string // applied before the theme
	ScriptURL     string // mermaid.js for live previews; empty disables
	SecurityLevel string
	Title         string // overridden by a front matter title
	LinkFootnotes bool
	InlineCSS     bool
}

// Converter runs the conversion stages in order: preprocess, goldmark,
// link footnotes, document wrapping, CSS injection, CSS inlining and the
// diagram preview script.
type Converter struct {
	cfg          ConverterConfig
	preprocessor Preprocessor
	html         HTMLConverter
	css          CSSInjector
	inliner      CSSInliner
}

// NewConverter creates a Converter with the default stages.
func NewConverter(cfg ConverterConfig) *Converter {
	return &Converter{
		cfg:          cfg,
		preprocessor: &MarkdownPreprocessor{},
		html:         NewGoldmarkConverter(),
		css:          &CSSInjection{},
		inliner:      PremailerInliner{},
	}
}

// Convert implements DocumentConverter.
func (c *Converter) Convert(ctx context.Context, markdown, themeCSS string) (string, error) {
	title := c.cfg.Title
	if front, body, ok := yamlutil.SplitFrontMatter(markdown); ok {
		markdown = body
		if t := frontMatterTitle(front); t != "" {
			title = t
		}
	}

	content := c.preprocessor.Preprocess(ctx, markdown)

	fragment, err := c.html.ToHTML(ctx, content)
	if err != nil {
		return "", err
	}
	hasMermaid := HasMermaid(fragment)

	if c.cfg.LinkFootnotes {
		if fragment, err = LinksToFootnotes(fragment); err != nil {
			return "", fmt.Errorf("converting links: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc := WrapDocument(fragment, title)
	doc = c.css.InjectCSS(ctx, doc, joinCSS(c.cfg.FallbackCSS, themeCSS))

	if c.cfg.InlineCSS {
		if doc, err = c.inliner.InlineCSS(ctx, doc); err != nil {
			return "", err
		}
	}

	if hasMermaid {
		doc = InjectHead(doc, MermaidScript(c.cfg.ScriptURL, c.cfg.SecurityLevel))
	}
	return doc, nil
}

// frontMatterTitle returns the "title" key, or "" when the block does not
// decode. Broken front matter never fails a preview.
func frontMatterTitle(front string) string {
	var meta struct {
		Title string `yaml:"title"`
	}
	if front == "" || yamlutil.Unmarshal([]byte(front), &meta) != nil {
		return ""
	}
	return meta.Title
}

func joinCSS(fallback, theme string) string {
	switch {
	case fallback == "":
		return theme
	case theme == "":
		return fallback
	default:
		return fallback + "\n" + theme
	}
}

var _ DocumentConverter = (*Converter)(nil)
