package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestConverter_Convert - Full Conversion
// ---------------------------------------------------------------------------

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	markdown := "# Title\n\nSee [Go](https://go.dev).\n\n![pic](assets/a.png)\n\n```mermaid\nA-->B\n```\n"

	tests := []struct {
		name         string
		cfg          ConverterConfig
		wantContains []string
		wantExcludes []string
	}{
		{
			name: "plain styles",
			cfg:  ConverterConfig{FallbackCSS: "p{margin:0}"},
			wantContains: []string{
				"<!DOCTYPE html>",
				`<div class="publish-content">`,
				"<style>p{margin:0}\nh1{color:green}</style>",
				`<a href="https://go.dev">Go</a>`,
				`<img src="assets/a.png"`,
				`<div class="mermaid">`,
			},
			wantExcludes: []string{"<script"},
		},
		{
			name: "footnotes and script",
			cfg: ConverterConfig{
				LinkFootnotes: true,
				ScriptURL:     "https://cdn.example.com/mermaid.min.js",
			},
			wantContains: []string{
				`Go <span class="footnote-ref">1</span>`,
				`<span class="footnote-url">https://go.dev</span>`,
				`<script src="https://cdn.example.com/mermaid.min.js"></script>`,
			},
			wantExcludes: []string{`<a href="https://go.dev"`},
		},
		{
			name: "inlined css",
			cfg:  ConverterConfig{InlineCSS: true},
			wantContains: []string{
				`<h1 id="title" style="`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewConverter(tt.cfg).Convert(context.Background(), markdown, "h1{color:green}")
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Convert() = %q, want to contain %q", got, want)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("Convert() = %q, should not contain %q", got, exclude)
				}
			}
		})
	}
}

func TestConverter_NoScriptWithoutDiagrams(t *testing.T) {
	t.Parallel()

	conv := NewConverter(ConverterConfig{ScriptURL: "https://cdn.example.com/mermaid.min.js"})
	got, err := conv.Convert(context.Background(), "# no diagrams", "")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if strings.Contains(got, "<script") {
		t.Errorf("script injected without placeholders: %q", got)
	}
}

// failingHTMLConverter always fails.
type failingHTMLConverter struct{}

func (failingHTMLConverter) ToHTML(context.Context, string) (string, error) {
	return "", ErrHTMLConversion
}

func TestConverter_StageError(t *testing.T) {
	t.Parallel()

	conv := NewConverter(ConverterConfig{})
	conv.html = failingHTMLConverter{}

	if _, err := conv.Convert(context.Background(), "x", ""); !errors.Is(err, ErrHTMLConversion) {
		t.Errorf("Convert() error = %v, want ErrHTMLConversion", err)
	}
}

func TestConverter_FrontMatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		markdown    string
		wantTitle   string
		wantExclude string
	}{
		{
			name:        "title from front matter",
			markdown:    "---\ntitle: Weekly\nauthor: me\n---\n# Body\n",
			wantTitle:   "<title>Weekly</title>",
			wantExclude: "author: me",
		},
		{
			name:        "broken front matter keeps configured title",
			markdown:    "---\ntitle: [unclosed\n---\ntext\n",
			wantTitle:   "<title>Configured</title>",
			wantExclude: "unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewConverter(ConverterConfig{Title: "Configured"}).Convert(context.Background(), tt.markdown, "")
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if !strings.Contains(got, tt.wantTitle) {
				t.Errorf("Convert() = %q, want to contain %q", got, tt.wantTitle)
			}
			if strings.Contains(got, tt.wantExclude) {
				t.Errorf("Convert() = %q, should not contain %q", got, tt.wantExclude)
			}
		})
	}
}

func TestJoinCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fallback, theme, want string
	}{
		{"", "", ""},
		{"a", "", "a"},
		{"", "b", "b"},
		{"a", "b", "a\nb"},
	}
	for _, tt := range tests {
		if got := joinCSS(tt.fallback, tt.theme); got != tt.want {
			t.Errorf("joinCSS(%q, %q) = %q, want %q", tt.fallback, tt.theme, got, tt.want)
		}
	}
}
