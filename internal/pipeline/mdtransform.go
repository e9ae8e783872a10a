package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// ==text== is carried through goldmark as Private Use Area markers and
// turned into <mark> afterwards, so raw HTML can stay disabled.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==([^=\n]+?)==`)
	fencedBlock        = regexp.MustCompile("(?s)```.*?```")
)

// Preprocessor prepares Markdown before conversion.
type Preprocessor interface {
	Preprocess(ctx context.Context, content string) string
}

// MarkdownPreprocessor normalizes line endings, collapses runs of blank
// lines and converts ==highlight== syntax outside code fences.
type MarkdownPreprocessor struct{}

// Preprocess returns content unchanged when ctx is already done.
func (p *MarkdownPreprocessor) Preprocess(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = crlfOrCR.ReplaceAllString(content, "\n")
	content = outsideFences(content, func(s string) string {
		s = highlightPattern.ReplaceAllString(s, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
		return multipleBlankLines.ReplaceAllString(s, "\n\n")
	})
	return content
}

// outsideFences applies fn to the text between fenced blocks. Diagram
// source such as "A==>B" must reach the renderer untouched.
func outsideFences(content string, fn func(string) string) string {
	matches := fencedBlock.FindAllStringIndex(content, -1)
	if len(matches) == 0 {
		return fn(content)
	}

	var b strings.Builder
	cursor := 0
	for _, m := range matches {
		b.WriteString(fn(content[cursor:m[0]]))
		b.WriteString(content[m[0]:m[1]])
		cursor = m[1]
	}
	b.WriteString(fn(content[cursor:]))
	return b.String()
}

// ConvertMarkPlaceholders turns highlight markers into <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.NewReplacer(
		MarkStartPlaceholder, "<mark>",
		MarkEndPlaceholder, "</mark>",
	).Replace(content)
}

var _ Preprocessor = (*MarkdownPreprocessor)(nil)
