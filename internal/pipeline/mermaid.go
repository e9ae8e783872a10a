package pipeline

import (
	"bytes"
	"strings"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MermaidClass marks diagram placeholder elements in converted HTML.
const MermaidClass = "mermaid"

const mermaidLanguage = "mermaid"

// KindMermaidBlock is the AST kind of a diagram placeholder.
var KindMermaidBlock = ast.NewNodeKind("MermaidBlock")

// mermaidBlock replaces a ```mermaid fence in the AST. Its lines are the
// fence body.
type mermaidBlock struct {
	ast.BaseBlock
}

func (n *mermaidBlock) Kind() ast.NodeKind { return KindMermaidBlock }

func (n *mermaidBlock) IsRaw() bool { return true }

func (n *mermaidBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// mermaidTransformer swaps mermaid fences for placeholder nodes before
// rendering, so the highlighter never sees them.
type mermaidTransformer struct{}

func (mermaidTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var fences []*ast.FencedCodeBlock

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fence, ok := n.(*ast.FencedCodeBlock); ok {
			lang := strings.ToLower(strings.TrimSpace(string(fence.Language(source))))
			if lang == mermaidLanguage {
				fences = append(fences, fence)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fence := range fences {
		block := &mermaidBlock{}
		block.SetLines(fence.Lines())
		fence.Parent().ReplaceChild(fence.Parent(), fence, block)
	}
}

// mermaidRenderer writes placeholders as <div class="mermaid">.
type mermaidRenderer struct{}

func (mermaidRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMermaidBlock, renderMermaid)
}

func renderMermaid(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString(`<div class="` + MermaidClass + `">`)
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkContinue, nil
}

// plainCodeWrapper renders code blocks the highlighter has no lexer for,
// keeping the language as a class.
func plainCodeWrapper() highlighting.WrapperRenderer {
	return func(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
		if ctx.Highlighted() {
			return
		}

		lang, _ := ctx.Language()
		if entering {
			_, _ = w.WriteString("<pre><code")
			if len(bytes.TrimSpace(lang)) > 0 {
				_, _ = w.WriteString(` class="language-`)
				_, _ = w.Write(util.EscapeHTML(lang))
				_, _ = w.WriteString(`"`)
			}
			_, _ = w.WriteString(">")
			return
		}
		_, _ = w.WriteString("</code></pre>\n")
	}
}

// HasMermaid reports whether converted HTML contains a placeholder.
func HasMermaid(htmlContent string) bool {
	return strings.Contains(htmlContent, `class="`+MermaidClass+`"`)
}
