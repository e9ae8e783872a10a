package pipeline

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Classes used by link footnotes.
const (
	FootnoteRefClass  = "footnote-ref"
	FootnoteURLClass  = "footnote-url"
	FootnoteListClass = "link-footnotes"
)

// LinksToFootnotes replaces every outbound link with its text followed by a
// numbered reference, and appends the URLs as an ordered list. Publishing
// targets that strip hyperlinks keep the URLs readable this way.
//
// In-page anchors (href starting with "#") and links without href are left
// alone. A URL linked several times keeps its first number.
func LinksToFootnotes(htmlContent string) (string, error) {
	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	var links []*html.Node
	collectLinks(doc, &links)
	if len(links) == 0 {
		return htmlContent, nil
	}

	numbers := map[string]int{}
	var urls []string
	for _, a := range links {
		href := attr(a, "href")
		n, seen := numbers[href]
		if !seen {
			urls = append(urls, href)
			n = len(urls)
			numbers[href] = n
		}
		unwrapWithRef(a, n)
	}

	appendFootnoteList(footnoteParent(doc, isFragment), urls)
	return renderHTML(doc, isFragment)
}

// parseHTML parses HTML content, handling both full documents and fragments.
func parseHTML(content string) (*html.Node, bool, error) {
	lower := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string. Fragments render their
// children only.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func collectLinks(n *html.Node, out *[]*html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		href := strings.TrimSpace(attr(n, "href"))
		if href != "" && !strings.HasPrefix(href, "#") {
			*out = append(*out, n)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLinks(c, out)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// unwrapWithRef moves a's children in front of it, adds the reference span
// and removes a.
func unwrapWithRef(a *html.Node, n int) {
	parent := a.Parent
	for c := a.FirstChild; c != nil; {
		next := c.NextSibling
		a.RemoveChild(c)
		parent.InsertBefore(c, a)
		c = next
	}

	parent.InsertBefore(&html.Node{Type: html.TextNode, Data: " "}, a)
	ref := element(atom.Span, FootnoteRefClass)
	ref.AppendChild(&html.Node{Type: html.TextNode, Data: strconv.Itoa(n)})
	parent.InsertBefore(ref, a)
	parent.RemoveChild(a)
}

// footnoteParent is where the list goes: the body of a document, or the
// fragment root.
func footnoteParent(doc *html.Node, isFragment bool) *html.Node {
	if isFragment {
		return doc
	}
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if f := find(c); f != nil {
				return f
			}
		}
		return nil
	}
	if body := find(doc); body != nil {
		return body
	}
	return doc
}

func appendFootnoteList(parent *html.Node, urls []string) {
	div := element(atom.Div, FootnoteListClass)
	ol := element(atom.Ol, "")
	for _, u := range urls {
		li := element(atom.Li, "")
		span := element(atom.Span, FootnoteURLClass)
		span.AppendChild(&html.Node{Type: html.TextNode, Data: u})
		li.AppendChild(span)
		ol.AppendChild(li)
	}
	div.AppendChild(ol)
	parent.AppendChild(div)
}

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}
